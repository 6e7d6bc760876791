package lltf_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/lltfsim"
)

func containsStep(calls []lltf.Step, step lltf.Step) bool {
	for _, c := range calls {
		if c == step {
			return true
		}
	}
	return false
}

func TestSessionManagerOpen(t *testing.T) {
	require := require.New(t)

	t.Run("Happy Path", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		res, err := mgr.Open()
		require.NoError(err)
		require.Equal("2.3.0", res.Version)
		require.Equal(1, res.SubsystemCount)
		require.Equal("LLTF-1", res.Subsystem)
		require.Equal(0, res.SubsystemIndex)
		require.True(res.Handle.IsValid())
		require.Equal(lltf.ConnectedState, mgr.State())
		require.Equal("LLTF-1", mgr.Subsystem())

		handle, err := mgr.Handle()
		require.NoError(err)
		require.Equal(res.Handle, handle)
	})

	t.Run("Open Allocation Fails", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		drv.FailWith(lltf.StepOpen, lltf.StatusNoFilterConnected)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		var statusErr *lltf.StatusError
		require.ErrorAs(err, &statusErr)
		require.Equal(lltf.StepOpen, statusErr.Step)
		require.Equal(lltf.StatusNoFilterConnected, statusErr.Status)
		require.Equal(lltf.FailedState, mgr.State())

		// No further vendor calls after the allocation failure
		require.Equal([]lltf.Step{lltf.StepOpen}, drv.Calls())
	})

	t.Run("Count Failure Short-Circuits Connect", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		drv.FailWith(lltf.StepSubsystemCount, lltf.StatusFailure)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		var statusErr *lltf.StatusError
		require.ErrorAs(err, &statusErr)
		require.Equal(lltf.StepSubsystemCount, statusErr.Step)
		require.Equal(lltf.FailedState, mgr.State())

		calls := drv.Calls()
		require.False(containsStep(calls, lltf.StepConnect), "connect must not be attempted: %v", calls)
		require.False(containsStep(calls, lltf.StepSubsystemName))
		require.Equal(0, drv.OpenSessions(), "the allocated handle must be released")
	})

	t.Run("Connect Failure Names Connect", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		drv.FailWith(lltf.StepConnect, lltf.StatusInvalidFilter)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		var statusErr *lltf.StatusError
		require.ErrorAs(err, &statusErr)
		require.Equal(lltf.StepConnect, statusErr.Step, "the reported step must be connect, not an earlier step")
		require.Equal(lltf.FailedState, mgr.State())
		require.Equal(0, drv.OpenSessions(), "the allocated handle must be released")
	})

	t.Run("Reopen Rejected", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		require.NoError(err)

		_, err = mgr.Open()
		require.ErrorIs(err, lltf.ErrInvalidTransition)
	})

	t.Run("Handle Before Open", func(t *testing.T) {
		mgr := lltf.NewSessionManager(lltfsim.New(nil, nil), nil)

		_, err := mgr.Handle()
		require.ErrorIs(err, lltf.ErrSessionNotConnected)
	})
}

func TestSessionManagerClose(t *testing.T) {
	require := require.New(t)

	t.Run("Happy Path", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		require.NoError(err)

		res, err := mgr.Close()
		require.NoError(err)
		require.Equal(lltf.StatusSuccess, res.CloseStatus)
		require.Equal(lltf.StatusSuccess, res.DestroyStatus)
		require.Equal(lltf.ClosedState, mgr.State())
		require.Equal(0, drv.OpenSessions(), "handle must be released")
	})

	t.Run("Close Fails Destroy Still Runs", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		require.NoError(err)

		drv.FailWith(lltf.StepClose, lltf.StatusFailure)

		res, err := mgr.Close()
		var statusErr *lltf.StatusError
		require.ErrorAs(err, &statusErr)
		require.Equal(lltf.StepClose, statusErr.Step)
		require.Equal(lltf.StatusFailure, res.CloseStatus)
		require.Equal(lltf.StatusSuccess, res.DestroyStatus)
		require.Equal(lltf.FailedState, mgr.State())

		require.True(containsStep(drv.Calls(), lltf.StepDestroy), "destroy must be attempted regardless of the close status")
		require.Equal(0, drv.OpenSessions(), "handle must not be leaked")
	})

	t.Run("Destroy Fails", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		require.NoError(err)

		drv.FailWith(lltf.StepDestroy, lltf.StatusInvalidHandle)

		res, err := mgr.Close()
		var statusErr *lltf.StatusError
		require.ErrorAs(err, &statusErr)
		require.Equal(lltf.StepDestroy, statusErr.Step)
		require.Equal(lltf.StatusSuccess, res.CloseStatus)
		require.Equal(lltf.StatusInvalidHandle, res.DestroyStatus)
		require.Equal(lltf.FailedState, mgr.State())
	})

	t.Run("Close Without Open", func(t *testing.T) {
		mgr := lltf.NewSessionManager(lltfsim.New(nil, nil), nil)

		_, err := mgr.Close()
		require.ErrorIs(err, lltf.ErrSessionNotConnected)
	})

	t.Run("Handle Dead After Close", func(t *testing.T) {
		drv := lltfsim.New(nil, nil)
		mgr := lltf.NewSessionManager(drv, nil)

		_, err := mgr.Open()
		require.NoError(err)
		_, err = mgr.Close()
		require.NoError(err)

		_, err = mgr.Handle()
		require.ErrorIs(err, lltf.ErrSessionTerminal)

		_, err = mgr.Close()
		require.Error(err)
	})
}

func TestDeviceCatalog(t *testing.T) {
	require := require.New(t)

	drv := lltfsim.New(nil, nil)
	catalog := lltf.NewDeviceCatalog(drv, nil)

	handle, status := drv.Open()
	require.True(status.IsSuccess())

	count, err := catalog.SubsystemCount(handle)
	require.NoError(err)
	require.Equal(1, count)

	name, err := catalog.SubsystemName(handle, 0)
	require.NoError(err)
	require.Equal("LLTF-1", name)

	_, err = catalog.SubsystemName(handle, 5)
	var statusErr *lltf.StatusError
	require.True(errors.As(err, &statusErr))
	require.Equal(lltf.StepSubsystemName, statusErr.Step)
}
