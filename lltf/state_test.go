package lltf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionStateTransitions(t *testing.T) {
	require := require.New(t)

	t.Run("Initial State", func(t *testing.T) {
		mgr := NewSessionStateMgr(nil)
		require.Equal(UnopenedState, mgr.State())
	})

	t.Run("Lifecycle", func(t *testing.T) {
		stateChangeCount := 0
		mgr := NewSessionStateMgr(nil)
		mgr.AddHandler(func(prevState SessionState, newState SessionState) { stateChangeCount++ })

		require.NoError(mgr.ToOpening())
		require.Equal(OpeningState, mgr.State())
		require.Equal(1, stateChangeCount)

		require.NoError(mgr.ToConnected())
		require.Equal(ConnectedState, mgr.State())
		require.True(mgr.State().IsConnected())
		require.Equal(2, stateChangeCount)

		require.NoError(mgr.ToClosing())
		require.NoError(mgr.ToClosed())
		require.Equal(ClosedState, mgr.State())
		require.True(mgr.State().IsTerminal())
		require.Equal(4, stateChangeCount)
	})

	t.Run("Invalid Transitions", func(t *testing.T) {
		mgr := NewSessionStateMgr(nil)

		require.ErrorIs(mgr.ToConnected(), ErrInvalidTransition)
		require.ErrorIs(mgr.ToClosing(), ErrInvalidTransition)
		require.ErrorIs(mgr.ToClosed(), ErrInvalidTransition)

		require.NoError(mgr.ToOpening())
		require.ErrorIs(mgr.ToOpening(), ErrInvalidTransition)
		require.ErrorIs(mgr.ToClosed(), ErrInvalidTransition)
	})

	t.Run("Failed Is Absorbing", func(t *testing.T) {
		mgr := NewSessionStateMgr(nil)

		require.NoError(mgr.ToOpening())
		require.NoError(mgr.ToFailed())
		require.Equal(FailedState, mgr.State())
		require.True(mgr.State().IsTerminal())

		// No-op when already failed
		require.NoError(mgr.ToFailed())

		// No way back to the open-sequence states
		require.ErrorIs(mgr.ToOpening(), ErrInvalidTransition)
		require.ErrorIs(mgr.ToConnected(), ErrInvalidTransition)
	})

	t.Run("Failed Allows Close", func(t *testing.T) {
		// A failed session with a live handle still runs its release sequence.
		mgr := NewSessionStateMgr(nil)

		require.NoError(mgr.ToOpening())
		require.NoError(mgr.ToFailed())
		require.NoError(mgr.ToClosing())
		require.NoError(mgr.ToClosed())
	})

	t.Run("Closed Cannot Fail", func(t *testing.T) {
		mgr := NewSessionStateMgr(nil)

		require.NoError(mgr.ToOpening())
		require.NoError(mgr.ToConnected())
		require.NoError(mgr.ToClosing())
		require.NoError(mgr.ToClosed())
		require.ErrorIs(mgr.ToFailed(), ErrInvalidTransition)
	})
}

func TestSessionStateString(t *testing.T) {
	require := require.New(t)

	require.Equal("unopened", UnopenedState.String())
	require.Equal("opening", OpeningState.String())
	require.Equal("connected", ConnectedState.String())
	require.Equal("closing", ClosingState.String())
	require.Equal("closed", ClosedState.String())
	require.Equal("failed", FailedState.String())
	require.Equal("unknown", SessionState(99).String())
}
