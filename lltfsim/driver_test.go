package lltfsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/baileyji/Wavecal-Automation/lltf"
)

func TestLoadConfig(t *testing.T) {
	require := require.New(t)

	t.Run("Overrides Merge Into Defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		scenario := `
library_version: "3.1.4"
wavelength: 600.0
range:
  min: 400.0
  max: 2400.0
`
		require.NoError(os.WriteFile(path, []byte(scenario), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(err)
		require.Equal("3.1.4", cfg.LibraryVersion)
		require.Equal(600.0, cfg.Wavelength)
		require.Equal(lltf.Range{Min: 400.0, Max: 2400.0}, cfg.Range)
		// untouched sections keep their defaults
		require.Equal([]string{"LLTF-1"}, cfg.Systems)
		require.Len(cfg.Gratings, 1)
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(err)
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		require.NoError(os.WriteFile(path, []byte("systems: [unterminated"), 0o644))

		_, err := LoadConfig(path)
		require.Error(err)
	})

	t.Run("Empty Range Rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		scenario := `
range:
  min: 650.0
  max: 450.0
`
		require.NoError(os.WriteFile(path, []byte(scenario), 0o644))

		_, err := LoadConfig(path)
		require.ErrorContains(err, "range")
	})

	t.Run("No Systems Rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		require.NoError(os.WriteFile(path, []byte("systems: []"), 0o644))

		_, err := LoadConfig(path)
		require.ErrorContains(err, "no systems")
	})
}

func TestDriverSessions(t *testing.T) {
	require := require.New(t)

	t.Run("Open Connect Close Destroy", func(t *testing.T) {
		drv := New(nil, nil)

		h, status := drv.Open()
		require.True(status.IsSuccess())
		require.True(h.IsValid())
		require.Equal(1, drv.OpenSessions())

		require.True(drv.Connect(h, 0).IsSuccess())

		nm, status := drv.Wavelength(h)
		require.True(status.IsSuccess())
		require.Equal(532.0, nm)

		require.True(drv.Close(h).IsSuccess())
		require.True(drv.Destroy(h).IsSuccess())
		require.Equal(0, drv.OpenSessions())
	})

	t.Run("Unknown Handle", func(t *testing.T) {
		drv := New(nil, nil)

		_, status := drv.SubsystemCount(lltf.Handle(42))
		require.Equal(lltf.StatusInvalidHandle, status)
		require.Equal(lltf.StatusInvalidHandle, drv.Connect(lltf.Handle(42), 0))
		require.Equal(lltf.StatusInvalidHandle, drv.Destroy(lltf.Handle(42)))
	})

	t.Run("Disconnected Handle Rejects Reads", func(t *testing.T) {
		drv := New(nil, nil)

		h, _ := drv.Open()
		// connected flag not set yet
		_, status := drv.Wavelength(h)
		require.Equal(lltf.StatusInvalidHandle, status)

		require.True(drv.Connect(h, 0).IsSuccess())
		require.True(drv.Close(h).IsSuccess())

		// close drops the connection but keeps the handle alive
		_, status = drv.Wavelength(h)
		require.Equal(lltf.StatusInvalidHandle, status)
		require.Equal(1, drv.OpenSessions())
	})

	t.Run("Bad Indices", func(t *testing.T) {
		drv := New(nil, nil)

		h, _ := drv.Open()
		require.True(drv.Connect(h, 0).IsSuccess())

		_, status := drv.SubsystemName(h, 3)
		require.Equal(lltf.StatusInvalidFilter, status)

		_, status = drv.GratingName(h, 3)
		require.Equal(lltf.StatusInvalidGrating, status)

		_, rstatus := drv.GratingRange(h, -1)
		require.Equal(lltf.StatusInvalidGrating, rstatus)
	})
}

func TestDriverWavelength(t *testing.T) {
	require := require.New(t)

	drv := New(nil, nil)
	h, _ := drv.Open()
	require.True(drv.Connect(h, 0).IsSuccess())

	t.Run("Set Inside Range", func(t *testing.T) {
		require.True(drv.SetWavelength(h, 600.0).IsSuccess())

		nm, status := drv.Wavelength(h)
		require.True(status.IsSuccess())
		require.Equal(600.0, nm)
	})

	t.Run("Set Outside Range", func(t *testing.T) {
		require.Equal(lltf.StatusInvalidWavelength, drv.SetWavelength(h, 9999.0))

		// the stored wavelength is untouched
		nm, _ := drv.Wavelength(h)
		require.Equal(600.0, nm)
	})
}

func TestDriverScripting(t *testing.T) {
	require := require.New(t)

	t.Run("Scripted Failure Persists Until Cleared", func(t *testing.T) {
		drv := New(nil, nil)
		drv.FailWith(lltf.StepOpen, lltf.StatusNoFilterConnected)

		_, status := drv.Open()
		require.Equal(lltf.StatusNoFilterConnected, status)
		_, status = drv.Open()
		require.Equal(lltf.StatusNoFilterConnected, status)

		drv.FailWith(lltf.StepOpen, lltf.StatusSuccess)
		_, status = drv.Open()
		require.True(status.IsSuccess())
	})

	t.Run("ClearFailures", func(t *testing.T) {
		drv := New(nil, nil)
		drv.FailWith(lltf.StepOpen, lltf.StatusFailure)
		drv.FailWith(lltf.StepClose, lltf.StatusFailure)
		drv.ClearFailures()

		_, status := drv.Open()
		require.True(status.IsSuccess())
	})

	t.Run("Call Order Is Recorded", func(t *testing.T) {
		drv := New(nil, nil)

		h, _ := drv.Open()
		drv.Connect(h, 0)
		drv.Close(h)
		drv.Destroy(h)

		require.Equal([]lltf.Step{
			lltf.StepOpen,
			lltf.StepConnect,
			lltf.StepClose,
			lltf.StepDestroy,
		}, drv.Calls())

		drv.ResetCalls()
		require.Empty(drv.Calls())
	})

	t.Run("Failed Calls Are Recorded Too", func(t *testing.T) {
		drv := New(nil, nil)
		drv.FailWith(lltf.StepOpen, lltf.StatusFailure)

		drv.Open()
		require.Equal([]lltf.Step{lltf.StepOpen}, drv.Calls())
	})
}
