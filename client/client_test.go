package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baileyji/Wavecal-Automation/client"
	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/lltfsim"
	"github.com/baileyji/Wavecal-Automation/rest"
)

func newTestClient(t *testing.T, cfg *lltfsim.Config) (*client.Client, *lltfsim.Driver) {
	t.Helper()

	drv := lltfsim.New(cfg, nil)
	seq, err := lltf.NewSequencer(drv)
	require.NoError(t, err)
	srv, err := rest.NewServer(seq)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return client.New(ts.URL, client.WithTimeout(5*time.Second)), drv
}

func TestClientStatus(t *testing.T) {
	require := require.New(t)

	cli, drv := newTestClient(t, nil)

	snapshot, err := cli.Status(context.Background())
	require.NoError(err)
	require.Equal("2.3.0", snapshot.Version)
	require.Equal("LLTF-1", snapshot.Subsystem)
	require.Equal(532.0, snapshot.Wavelength)
	require.Equal(lltf.Range{Min: 450.0, Max: 650.0}, snapshot.Range)
	require.Equal("VIS", snapshot.Grating.Name)
	require.Equal(0, drv.OpenSessions())
}

func TestClientWavelength(t *testing.T) {
	require := require.New(t)

	cli, _ := newTestClient(t, nil)

	nm, err := cli.Wavelength(context.Background())
	require.NoError(err)
	require.Equal(532.0, nm)
}

func TestClientSetWavelength(t *testing.T) {
	require := require.New(t)

	t.Run("Moves The Filter", func(t *testing.T) {
		cli, _ := newTestClient(t, nil)

		report, err := cli.SetWavelength(context.Background(), 480.0)
		require.NoError(err)
		require.Equal(480.0, report.Requested)
		require.Equal(480.0, report.Committed)

		nm, err := cli.Wavelength(context.Background())
		require.NoError(err)
		require.Equal(480.0, nm)
	})

	t.Run("Out Of Bounds Maps To APIError", func(t *testing.T) {
		cli, _ := newTestClient(t, nil)

		_, err := cli.SetWavelength(context.Background(), 100.0)
		var apiErr *client.APIError
		require.ErrorAs(err, &apiErr)
		require.Equal(http.StatusBadRequest, apiErr.HTTPStatus)
		require.Equal("set-wavelength", apiErr.Step)
		require.Equal(int(lltf.StatusInvalidWavelength), apiErr.Status)
		require.Equal("Requested wavelength is out of bounds.", apiErr.Reason)
	})
}

func TestClientGrating(t *testing.T) {
	require := require.New(t)

	cli, drv := newTestClient(t, nil)

	desc, err := cli.Grating(context.Background())
	require.NoError(err)
	require.Equal("VIS", desc.Name)
	require.Equal(1, desc.Count)
	require.Equal(lltf.Range{Min: 400.0, Max: 1000.0}, desc.ExtendedRange)
	require.Equal(0, drv.OpenSessions())
}

func TestClientCalibrateGrating(t *testing.T) {
	require := require.New(t)

	t.Run("Success", func(t *testing.T) {
		cli, _ := newTestClient(t, nil)

		res, err := cli.CalibrateGrating(context.Background())
		require.NoError(err)
		require.Equal(lltf.Range{Min: 450.0, Max: 650.0}, res.Range)
	})

	t.Run("Vendor Failure Surfaces Step And Status", func(t *testing.T) {
		cli, drv := newTestClient(t, nil)
		drv.FailWith(lltf.StepCalibrateGrating, lltf.StatusFailure)

		_, err := cli.CalibrateGrating(context.Background())
		var apiErr *client.APIError
		require.ErrorAs(err, &apiErr)
		require.Equal(http.StatusInternalServerError, apiErr.HTTPStatus)
		require.Equal("calibrate-grating", apiErr.Step)
		require.Equal("Communication with system failed.", apiErr.Reason)
	})
}

func TestClientUnreachableServer(t *testing.T) {
	require := require.New(t)

	cli := client.New("http://127.0.0.1:1", client.WithTimeout(time.Second))

	_, err := cli.Status(context.Background())
	require.Error(err)
	require.ErrorContains(err, "unreachable")
}

func TestClientMalformedServerResponse(t *testing.T) {
	require := require.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(ts.Close)

	cli := client.New(ts.URL)
	_, err := cli.Status(context.Background())
	require.ErrorContains(err, "malformed server response")
}
