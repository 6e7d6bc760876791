// Package client provides a Go client for the LLTF command API served by the
// rest package.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/rest"
)

const defaultTimeout = 10 * time.Second

// APIError is a command failure reported by the server.
type APIError struct {
	// HTTPStatus is the HTTP status code of the response.
	HTTPStatus int
	// Step names the vendor step that failed, when known.
	Step string
	// Status is the vendor status code of the failing step, when known.
	Status int
	// Reason is the translated status text or error text.
	Reason string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("lltf server: %s: %s", e.Step, e.Reason)
	}
	return fmt.Sprintf("lltf server: %s", e.Reason)
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout. The default is 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// Client issues commands against an LLTF control server.
type Client struct {
	base  string
	httpc *http.Client
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:50001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Status fetches the composite instrument snapshot.
func (c *Client) Status(ctx context.Context) (*lltf.Snapshot, error) {
	var snapshot lltf.Snapshot
	if err := c.post(ctx, rest.CommandRequest{Command: rest.CommandStatus}, &snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// Wavelength fetches the current central wavelength in nm.
func (c *Client) Wavelength(ctx context.Context) (float64, error) {
	snapshot, err := c.Status(ctx)
	if err != nil {
		return 0, err
	}

	return snapshot.Wavelength, nil
}

// SetWavelength moves the filter to the target wavelength in nm.
func (c *Client) SetWavelength(ctx context.Context, nm float64) (*lltf.SetWaveReport, error) {
	var report lltf.SetWaveReport
	req := rest.CommandRequest{Command: rest.CommandSetWave, Wavelength: &nm}
	if err := c.post(ctx, req, &report); err != nil {
		return nil, err
	}

	return &report, nil
}

// Grating fetches the composite grating descriptor.
func (c *Client) Grating(ctx context.Context) (*lltf.GratingDescriptor, error) {
	var desc lltf.GratingDescriptor
	if err := c.post(ctx, rest.CommandRequest{Command: rest.CommandGrating}, &desc); err != nil {
		return nil, err
	}

	return &desc, nil
}

// CalibrateGrating triggers grating calibration and returns the re-read
// wavelength range.
func (c *Client) CalibrateGrating(ctx context.Context) (*lltf.GratingCalibration, error) {
	var res lltf.GratingCalibration
	if err := c.post(ctx, rest.CommandRequest{Command: rest.CommandCalibrateGrating}, &res); err != nil {
		return nil, err
	}

	return &res, nil
}

// post issues one command and decodes the result document into out.
func (c *Client) post(ctx context.Context, cmd rest.CommandRequest, out any) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/lltf", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("lltf server unreachable: %w", err)
	}
	defer resp.Body.Close()

	var cr rest.CommandResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return fmt.Errorf("malformed server response: %w", err)
	}

	if !cr.OK {
		apiErr := &APIError{HTTPStatus: resp.StatusCode, Reason: "undetermined"}
		if cr.Error != nil {
			apiErr.Step = cr.Error.Step
			apiErr.Status = cr.Error.Status
			apiErr.Reason = cr.Error.Reason
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(cr.Result, out); err != nil {
			return fmt.Errorf("malformed command result: %w", err)
		}
	}

	return nil
}
