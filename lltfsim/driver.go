// Package lltfsim provides an in-memory implementation of the lltf.Driver
// vendor capability, so the session and sequencing layers can run and be
// tested without the physical instrument or its SDK.
//
// The simulated instrument is described by a Config scenario. Individual
// vendor calls can be scripted to fail with a chosen status via FailWith, and
// the driver records the order of the calls it receives for verification.
package lltfsim

import (
	"sync"

	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/logger"
)

// Driver is a simulated lltf.Driver.
type Driver struct {
	mu         sync.Mutex
	cfg        *Config
	logger     logger.Logger
	wavelength float64
	nextHandle lltf.Handle
	sessions   map[lltf.Handle]*session
	failures   map[lltf.Step]lltf.Status
	calls      []lltf.Step
}

type session struct {
	connected bool
	subsystem int
}

var _ lltf.Driver = (*Driver)(nil)

// New creates a simulated driver for the given scenario. A nil cfg uses
// DefaultConfig.
func New(cfg *Config, log logger.Logger) *Driver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Driver{
		cfg:        cfg,
		logger:     log,
		wavelength: cfg.Wavelength,
		nextHandle: 1,
		sessions:   make(map[lltf.Handle]*session),
		failures:   make(map[lltf.Step]lltf.Status),
	}
}

// FailWith scripts the vendor call identified by step to return status until
// cleared. Scripting lltf.StatusSuccess clears the failure.
func (d *Driver) FailWith(step lltf.Step, status lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status.IsSuccess() {
		delete(d.failures, step)
		return
	}
	d.failures[step] = status
}

// ClearFailures removes all scripted failures.
func (d *Driver) ClearFailures() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures = make(map[lltf.Step]lltf.Status)
}

// Calls returns the order of vendor calls received so far.
func (d *Driver) Calls() []lltf.Step {
	d.mu.Lock()
	defer d.mu.Unlock()

	calls := make([]lltf.Step, len(d.calls))
	copy(calls, d.calls)

	return calls
}

// ResetCalls clears the recorded call order.
func (d *Driver) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// OpenSessions returns the number of live handles, for leak checks.
func (d *Driver) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.sessions)
}

// record logs the call and returns the scripted status for it, or success.
func (d *Driver) record(step lltf.Step) lltf.Status {
	d.calls = append(d.calls, step)
	if status, ok := d.failures[step]; ok {
		d.logger.Debug("scripted failure", "call", string(step), "status", status)
		return status
	}

	return lltf.StatusSuccess
}

// session returns the session bound to h, or nil when the handle is unknown.
func (d *Driver) session(h lltf.Handle) *session {
	return d.sessions[h]
}

func (d *Driver) Open() (lltf.Handle, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepOpen); !status.IsSuccess() {
		return lltf.NilHandle, status
	}

	h := d.nextHandle
	d.nextHandle++
	d.sessions[h] = &session{}

	return h, lltf.StatusSuccess
}

func (d *Driver) LibraryVersion() (string, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepLibraryVersion); !status.IsSuccess() {
		return "", status
	}

	return d.cfg.LibraryVersion, lltf.StatusSuccess
}

func (d *Driver) SubsystemCount(h lltf.Handle) (int, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepSubsystemCount); !status.IsSuccess() {
		return 0, status
	}
	if d.session(h) == nil {
		return 0, lltf.StatusInvalidHandle
	}

	return len(d.cfg.Systems), lltf.StatusSuccess
}

func (d *Driver) SubsystemName(h lltf.Handle, index int) (string, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepSubsystemName); !status.IsSuccess() {
		return "", status
	}
	if d.session(h) == nil {
		return "", lltf.StatusInvalidHandle
	}
	if index < 0 || index >= len(d.cfg.Systems) {
		return "", lltf.StatusInvalidFilter
	}

	return d.cfg.Systems[index], lltf.StatusSuccess
}

func (d *Driver) Connect(h lltf.Handle, index int) lltf.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepConnect); !status.IsSuccess() {
		return status
	}
	sess := d.session(h)
	if sess == nil {
		return lltf.StatusInvalidHandle
	}
	if index < 0 || index >= len(d.cfg.Systems) {
		return lltf.StatusInvalidFilter
	}

	sess.connected = true
	sess.subsystem = index

	return lltf.StatusSuccess
}

func (d *Driver) Wavelength(h lltf.Handle) (float64, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGetWavelength); !status.IsSuccess() {
		return 0, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return 0, lltf.StatusInvalidHandle
	}

	return d.wavelength, lltf.StatusSuccess
}

func (d *Driver) SetWavelength(h lltf.Handle, nm float64) lltf.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepSetWavelength); !status.IsSuccess() {
		return status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return lltf.StatusInvalidHandle
	}
	if !d.cfg.Range.Contains(nm) {
		return lltf.StatusInvalidWavelength
	}

	d.wavelength = nm

	return lltf.StatusSuccess
}

func (d *Driver) WavelengthRange(h lltf.Handle) (lltf.Range, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepWavelengthRange); !status.IsSuccess() {
		return lltf.Range{}, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return lltf.Range{}, lltf.StatusInvalidHandle
	}

	return d.cfg.Range, lltf.StatusSuccess
}

func (d *Driver) GratingIndex(h lltf.Handle) (int, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGratingIndex); !status.IsSuccess() {
		return 0, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return 0, lltf.StatusInvalidHandle
	}

	// The simulated instrument always has the first grating selected.
	return 0, lltf.StatusSuccess
}

func (d *Driver) GratingName(h lltf.Handle, index int) (string, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGratingName); !status.IsSuccess() {
		return "", status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return "", lltf.StatusInvalidHandle
	}
	if index < 0 || index >= len(d.cfg.Gratings) {
		return "", lltf.StatusInvalidGrating
	}

	return d.cfg.Gratings[index].Name, lltf.StatusSuccess
}

func (d *Driver) GratingCount(h lltf.Handle) (int, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGratingCount); !status.IsSuccess() {
		return 0, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return 0, lltf.StatusInvalidHandle
	}

	return len(d.cfg.Gratings), lltf.StatusSuccess
}

func (d *Driver) GratingRange(h lltf.Handle, index int) (lltf.Range, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGratingRange); !status.IsSuccess() {
		return lltf.Range{}, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return lltf.Range{}, lltf.StatusInvalidHandle
	}
	if index < 0 || index >= len(d.cfg.Gratings) {
		return lltf.Range{}, lltf.StatusInvalidGrating
	}

	return d.cfg.Gratings[index].Range, lltf.StatusSuccess
}

func (d *Driver) GratingExtendedRange(h lltf.Handle, index int) (lltf.Range, lltf.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepGratingExtendedRange); !status.IsSuccess() {
		return lltf.Range{}, status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return lltf.Range{}, lltf.StatusInvalidHandle
	}
	if index < 0 || index >= len(d.cfg.Gratings) {
		return lltf.Range{}, lltf.StatusInvalidGrating
	}

	return d.cfg.Gratings[index].ExtendedRange, lltf.StatusSuccess
}

func (d *Driver) CalibrateGrating(h lltf.Handle) lltf.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepCalibrateGrating); !status.IsSuccess() {
		return status
	}
	if sess := d.session(h); sess == nil || !sess.connected {
		return lltf.StatusInvalidHandle
	}

	return lltf.StatusSuccess
}

func (d *Driver) Close(h lltf.Handle) lltf.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepClose); !status.IsSuccess() {
		return status
	}
	sess := d.session(h)
	if sess == nil {
		return lltf.StatusInvalidHandle
	}
	sess.connected = false

	return lltf.StatusSuccess
}

func (d *Driver) Destroy(h lltf.Handle) lltf.Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	if status := d.record(lltf.StepDestroy); !status.IsSuccess() {
		return status
	}
	if d.session(h) == nil {
		return lltf.StatusInvalidHandle
	}
	delete(d.sessions, h)

	return lltf.StatusSuccess
}
