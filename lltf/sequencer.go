package lltf

import (
	"math"
	"sync"

	"github.com/baileyji/Wavecal-Automation/logger"
)

// WavelengthResolution is the filter resolution band in nm, FWHM 5.0 nm over
// the filter bandwidth. A set target within this band of the current
// wavelength is already satisfied.
const WavelengthResolution = 5.0 / 8

// Second-harmonic band: requested wavelengths strictly inside this interval
// are doubled before the set, so the second harmonic lands on the request.
const (
	harmonicBandMin = 500.0
	harmonicBandMax = 1000.0
)

// WavelengthReport carries the two independent wavelength queries.
//
// Each query is reported on its own terms: a range failure does not invalidate
// an obtained wavelength value, and vice versa.
type WavelengthReport struct {
	// Wavelength is the central wavelength in nm. Meaningful when WavelengthErr is nil.
	Wavelength float64 `json:"wavelength"`
	// WavelengthErr reports a failure of the wavelength query.
	WavelengthErr error `json:"-"`
	// Range is the valid wavelength range in nm. Meaningful when RangeErr is nil.
	Range Range `json:"range"`
	// RangeErr reports a failure of the range query.
	RangeErr error `json:"-"`
}

// OK returns true when both queries succeeded.
func (r *WavelengthReport) OK() bool { return r.WavelengthErr == nil && r.RangeErr == nil }

// Snapshot is the composite instrument status document produced by the Status
// operation.
type Snapshot struct {
	Version        string            `json:"library_version"`
	Subsystem      string            `json:"system_name"`
	SubsystemCount int               `json:"system_count"`
	Wavelength     float64           `json:"central_wavelength"`
	Range          Range             `json:"range"`
	Grating        GratingDescriptor `json:"grating"`
}

// SetWaveReport carries the outcome of the high-level SetWave operation.
type SetWaveReport struct {
	// Requested is the wavelength the caller asked for, in nm.
	Requested float64 `json:"requested_nm"`
	// Target is the wavelength actually sent to the instrument; it differs
	// from Requested when second-harmonic doubling applied.
	Target float64 `json:"target_nm"`
	// Doubled reports whether second-harmonic doubling applied.
	Doubled bool `json:"doubled,omitempty"`
	// Skipped reports that the current wavelength was already within the
	// resolution band of the request and no set was issued.
	Skipped bool `json:"skipped,omitempty"`
	// Previous is the wavelength read before the set, in nm.
	Previous float64 `json:"previous_nm"`
	// Committed is the wavelength read back after the set, in nm.
	Committed float64 `json:"committed_nm"`
}

// SequencerOption customizes a Sequencer.
type SequencerOption func(*Sequencer)

// WithLogger sets the logger used by the sequencer and everything it creates.
func WithLogger(log logger.Logger) SequencerOption {
	return func(s *Sequencer) { s.logger = log }
}

// WithReporter sets the sink that receives one outcome record per operation.
//
// The default reporter logs outcomes through the sequencer logger.
func WithReporter(r Reporter) SequencerOption {
	return func(s *Sequencer) { s.reporter = r }
}

// Sequencer orchestrates the session, wavelength, and grating controllers
// into the public instrument operations, applying the fail-fast short-circuit
// policy uniformly and emitting exactly one outcome record per operation.
//
// Operations are serialized: the vendor capability is one physical instrument
// and permits no overlap between steps.
type Sequencer struct {
	mu       sync.Mutex
	drv      Driver
	session  *SessionManager
	waves    *WavelengthController
	gratings *GratingController
	reporter Reporter
	logger   logger.Logger
}

// NewSequencer creates a Sequencer over the given vendor driver.
func NewSequencer(drv Driver, opts ...SequencerOption) (*Sequencer, error) {
	if drv == nil {
		return nil, ErrDriverNil
	}

	s := &Sequencer{drv: drv}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.GetLogger()
	}
	if s.reporter == nil {
		s.reporter = NewLogReporter(s.logger)
	}

	s.waves = NewWavelengthController(drv, s.logger)
	s.gratings = NewGratingController(drv, s.logger)

	return s, nil
}

// Open starts a new instrument session via the fail-fast open sequence.
//
// If a session is already connected it is closed and reopened, in keeping with
// one handle per logical session. The outcome record carries the library
// version, sub-system count, and sub-system name on success, and the failing
// step on failure.
func (s *Sequencer) Open() (*OpenResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.open()
	if err != nil {
		s.reporter.Report(failureOutcome("open", err, nil))
		return nil, err
	}

	s.reporter.Report(successOutcome("open", map[string]any{
		"library_version": res.Version,
		"subsystem_count": res.SubsystemCount,
		"subsystem_name":  res.Subsystem,
	}))

	return res, nil
}

// open runs the open sequence without taking the operation lock and without
// reporting, so composite operations emit a single record of their own.
func (s *Sequencer) open() (*OpenResult, error) {
	if s.session != nil && s.session.State().IsConnected() {
		if _, err := s.session.Close(); err != nil {
			return nil, err
		}
	}

	s.session = NewSessionManager(s.drv, s.logger)

	return s.session.Open()
}

// DescribeStatus translates a vendor status code to its description.
//
// Translation is total and never fails; unknown codes yield a generic text.
func (s *Sequencer) DescribeStatus(status Status) string {
	text := status.Describe()
	s.reporter.Report(successOutcome("describe-status", map[string]any{
		"status": status,
		"text":   text,
	}))

	return text
}

// Wavelength queries the central wavelength and the valid wavelength range of
// the connected session. The two queries are independent and each is reported
// on its own terms; the outcome record is a failure when either query failed,
// naming the first failing step.
func (s *Sequencer) Wavelength() (*WavelengthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.handle()
	if err != nil {
		s.reporter.Report(failureOutcome("wavelength", err, nil))
		return nil, err
	}

	report := s.readWavelength(handle)

	details := map[string]any{}
	if report.WavelengthErr == nil {
		details["wavelength_nm"] = report.Wavelength
	}
	if report.RangeErr == nil {
		details["range_min_nm"] = report.Range.Min
		details["range_max_nm"] = report.Range.Max
	}

	if !report.OK() {
		firstErr := report.WavelengthErr
		if firstErr == nil {
			firstErr = report.RangeErr
		}
		s.reporter.Report(failureOutcome("wavelength", firstErr, details))
		return report, nil
	}

	s.reporter.Report(successOutcome("wavelength", details))

	return report, nil
}

// readWavelength issues the two independent wavelength queries.
func (s *Sequencer) readWavelength(handle Handle) *WavelengthReport {
	report := &WavelengthReport{}
	report.Wavelength, report.WavelengthErr = s.waves.Wavelength(handle)
	report.Range, report.RangeErr = s.waves.Range(handle)

	return report
}

// Calibrate sets the central wavelength of the connected session.
//
// On a successful set exactly one follow-up read reports the value the
// instrument actually committed. A follow-up read failure does not demote the
// set: the outcome still reports the set's success, with a separate
// read-failure note.
func (s *Sequencer) Calibrate(nm float64) (*SetResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.handle()
	if err != nil {
		s.reporter.Report(failureOutcome("calibrate", err, nil))
		return nil, err
	}

	res, err := s.waves.Set(handle, nm)
	if err != nil {
		s.reporter.Report(failureOutcome("calibrate", err, map[string]any{"requested_nm": nm}))
		return nil, err
	}

	details := map[string]any{"requested_nm": res.Requested}
	if res.ReadErr != nil {
		details["read_failure"] = res.ReadErr.Error()
	} else {
		details["committed_nm"] = res.Committed
	}
	s.reporter.Report(successOutcome("calibrate", details))

	return res, nil
}

// GratingStatus reads the composite grating descriptor of the connected
// session: index, name, count, range, and extended range, each independently
// status-checked. The first failure aborts the remaining reads and no partial
// descriptor is ever reported.
func (s *Sequencer) GratingStatus() (*GratingDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.handle()
	if err != nil {
		s.reporter.Report(failureOutcome("grating-status", err, nil))
		return nil, err
	}

	desc, err := s.gratings.Status(handle)
	if err != nil {
		s.reporter.Report(failureOutcome("grating-status", err, nil))
		return nil, err
	}

	s.reporter.Report(successOutcome("grating-status", map[string]any{
		"index":            desc.Index,
		"name":             desc.Name,
		"count":            desc.Count,
		"range_min_nm":     desc.Range.Min,
		"range_max_nm":     desc.Range.Max,
		"ext_range_min_nm": desc.ExtendedRange.Min,
		"ext_range_max_nm": desc.ExtendedRange.Max,
	}))

	return desc, nil
}

// CalibrateGrating triggers grating calibration on the connected session.
//
// On success the wavelength range is re-read and reported, since calibration
// can shift the valid range; on failure no re-read is attempted.
func (s *Sequencer) CalibrateGrating() (*GratingCalibration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	handle, err := s.handle()
	if err != nil {
		s.reporter.Report(failureOutcome("calibrate-grating", err, nil))
		return nil, err
	}

	res, err := s.gratings.Calibrate(handle)
	if err != nil {
		s.reporter.Report(failureOutcome("calibrate-grating", err, nil))
		return nil, err
	}

	details := map[string]any{}
	if res.RangeErr != nil {
		details["range_read_failure"] = res.RangeErr.Error()
	} else {
		details["range_min_nm"] = res.Range.Min
		details["range_max_nm"] = res.Range.Max
	}
	s.reporter.Report(successOutcome("calibrate-grating", details))

	return res, nil
}

// Close ends the current session via the fail-safe close sequence. Both the
// close and destroy steps are always attempted and both statuses surface in
// the outcome record; the overall outcome is a failure when either step
// failed.
func (s *Sequencer) Close() (*CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.close()
	details := map[string]any{}
	if res != nil {
		details["close_status"] = res.CloseStatus
		details["destroy_status"] = res.DestroyStatus
	}
	if err != nil {
		s.reporter.Report(failureOutcome("close", err, details))
		return res, err
	}

	s.reporter.Report(successOutcome("close", details))

	return res, nil
}

// close runs the close sequence without taking the operation lock and without
// reporting.
func (s *Sequencer) close() (*CloseResult, error) {
	if s.session == nil {
		return nil, ErrSessionNotConnected
	}

	return s.session.Close()
}

// Status produces the composite instrument snapshot: it opens a fresh
// session, reads the library metadata, wavelength, range, and grating
// descriptor, and closes the session again. The session is closed even when a
// mid-sequence read fails.
func (s *Sequencer) Status() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.open()
	if err != nil {
		s.reporter.Report(failureOutcome("status", err, nil))
		return nil, err
	}

	snapshot, err := s.readSnapshot(open)

	// The session is released regardless of how the reads went.
	if _, closeErr := s.close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		s.reporter.Report(failureOutcome("status", err, nil))
		return nil, err
	}

	s.reporter.Report(successOutcome("status", map[string]any{
		"library_version": snapshot.Version,
		"system_name":     snapshot.Subsystem,
		"system_count":    snapshot.SubsystemCount,
		"wavelength_nm":   snapshot.Wavelength,
		"range_min_nm":    snapshot.Range.Min,
		"range_max_nm":    snapshot.Range.Max,
		"grating":         snapshot.Grating.Name,
	}))

	return snapshot, nil
}

// readSnapshot reads the wavelength and grating sections of the snapshot on
// the open session.
func (s *Sequencer) readSnapshot(open *OpenResult) (*Snapshot, error) {
	snapshot := &Snapshot{
		Version:        open.Version,
		Subsystem:      open.Subsystem,
		SubsystemCount: open.SubsystemCount,
	}

	nm, err := s.waves.Wavelength(open.Handle)
	if err != nil {
		return nil, err
	}
	snapshot.Wavelength = nm

	rng, err := s.waves.Range(open.Handle)
	if err != nil {
		return nil, err
	}
	snapshot.Range = rng

	desc, err := s.gratings.Status(open.Handle)
	if err != nil {
		return nil, err
	}
	snapshot.Grating = *desc

	return snapshot, nil
}

// SetWave moves the filter to the requested central wavelength inside a fresh
// session.
//
// When the current wavelength is already within the resolution band of the
// request, no set is issued. Requests strictly inside the (500, 1000) nm band
// are doubled so the second harmonic satisfies them. After a set, the
// wavelength is read back and must land within the resolution band of the
// target, or ErrWavelengthNotApplied is returned. The session is closed
// regardless of the outcome.
func (s *Sequencer) SetWave(nm float64) (*SetWaveReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, err := s.open()
	if err != nil {
		s.reporter.Report(failureOutcome("set-wave", err, nil))
		return nil, err
	}

	report, err := s.setWave(open.Handle, nm)

	if _, closeErr := s.close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		s.reporter.Report(failureOutcome("set-wave", err, map[string]any{"requested_nm": nm}))
		return nil, err
	}

	s.reporter.Report(successOutcome("set-wave", map[string]any{
		"requested_nm": report.Requested,
		"target_nm":    report.Target,
		"doubled":      report.Doubled,
		"skipped":      report.Skipped,
		"committed_nm": report.Committed,
	}))

	return report, nil
}

// setWave performs the set sequence on an open session.
func (s *Sequencer) setWave(handle Handle, nm float64) (*SetWaveReport, error) {
	report := &SetWaveReport{Requested: nm, Target: nm}

	current, err := s.waves.Wavelength(handle)
	if err != nil {
		return nil, err
	}
	report.Previous = current

	if math.Abs(current-nm) < WavelengthResolution {
		s.logger.Debug("wavelength already set", "wavelength_nm", current)
		report.Skipped = true
		report.Committed = current

		return report, nil
	}

	if nm > harmonicBandMin && nm < harmonicBandMax {
		report.Target = nm * 2
		report.Doubled = true
	}

	res, err := s.waves.Set(handle, report.Target)
	if err != nil {
		return nil, err
	}
	if res.ReadErr != nil {
		return nil, res.ReadErr
	}
	report.Committed = res.Committed

	if math.Abs(res.Committed-report.Target) >= WavelengthResolution {
		return nil, ErrWavelengthNotApplied
	}

	return report, nil
}

// handle returns the live session handle or the session error for the current
// sequencer state.
func (s *Sequencer) handle() (Handle, error) {
	if s.session == nil {
		return NilHandle, ErrSessionNotConnected
	}
	return s.session.Handle()
}
