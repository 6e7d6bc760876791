package lltf

import (
	"github.com/baileyji/Wavecal-Automation/logger"
)

// OpenResult carries the session metadata reported when the open sequence
// completes.
type OpenResult struct {
	// Version is the vendor library version string.
	Version string `json:"library_version"`
	// SubsystemCount is the number of sub-systems visible to the driver.
	SubsystemCount int `json:"subsystem_count"`
	// SubsystemIndex is the index of the connected sub-system.
	SubsystemIndex int `json:"subsystem_index"`
	// Subsystem is the name of the connected sub-system.
	Subsystem string `json:"subsystem_name"`
	// Handle identifies the open vendor session.
	Handle Handle `json:"-"`
}

// CloseResult carries the statuses of both steps of the close sequence.
// Both steps are always attempted on a live handle.
type CloseResult struct {
	// CloseStatus is the vendor status of the close step.
	CloseStatus Status `json:"close_status"`
	// DestroyStatus is the vendor status of the destroy step.
	DestroyStatus Status `json:"destroy_status"`
}

// SessionManager owns the lifecycle of one vendor session handle.
//
// The open sequence is strictly fail-fast: each failure aborts the remaining
// steps, because a session cannot be usable without all of them. The close
// sequence is fail-safe: close and destroy are both always attempted, because
// leaking the handle on a partial close failure is worse than a secondary
// reported error.
//
// A SessionManager drives exactly one session; operations on it must be
// serialized by the caller.
type SessionManager struct {
	drv     Driver
	catalog *DeviceCatalog
	state   *SessionStateMgr
	logger  logger.Logger
	handle  Handle
	name    string
}

// NewSessionManager creates a SessionManager over the given driver.
func NewSessionManager(drv Driver, log logger.Logger) *SessionManager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &SessionManager{
		drv:     drv,
		catalog: NewDeviceCatalog(drv, log),
		state:   NewSessionStateMgr(log),
		logger:  log,
	}
}

// State returns the current session state.
func (m *SessionManager) State() SessionState { return m.state.State() }

// StateMgr returns the session state manager, for registering state change handlers.
func (m *SessionManager) StateMgr() *SessionStateMgr { return m.state }

// Handle returns the live session handle, or an error when the session is not
// connected. Only Open may be invoked while the handle is invalid.
func (m *SessionManager) Handle() (Handle, error) {
	switch m.state.State() {
	case ConnectedState:
		return m.handle, nil
	case ClosedState, FailedState:
		return NilHandle, ErrSessionTerminal
	default:
		return NilHandle, ErrSessionNotConnected
	}
}

// Subsystem returns the name of the connected sub-system. It is empty until
// the open sequence has resolved it.
func (m *SessionManager) Subsystem() string { return m.name }

// Open runs the fail-fast open sequence: allocate a handle, resolve sub-system
// count and name, read the library version, and connect to the first
// sub-system.
//
// Any non-success status fails the session and aborts the remaining steps; the
// returned error names the step that failed. On success the session is
// connected and the returned OpenResult carries the session metadata.
func (m *SessionManager) Open() (*OpenResult, error) {
	if err := m.state.ToOpening(); err != nil {
		return nil, err
	}

	handle, status := m.drv.Open()
	if !status.IsSuccess() {
		m.fail(StepOpen, status)
		return nil, statusErr(StepOpen, status)
	}
	m.handle = handle

	count, err := m.catalog.SubsystemCount(handle)
	if err != nil {
		m.failErr(err)
		return nil, err
	}

	// Index 0 is the first index reported as available.
	const subsystemIndex = 0
	name, err := m.catalog.SubsystemName(handle, subsystemIndex)
	if err != nil {
		m.failErr(err)
		return nil, err
	}

	version, status := m.drv.LibraryVersion()
	if !status.IsSuccess() {
		m.fail(StepLibraryVersion, status)
		return nil, statusErr(StepLibraryVersion, status)
	}

	if status := m.drv.Connect(handle, subsystemIndex); !status.IsSuccess() {
		m.fail(StepConnect, status)
		return nil, statusErr(StepConnect, status)
	}

	if err := m.state.ToConnected(); err != nil {
		return nil, err
	}
	m.name = name

	m.logger.Info("session opened",
		"library_version", version,
		"subsystem_count", count,
		"subsystem_name", name,
	)

	return &OpenResult{
		Version:        version,
		SubsystemCount: count,
		SubsystemIndex: subsystemIndex,
		Subsystem:      name,
		Handle:         handle,
	}, nil
}

// Close runs the fail-safe close sequence on the live handle.
//
// Close and destroy are both always attempted; destruction must not be skipped
// on a reported close failure. Both statuses are surfaced in the returned
// CloseResult. The session ends in ClosedState only when both steps succeed;
// the handle is dead afterwards either way.
func (m *SessionManager) Close() (*CloseResult, error) {
	if !m.handle.IsValid() {
		m.logger.Debug("already closed")
		return nil, ErrSessionNotConnected
	}

	if err := m.state.ToClosing(); err != nil {
		return nil, err
	}

	res := &CloseResult{}
	res.CloseStatus = m.drv.Close(m.handle)
	// Destroy runs regardless of the close status; skipping it would leak the
	// vendor handle.
	res.DestroyStatus = m.drv.Destroy(m.handle)
	m.handle = NilHandle

	if !res.CloseStatus.IsSuccess() {
		_ = m.state.ToFailed()
		m.logger.Error("close failed", "status", res.CloseStatus, "destroy_status", res.DestroyStatus)
		return res, statusErr(StepClose, res.CloseStatus)
	}
	if !res.DestroyStatus.IsSuccess() {
		_ = m.state.ToFailed()
		m.logger.Error("destroy failed", "status", res.DestroyStatus)
		return res, statusErr(StepDestroy, res.DestroyStatus)
	}

	if err := m.state.ToClosed(); err != nil {
		return res, err
	}
	m.logger.Info("session closed")

	return res, nil
}

// fail transitions the session to FailedState after a vendor step failed.
func (m *SessionManager) fail(step Step, status Status) {
	_ = m.state.ToFailed()
	m.logger.Error("open sequence failed", "step", string(step), "status", status, "reason", status.Describe())
	m.releaseOnFailure()
}

func (m *SessionManager) failErr(err error) {
	_ = m.state.ToFailed()
	m.logger.Error("open sequence failed", "error", err)
	m.releaseOnFailure()
}

// releaseOnFailure releases the vendor handle of a partially opened session.
// Close and destroy are both attempted; the session stays failed either way.
func (m *SessionManager) releaseOnFailure() {
	if !m.handle.IsValid() {
		return
	}

	closeStatus := m.drv.Close(m.handle)
	destroyStatus := m.drv.Destroy(m.handle)
	if !closeStatus.IsSuccess() || !destroyStatus.IsSuccess() {
		m.logger.Error("release after failed open",
			"close_status", closeStatus,
			"destroy_status", destroyStatus,
		)
	}
	m.handle = NilHandle
}
