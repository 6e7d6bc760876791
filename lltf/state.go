package lltf

import (
	"sync"
	"sync/atomic"

	"github.com/baileyji/Wavecal-Automation/logger"
)

// SessionState represents the lifecycle stages of an instrument session.
type SessionState uint32

// Session lifecycle states. FailedState is absorbing and reachable from any
// non-terminal state.
const (
	// UnopenedState indicates that no vendor handle has been allocated yet.
	UnopenedState SessionState = iota
	// OpeningState indicates that a handle is allocated and the open sequence is in progress.
	OpeningState
	// ConnectedState indicates that the session is bound to a sub-system and ready for queries.
	ConnectedState
	// ClosingState indicates that the close/destroy sequence is in progress.
	ClosingState
	// ClosedState indicates that the session ended and both release steps succeeded.
	ClosedState
	// FailedState indicates that an operation failed; the session is dead.
	FailedState
)

// IsTerminal returns true if the state is ClosedState or FailedState.
func (s SessionState) IsTerminal() bool { return s == ClosedState || s == FailedState }

// IsConnected returns true if the state is ConnectedState.
func (s SessionState) IsConnected() bool { return s == ConnectedState }

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case UnopenedState:
		return "unopened"
	case OpeningState:
		return "opening"
	case ConnectedState:
		return "connected"
	case ClosingState:
		return "closing"
	case ClosedState:
		return "closed"
	case FailedState:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionStateChangeHandler is invoked when a session state transition occurs.
//
// Note: handlers are invoked in a blocking mode. Take care with long-running
// implementations.
type SessionStateChangeHandler func(prevState SessionState, newState SessionState)

// SessionStateMgr manages the state of one instrument session.
//
// It validates transitions against the session lifecycle and notifies
// registered handlers of state changes. Transitions are safe for concurrent
// observation, although session operations themselves must be serialized.
type SessionStateMgr struct {
	mu       sync.Mutex
	state    atomic.Uint32
	logger   logger.Logger
	handlers []SessionStateChangeHandler
}

// NewSessionStateMgr creates a new SessionStateMgr in UnopenedState.
//
// It accepts optional SessionStateChangeHandler functions that will be invoked
// when the session state changes.
func NewSessionStateMgr(log logger.Logger, handlers ...SessionStateChangeHandler) *SessionStateMgr {
	mgr := &SessionStateMgr{
		logger:   log,
		handlers: make([]SessionStateChangeHandler, 0, len(handlers)),
	}
	mgr.handlers = append(mgr.handlers, handlers...)

	if mgr.logger == nil {
		mgr.logger = logger.GetLogger()
	}

	mgr.state.Store(uint32(UnopenedState))

	return mgr
}

// State returns the current session state.
func (m *SessionStateMgr) State() SessionState {
	return SessionState(m.state.Load())
}

// AddHandler adds one or more SessionStateChangeHandler functions to be invoked on state changes.
func (m *SessionStateMgr) AddHandler(handlers ...SessionStateChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handlers...)
}

// ToOpening transitions the session to OpeningState.
//
// Only allowed from UnopenedState. Returns ErrInvalidTransition otherwise.
func (m *SessionStateMgr) ToOpening() error {
	return m.transition(OpeningState, UnopenedState)
}

// ToConnected transitions the session to ConnectedState.
//
// Only allowed from OpeningState. Returns ErrInvalidTransition otherwise.
func (m *SessionStateMgr) ToConnected() error {
	return m.transition(ConnectedState, OpeningState)
}

// ToClosing transitions the session to ClosingState.
//
// Allowed from ConnectedState, and from FailedState when a live handle still
// needs its release sequence. Returns ErrInvalidTransition otherwise.
func (m *SessionStateMgr) ToClosing() error {
	return m.transition(ClosingState, ConnectedState, FailedState)
}

// ToClosed transitions the session to ClosedState.
//
// Only allowed from ClosingState. Returns ErrInvalidTransition otherwise.
func (m *SessionStateMgr) ToClosed() error {
	return m.transition(ClosedState, ClosingState)
}

// ToFailed transitions the session to the absorbing FailedState.
//
// This transition is allowed from any non-terminal state. If the session is
// already failed the call is a no-op; a closed session cannot fail.
func (m *SessionStateMgr) ToFailed() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	curState := m.State()

	if curState == FailedState {
		return nil // Already failed, no-op
	}
	if curState == ClosedState {
		return ErrInvalidTransition
	}

	m.setState(FailedState)
	m.invokeHandlers(curState, FailedState)

	return nil
}

// transition moves to newState if the current state is one of the allowed states.
func (m *SessionStateMgr) transition(newState SessionState, allowed ...SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	curState := m.State()

	valid := false
	for _, s := range allowed {
		if curState == s {
			valid = true
			break
		}
	}
	if !valid {
		m.logger.Debug("invalid session state transition", "cur_state", curState, "desired_state", newState)
		return ErrInvalidTransition
	}

	m.setState(newState)
	m.invokeHandlers(curState, newState)

	return nil
}

// setState atomically sets the current state to newState.
func (m *SessionStateMgr) setState(newState SessionState) {
	m.state.Store(uint32(newState))
}

// invokeHandlers invokes all registered handlers with the previous and new states.
func (m *SessionStateMgr) invokeHandlers(prevState SessionState, newState SessionState) {
	for _, handler := range m.handlers {
		if handler != nil {
			handler(prevState, newState)
		}
	}
}
