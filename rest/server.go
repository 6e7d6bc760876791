// Package rest exposes the instrument sequencer as a JSON command API, in the
// shape of the original control endpoint: a single POST /lltf route taking a
// command document.
//
// Commands:
//   - status: composite instrument snapshot.
//   - set_wave: move the filter to a target wavelength (field "wavelength", nm).
//   - grating: composite grating descriptor.
//   - calibrate_grating: trigger grating calibration.
//
// Every request is assigned a correlation ID, echoed in the response and kept
// in a recent-command journal queryable at GET /lltf/commands/{id}. The
// instrument is a single-session resource, so commands serialize.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/baileyji/Wavecal-Automation/lltf"
	"github.com/baileyji/Wavecal-Automation/logger"
)

// Command names accepted by the /lltf endpoint.
const (
	CommandStatus           = "status"
	CommandSetWave          = "set_wave"
	CommandGrating          = "grating"
	CommandCalibrateGrating = "calibrate_grating"
)

// CommandRequest is the JSON document posted to /lltf.
type CommandRequest struct {
	// Command selects the operation.
	Command string `json:"command"`
	// Wavelength is the target wavelength in nm. Required by set_wave.
	Wavelength *float64 `json:"wavelength,omitempty"`
}

// ErrorInfo describes a failed command.
type ErrorInfo struct {
	// Step names the vendor step that failed, when known.
	Step string `json:"step,omitempty"`
	// Status is the vendor status code of the failing step, when known.
	Status int `json:"status,omitempty"`
	// Reason is the translated status text or error text.
	Reason string `json:"reason"`
}

// CommandResponse is the JSON document returned by /lltf.
type CommandResponse struct {
	// RequestID is the correlation ID assigned to the request.
	RequestID string `json:"request_id"`
	// OK reports whether the command succeeded.
	OK bool `json:"ok"`
	// Result carries the command result document on success.
	Result json.RawMessage `json:"result,omitempty"`
	// Error describes the failure when OK is false.
	Error *ErrorInfo `json:"error,omitempty"`
}

// CommandRecord is one journal entry of a handled command.
type CommandRecord struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) ServerOption {
	return func(s *Server) { s.logger = log }
}

// Server handles the JSON command API over one instrument sequencer.
type Server struct {
	mu      sync.Mutex
	seq     *lltf.Sequencer
	logger  logger.Logger
	journal *xsync.MapOf[string, *CommandRecord]
}

// NewServer creates a Server over the given sequencer.
func NewServer(seq *lltf.Sequencer, opts ...ServerOption) (*Server, error) {
	if seq == nil {
		return nil, errors.New("sequencer is nil")
	}

	s := &Server{
		seq:     seq,
		journal: xsync.NewMapOf[string, *CommandRecord](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.GetLogger()
	}

	return s, nil
}

// Handler returns the HTTP handler for the command API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /lltf", s.handleCommand)
	mux.HandleFunc("GET /lltf/commands/{id}", s.handleJournal)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, requestID, http.StatusBadRequest, &ErrorInfo{Reason: "malformed request body: " + err.Error()})
		return
	}

	s.logger.Debug("command received", "request_id", requestID, "command", req.Command)

	result, err := s.dispatch(&req)

	record := &CommandRecord{
		ID:         requestID,
		Command:    req.Command,
		OK:         err == nil,
		ReceivedAt: time.Now().UTC(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	s.journal.Store(requestID, record)

	if err != nil {
		s.writeError(w, requestID, httpStatusFor(err), errorInfoFor(err))
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, requestID, http.StatusInternalServerError, &ErrorInfo{Reason: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, &CommandResponse{RequestID: requestID, OK: true, Result: payload})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	record, ok := s.journal.Load(r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown command id", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(record)
}

// dispatch runs the requested command. Commands serialize: the vendor
// capability is one physical instrument and open/close-phase calls must not
// interleave with query calls.
func (s *Server) dispatch(req *CommandRequest) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Command {
	case CommandStatus:
		return s.seq.Status()

	case CommandSetWave:
		if req.Wavelength == nil {
			return nil, errBadRequest("set_wave requires a wavelength (nm)")
		}
		return s.seq.SetWave(*req.Wavelength)

	case CommandGrating:
		return s.withSession(func() (any, error) {
			return s.seq.GratingStatus()
		})

	case CommandCalibrateGrating:
		return s.withSession(func() (any, error) {
			res, err := s.seq.CalibrateGrating()
			if err != nil {
				return nil, err
			}
			if res.RangeErr != nil {
				return map[string]any{"range_read_failure": res.RangeErr.Error()}, nil
			}
			return res, nil
		})

	default:
		return nil, errBadRequest(fmt.Sprintf("command must be one of: %s, %s, %s, %s",
			CommandStatus, CommandSetWave, CommandGrating, CommandCalibrateGrating))
	}
}

// withSession brackets fn in an open/close pair. The session is closed even
// when fn fails.
func (s *Server) withSession(fn func() (any, error)) (any, error) {
	if _, err := s.seq.Open(); err != nil {
		return nil, err
	}

	result, err := fn()

	if _, closeErr := s.seq.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *Server) writeError(w http.ResponseWriter, requestID string, code int, info *ErrorInfo) {
	s.logger.Warn("command failed", "request_id", requestID, "http_status", code, "reason", info.Reason)
	s.writeJSON(w, code, &CommandResponse{RequestID: requestID, OK: false, Error: info})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

// badRequestError marks client-side command errors.
type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error { return &badRequestError{msg: msg} }

// httpStatusFor maps command errors to HTTP status codes. An out-of-bounds
// wavelength is the caller's fault; everything else on the vendor path is a
// server-side failure.
func httpStatusFor(err error) int {
	var badReq *badRequestError
	if errors.As(err, &badReq) {
		return http.StatusBadRequest
	}

	var statusErr *lltf.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == lltf.StatusInvalidWavelength {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

func errorInfoFor(err error) *ErrorInfo {
	var statusErr *lltf.StatusError
	if errors.As(err, &statusErr) {
		return &ErrorInfo{
			Step:   string(statusErr.Step),
			Status: int(statusErr.Status),
			Reason: statusErr.Status.Describe(),
		}
	}

	return &ErrorInfo{Reason: err.Error()}
}
