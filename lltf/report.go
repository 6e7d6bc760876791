package lltf

import (
	"errors"

	"github.com/baileyji/Wavecal-Automation/logger"
)

// Outcome is the structured record emitted for every public sequencer
// operation, success or failure. An operation never ends silently; a failure
// record always names the step that failed and carries the translated status
// text.
type Outcome struct {
	// Op is the public operation name.
	Op string `json:"op"`
	// OK reports whether the operation succeeded.
	OK bool `json:"ok"`
	// Step names the vendor step that failed. Empty on success.
	Step Step `json:"step,omitempty"`
	// Status is the vendor status of the failing step.
	Status Status `json:"status,omitempty"`
	// Reason is the translated status text, or the error text for failures
	// that did not originate from a vendor status.
	Reason string `json:"reason,omitempty"`
	// Details carries the retrieved values on success, and any independently
	// attributable follow-up notes on either outcome.
	Details map[string]any `json:"details,omitempty"`
}

// Reporter is the sink that receives one Outcome per sequencer operation.
type Reporter interface {
	Report(outcome Outcome)
}

// LogReporter writes outcome records to a logger.
type LogReporter struct {
	logger logger.Logger
}

var _ Reporter = (*LogReporter)(nil)

// NewLogReporter creates a LogReporter over the given logger.
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogReporter{logger: log}
}

// Report logs the outcome, at info level on success and error level on failure.
func (r *LogReporter) Report(outcome Outcome) {
	args := []any{"op", outcome.Op}
	for k, v := range outcome.Details {
		args = append(args, k, v)
	}

	if outcome.OK {
		r.logger.Info("operation succeeded", args...)
		return
	}

	args = append(args, "step", string(outcome.Step), "status", outcome.Status, "reason", outcome.Reason)
	r.logger.Error("operation failed", args...)
}

// successOutcome builds the success record for op.
func successOutcome(op string, details map[string]any) Outcome {
	return Outcome{Op: op, OK: true, Details: details}
}

// failureOutcome builds the failure record for op from err.
//
// A StatusError contributes its step and vendor status; other errors surface
// their text as the reason.
func failureOutcome(op string, err error, details map[string]any) Outcome {
	outcome := Outcome{Op: op, OK: false, Details: details}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		outcome.Step = statusErr.Step
		outcome.Status = statusErr.Status
		outcome.Reason = statusErr.Status.Describe()
	} else if err != nil {
		outcome.Reason = err.Error()
	}

	return outcome
}
