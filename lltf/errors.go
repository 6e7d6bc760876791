package lltf

import (
	"errors"
	"fmt"
)

var (
	// ErrDriverNil indicates that a nil Driver was provided.
	ErrDriverNil = errors.New("driver is nil")

	// ErrInvalidTransition is returned when an attempt is made to transition the
	// session state to an invalid state.
	ErrInvalidTransition = errors.New("invalid session state transition")

	// ErrSessionNotConnected indicates that an operation other than Open was
	// invoked while no session is connected.
	ErrSessionNotConnected = errors.New("session is not connected")

	// ErrSessionTerminal indicates that an operation other than Close was
	// invoked after the session reached a terminal state.
	ErrSessionTerminal = errors.New("session is closed or failed")

	// ErrWavelengthNotApplied indicates that the wavelength read back after a
	// set does not reflect the requested wavelength.
	ErrWavelengthNotApplied = errors.New("retrieved wavelength does not reflect the set wavelength")
)

// Step identifies one vendor call within a multi-step sequence. Failure
// outcomes name the step that failed.
type Step string

// Steps of the session and query sequences.
const (
	StepOpen                 Step = "open"
	StepSubsystemCount       Step = "subsystem-count"
	StepSubsystemName        Step = "subsystem-name"
	StepLibraryVersion       Step = "library-version"
	StepConnect              Step = "connect"
	StepGetWavelength        Step = "get-wavelength"
	StepSetWavelength        Step = "set-wavelength"
	StepWavelengthRange      Step = "wavelength-range"
	StepGratingIndex         Step = "grating-index"
	StepGratingName          Step = "grating-name"
	StepGratingCount         Step = "grating-count"
	StepGratingRange         Step = "grating-range"
	StepGratingExtendedRange Step = "grating-extended-range"
	StepCalibrateGrating     Step = "calibrate-grating"
	StepClose                Step = "close"
	StepDestroy              Step = "destroy"
)

// StatusError reports a vendor operation that returned a non-success status.
//
// It carries both the failing step and the vendor status so that call sites
// and outcome records can attribute the failure precisely.
type StatusError struct {
	Step   Step
	Status Status
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Step, e.Status, e.Status.Describe())
}

// statusErr returns nil when status denotes success, or a StatusError naming
// the step otherwise.
func statusErr(step Step, status Status) error {
	if status.IsSuccess() {
		return nil
	}
	return &StatusError{Step: step, Status: status}
}
