// Package lltf drives the LLTF Contrast tunable filter through the
// status-coded vendor capability of the PE filter SDK.
//
// The package is organized around one core idea: a staged sequence of
// dependent vendor operations, where every step is gated by the status code of
// the prior step and any failure short-circuits the remainder with a distinct
// diagnostic.
//
// Components:
//   - Status: the vendor status code set and its human-readable translation.
//   - Driver: the injectable vendor capability surface, one method per SDK call.
//   - DeviceCatalog: sub-system enumeration and name resolution.
//   - SessionManager: the session lifecycle state machine. The open sequence is
//     fail-fast (abort on the first failure); the close sequence is fail-safe
//     (close and destroy are both always attempted, so a close failure never
//     leaks the handle).
//   - WavelengthController: wavelength and range queries, and the
//     set-then-re-read calibration.
//   - GratingController: the five-read atomic grating descriptor and grating
//     calibration.
//   - Sequencer: the public operations, each emitting exactly one structured
//     Outcome record to a Reporter sink.
//
// Failures are vendor Status values carried through the error channel as
// StatusError; there is no retry anywhere, since the instrument side effects
// of a partial command are unknown.
//
// Every operation is synchronous and blocking. A session handle is a
// single-owner resource and all operations against it are strictly
// serialized; the Sequencer enforces this with an operation lock.
package lltf
