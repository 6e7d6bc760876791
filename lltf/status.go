package lltf

import "fmt"

// Status represents the result code returned by every vendor operation.
// Exactly one value, StatusSuccess, denotes success; every other value is a
// distinct failure kind.
type Status int

// Vendor status codes as reported by the PE filter SDK.
const (
	// StatusSuccess indicates that the operation completed successfully.
	StatusSuccess Status = iota
	// StatusInvalidHandle indicates that the supplied handle is corrupted or has a NULL value.
	StatusInvalidHandle
	// StatusFailure indicates that communication with the system failed.
	StatusFailure
	// StatusMissingConfigFile indicates that the configuration file is missing.
	StatusMissingConfigFile
	// StatusInvalidConfiguration indicates that the configuration file is corrupted.
	StatusInvalidConfiguration
	// StatusInvalidWavelength indicates that the requested wavelength is out of bounds.
	StatusInvalidWavelength
	// StatusMissingHarmonicFilter indicates that no harmonic filter is present in the system configuration.
	StatusMissingHarmonicFilter
	// StatusInvalidFilter indicates that the requested filter does not match any available.
	StatusInvalidFilter
	// StatusUnknown indicates that an unknown status code has been returned by the system.
	StatusUnknown
	// StatusInvalidGrating indicates that the requested grating does not match any available.
	StatusInvalidGrating
	// StatusInvalidBuffer indicates that the output buffer has a NULL value.
	StatusInvalidBuffer
	// StatusInvalidBufferSize indicates that the output buffer size is too small to receive the value.
	StatusInvalidBufferSize
	// StatusUnsupportedConfiguration indicates that the system configuration is not supported by this SDK.
	StatusUnsupportedConfiguration
	// StatusNoFilterConnected indicates that no filter is connected.
	StatusNoFilterConnected
)

// IsSuccess returns true if the status denotes success.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// String returns the vendor mnemonic of the status code.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PE_STATUS(%d)", int(s))
}

// Describe returns the human-readable description of the status code.
//
// It is total over the status code set; an unrecognized code yields a generic
// description rather than an error. Translation is never a failure point.
func (s Status) Describe() string {
	if desc, ok := statusDescriptions[s]; ok {
		return desc
	}
	return fmt.Sprintf("unknown status code %d returned by the system", int(s))
}

var statusNames = map[Status]string{
	StatusSuccess:                  "PE_SUCCESS",
	StatusInvalidHandle:            "PE_INVALID_HANDLE",
	StatusFailure:                  "PE_FAILURE",
	StatusMissingConfigFile:        "PE_MISSING_CONFIGFILE",
	StatusInvalidConfiguration:     "PE_INVALID_CONFIGURATION",
	StatusInvalidWavelength:        "PE_INVALID_WAVELENGTH",
	StatusMissingHarmonicFilter:    "PE_MISSING_HARMONIC_FILTER",
	StatusInvalidFilter:            "PE_INVALID_FILTER",
	StatusUnknown:                  "PE_UNKNOWN",
	StatusInvalidGrating:           "PE_INVALID_GRATING",
	StatusInvalidBuffer:            "PE_INVALID_BUFFER",
	StatusInvalidBufferSize:        "PE_INVALID_BUFFER_SIZE",
	StatusUnsupportedConfiguration: "PE_UNSUPPORTED_CONFIGURATION",
	StatusNoFilterConnected:        "PE_NO_FILTER_CONNECTED",
}

// statusDescriptions carries the vendor documentation text for each code.
var statusDescriptions = map[Status]string{
	StatusSuccess:                  "Success",
	StatusInvalidHandle:            "Supplied handle is corrupted or has a NULL value.",
	StatusFailure:                  "Communication with system failed.",
	StatusMissingConfigFile:        "Configuration file is missing.",
	StatusInvalidConfiguration:     "Configuration file is corrupted.",
	StatusInvalidWavelength:        "Requested wavelength is out of bounds.",
	StatusMissingHarmonicFilter:    "No harmonic filter present in the system configuration.",
	StatusInvalidFilter:            "Requested filter does not match any available.",
	StatusUnknown:                  "An unknown status code has been returned by the system.",
	StatusInvalidGrating:           "Requested grating does not match any available.",
	StatusInvalidBuffer:            "Output buffer has a NULL value.",
	StatusInvalidBufferSize:        "Output buffer size is too small to receive the value.",
	StatusUnsupportedConfiguration: "The system configuration is not supported by this SDK.",
	StatusNoFilterConnected:        "No filter connected.",
}
