package lltf

// Handle is the opaque identifier bound to exactly one open vendor session.
//
// A Handle is exclusively owned by the SessionManager for its lifetime. It is
// invalid before Open succeeds and after Close completes, successfully or not.
type Handle uintptr

// NilHandle is the zero Handle. It never identifies a live session.
const NilHandle Handle = 0

// IsValid returns true if the handle is non-nil.
func (h Handle) IsValid() bool { return h != NilHandle }

// Range is an inclusive wavelength interval in nanometers.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains returns true if nm lies within the range, bounds included.
func (r Range) Contains(nm float64) bool { return nm >= r.Min && nm <= r.Max }

// Driver is the vendor capability surface of the LLTF instrument.
//
// Every operation is synchronous and blocking, and returns a vendor Status
// alongside its value. The driver is process-wide mutable state behind this
// interface so that the session layer can be exercised against a scripted
// implementation instead of the physical instrument.
//
// Implementations do not need to be safe for concurrent use; callers must
// strictly serialize all operations against the same handle.
type Driver interface {
	// Open allocates a vendor session handle.
	Open() (Handle, Status)
	// LibraryVersion reports the vendor SDK version string.
	LibraryVersion() (string, Status)
	// SubsystemCount reports the number of sub-systems the driver can see,
	// connected or not.
	SubsystemCount(h Handle) (int, Status)
	// SubsystemName resolves a sub-system index to its name.
	SubsystemName(h Handle, index int) (string, Status)
	// Connect binds the session to the sub-system at index.
	Connect(h Handle, index int) Status
	// Wavelength reports the central wavelength currently filtered, in nm.
	Wavelength(h Handle) (float64, Status)
	// SetWavelength requests a new central wavelength, in nm.
	SetWavelength(h Handle, nm float64) Status
	// WavelengthRange reports the valid wavelength range of the connected
	// sub-system, in nm.
	WavelengthRange(h Handle) (Range, Status)
	// GratingIndex reports the index of the currently selected grating.
	GratingIndex(h Handle) (int, Status)
	// GratingName resolves a grating index to its name.
	GratingName(h Handle, index int) (string, Status)
	// GratingCount reports the total number of gratings available.
	GratingCount(h Handle) (int, Status)
	// GratingRange reports the nominal wavelength range of the grating at index.
	GratingRange(h Handle, index int) (Range, Status)
	// GratingExtendedRange reports the extended, less precise wavelength range
	// of the grating at index.
	GratingExtendedRange(h Handle, index int) (Range, Status)
	// CalibrateGrating triggers calibration of the selected grating.
	CalibrateGrating(h Handle) Status
	// Close closes the communication channel bound to the handle.
	Close(h Handle) Status
	// Destroy releases the vendor resources allocated by Open.
	Destroy(h Handle) Status
}
