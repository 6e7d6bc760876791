package lltf

import "github.com/baileyji/Wavecal-Automation/logger"

// GratingDescriptor is one atomic status snapshot of the selected grating.
//
// All fields are read together; a descriptor is only ever reported when every
// read succeeded.
type GratingDescriptor struct {
	// Index is the position of the selected grating.
	Index int `json:"index"`
	// Name is the grating name.
	Name string `json:"name"`
	// Count is the total number of gratings available.
	Count int `json:"count"`
	// Range is the nominal wavelength range of the grating, in nm.
	Range Range `json:"range"`
	// ExtendedRange is the wider, less precise wavelength range, in nm.
	ExtendedRange Range `json:"extended_range"`
}

// GratingCalibration reports the outcome of a grating calibration.
//
// Calibration can shift the valid wavelength range, so a successful
// calibration is followed by a range re-read. RangeErr is non-nil when that
// re-read failed; the calibration itself still succeeded in that case.
type GratingCalibration struct {
	// Range is the wavelength range re-read after calibration, in nm.
	// Only meaningful when RangeErr is nil.
	Range Range `json:"range"`
	// RangeErr reports a failure of the post-calibration range re-read.
	RangeErr error `json:"-"`
}

// GratingController queries grating identity and ranges, and triggers grating
// calibration, on an established session.
type GratingController struct {
	drv    Driver
	logger logger.Logger
}

// NewGratingController creates a GratingController over the given driver.
func NewGratingController(drv Driver, log logger.Logger) *GratingController {
	if log == nil {
		log = logger.GetLogger()
	}
	return &GratingController{drv: drv, logger: log}
}

// Status reads the composite grating descriptor.
//
// It performs five sequential reads: index, name, count, range, extended
// range. The first non-success status aborts the remaining reads and is the
// reported failure; values already obtained are discarded. The operation is
// all-or-nothing at the reporting boundary.
func (c *GratingController) Status(h Handle) (*GratingDescriptor, error) {
	index, status := c.drv.GratingIndex(h)
	if !status.IsSuccess() {
		return nil, statusErr(StepGratingIndex, status)
	}

	name, status := c.drv.GratingName(h, index)
	if !status.IsSuccess() {
		return nil, statusErr(StepGratingName, status)
	}

	count, status := c.drv.GratingCount(h)
	if !status.IsSuccess() {
		return nil, statusErr(StepGratingCount, status)
	}

	rng, status := c.drv.GratingRange(h, index)
	if !status.IsSuccess() {
		return nil, statusErr(StepGratingRange, status)
	}

	ext, status := c.drv.GratingExtendedRange(h, index)
	if !status.IsSuccess() {
		return nil, statusErr(StepGratingExtendedRange, status)
	}

	return &GratingDescriptor{
		Index:         index,
		Name:          name,
		Count:         count,
		Range:         rng,
		ExtendedRange: ext,
	}, nil
}

// Calibrate triggers grating calibration.
//
// On success it follows up by re-reading the wavelength range and reports it.
// On a calibration failure no re-read is attempted and only the calibration
// failure is reported.
func (c *GratingController) Calibrate(h Handle) (*GratingCalibration, error) {
	if status := c.drv.CalibrateGrating(h); !status.IsSuccess() {
		c.logger.Debug("grating calibration failed", "status", status)
		return nil, statusErr(StepCalibrateGrating, status)
	}

	res := &GratingCalibration{}

	rng, status := c.drv.WavelengthRange(h)
	if !status.IsSuccess() {
		res.RangeErr = statusErr(StepWavelengthRange, status)
		return res, nil
	}
	res.Range = rng

	return res, nil
}
