package lltf

import "github.com/baileyji/Wavecal-Automation/logger"

// WavelengthController queries and sets the active wavelength of an
// established session.
type WavelengthController struct {
	drv    Driver
	logger logger.Logger
}

// NewWavelengthController creates a WavelengthController over the given driver.
func NewWavelengthController(drv Driver, log logger.Logger) *WavelengthController {
	if log == nil {
		log = logger.GetLogger()
	}
	return &WavelengthController{drv: drv, logger: log}
}

// Wavelength reports the central wavelength currently filtered, in nm.
func (c *WavelengthController) Wavelength(h Handle) (float64, error) {
	nm, status := c.drv.Wavelength(h)
	if !status.IsSuccess() {
		return 0, statusErr(StepGetWavelength, status)
	}

	return nm, nil
}

// Range reports the valid wavelength range of the connected sub-system.
//
// The query is independent of Wavelength; a failure here does not invalidate
// a previously obtained wavelength value.
func (c *WavelengthController) Range(h Handle) (Range, error) {
	rng, status := c.drv.WavelengthRange(h)
	if !status.IsSuccess() {
		return Range{}, statusErr(StepWavelengthRange, status)
	}

	return rng, nil
}

// SetResult reports the outcome of a wavelength set.
//
// The vendor set status alone does not guarantee what value the instrument
// applied, so a successful set is always followed by exactly one re-read.
// ReadErr is non-nil when that follow-up read failed; the set itself still
// succeeded in that case and the two failures are independently attributable.
type SetResult struct {
	// Requested is the wavelength passed to the vendor set call, in nm.
	Requested float64
	// Committed is the wavelength re-read after the set, in nm.
	// Only meaningful when ReadErr is nil.
	Committed float64
	// ReadErr reports a failure of the follow-up read.
	ReadErr error
}

// Set requests a new central wavelength and re-reads the value the instrument
// actually committed.
//
// A non-success set status aborts the operation; no follow-up read is issued.
func (c *WavelengthController) Set(h Handle, nm float64) (*SetResult, error) {
	if status := c.drv.SetWavelength(h, nm); !status.IsSuccess() {
		c.logger.Debug("set wavelength failed", "requested_nm", nm, "status", status)
		return nil, statusErr(StepSetWavelength, status)
	}

	res := &SetResult{Requested: nm}

	committed, err := c.Wavelength(h)
	if err != nil {
		res.ReadErr = err
		return res, nil
	}
	res.Committed = committed

	return res, nil
}
