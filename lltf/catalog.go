package lltf

import "github.com/baileyji/Wavecal-Automation/logger"

// DeviceCatalog enumerates the sub-systems visible to the vendor driver and
// resolves sub-system indexes to names.
//
// It only reads; it never mutates a session.
type DeviceCatalog struct {
	drv    Driver
	logger logger.Logger
}

// NewDeviceCatalog creates a DeviceCatalog over the given driver.
func NewDeviceCatalog(drv Driver, log logger.Logger) *DeviceCatalog {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DeviceCatalog{drv: drv, logger: log}
}

// SubsystemCount reports the number of sub-systems, connected or not.
func (c *DeviceCatalog) SubsystemCount(h Handle) (int, error) {
	count, status := c.drv.SubsystemCount(h)
	if !status.IsSuccess() {
		c.logger.Debug("subsystem count failed", "status", status)
		return 0, statusErr(StepSubsystemCount, status)
	}

	return count, nil
}

// SubsystemName resolves the sub-system index to its name. The open sequence
// always resolves index 0, the first index reported as available.
func (c *DeviceCatalog) SubsystemName(h Handle, index int) (string, error) {
	name, status := c.drv.SubsystemName(h, index)
	if !status.IsSuccess() {
		c.logger.Debug("subsystem name failed", "index", index, "status", status)
		return "", statusErr(StepSubsystemName, status)
	}

	return name, nil
}
