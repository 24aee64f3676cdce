package device

import (
	"fmt"
	"strings"
)

// Status is the power state of a device.
type Status string

const (
	StatusOn  Status = "on"
	StatusOff Status = "off"
)

// ParseStatus converts a raw string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusOn, StatusOff:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusOn {
		return StatusOff
	}
	return StatusOn
}

// Device is a switchable IoT actuator.
type Device struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Status   Status `json:"status"`
	Location string `json:"location"`
}

// Validate checks a device before it is stored. An empty status is allowed
// and means "use the storage default".
func (d *Device) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrInvalidName
	}
	if d.Status != "" {
		if _, err := ParseStatus(string(d.Status)); err != nil {
			return err
		}
	}
	return nil
}
