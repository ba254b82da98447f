//go:build !linux

package button

import "errors"

// ErrHardwareUnavailable is returned when GPIO access is not built in.
var ErrHardwareUnavailable = errors.New("button: gpio driver not built in (requires linux)")

// NewGPIO is a stub on platforms without GPIO access.
func NewGPIO(int) (Input, error) {
	return nil, ErrHardwareUnavailable
}
