//go:build !linux || !cgo

package led

import (
	"errors"

	"sunrised/internal/config"
)

// ErrHardwareUnavailable is returned when the binary was built without the
// WS281x driver (non-Linux or cgo disabled).
var ErrHardwareUnavailable = errors.New("led: ws281x driver not built in (requires linux and cgo)")

// NewWS281x is a stub on platforms without the ws281x driver.
func NewWS281x(config.LEDConfig) (Strip, error) {
	return nil, ErrHardwareUnavailable
}
