//go:build linux

package button

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioButton reads a GPIO pin through /dev/gpiomem with the internal pull-up
// enabled, so the pin reads low while the button is held.
type rpioButton struct {
	pin rpio.Pin
}

// NewGPIO opens the GPIO device and configures the button pin.
func NewGPIO(gpio int) (Input, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}
	pin := rpio.Pin(gpio)
	pin.Input()
	pin.PullUp()
	return &rpioButton{pin: pin}, nil
}

func (b *rpioButton) Pressed() (bool, error) {
	return b.pin.Read() == rpio.Low, nil
}

func (b *rpioButton) Close() error {
	return rpio.Close()
}
