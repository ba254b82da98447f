//go:build linux && cgo

package led

import (
	"fmt"

	ws2811 "github.com/rpi-ws281x/rpi-ws281x-go"

	"sunrised/internal/config"
)

// ws281xStrip drives a WS281x strip through the rpi_ws281x PWM/DMA library.
// Requires root (the library maps /dev/mem for DMA).
type ws281xStrip struct {
	dev   *ws2811.WS2811
	count int
}

// NewWS281x opens the strip described by cfg.
func NewWS281x(cfg config.LEDConfig) (Strip, error) {
	opt := ws2811.DefaultOptions
	opt.Frequency = cfg.FreqHz
	opt.DmaNum = cfg.DMA
	opt.Channels[0].GpioPin = cfg.GPIO
	opt.Channels[0].LedCount = cfg.Count
	opt.Channels[0].Brightness = cfg.Brightness
	opt.Channels[0].Invert = cfg.Invert

	dev, err := ws2811.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("ws281x configure: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("ws281x init (needs root for /dev/mem): %w", err)
	}
	return &ws281xStrip{dev: dev, count: cfg.Count}, nil
}

func (s *ws281xStrip) Count() int { return s.count }

func (s *ws281xStrip) SetPixel(i int, c Color) {
	if i < 0 || i >= s.count {
		return
	}
	s.dev.Leds(0)[i] = uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (s *ws281xStrip) Show() error {
	if err := s.dev.Render(); err != nil {
		return err
	}
	return s.dev.Wait()
}

func (s *ws281xStrip) Close() error {
	s.dev.Fini()
	return nil
}
