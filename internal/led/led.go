// Package led contains the strip abstraction and color helpers for the lamp.
// Real hardware is a WS281x strip; tests and the terminal harness use SimStrip.
package led

import "fmt"

// Color is an 8-bit-per-channel RGB color.
type Color struct {
	R, G, B uint8
}

// Off is all channels zero.
var Off = Color{}

// Colors the interaction layer shows, before brightness scaling.
var (
	WarmWhite  = Color{R: 254, G: 255, B: 236} // setup display, shown scaled to 10%
	ConfirmNew = Color{R: 3, G: 160, B: 87}    // green confirm flash, scaled to 10%
	DisableRed = Color{R: 153, G: 0, B: 0}     // alarm-disabled flash, scaled to 10%
)

// Scaled returns the color with every channel multiplied by f and truncated,
// matching the integer math the light curves were tuned with.
func (c Color) Scaled(f float64) Color {
	return Color{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// String renders the color as "rgb(r,g,b)" for logs.
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// Strip is the output device port. Implementations are not required to be
// goroutine safe; the engine serializes access.
type Strip interface {
	// Count returns the number of pixels.
	Count() int
	// SetPixel stages a color for pixel i. Out-of-range indexes are ignored.
	SetPixel(i int, c Color)
	// Show pushes staged pixels to the device.
	Show() error
	// Close releases the device.
	Close() error
}

// Fill stages c on every pixel and shows the frame.
func Fill(s Strip, c Color) error {
	for i := 0; i < s.Count(); i++ {
		s.SetPixel(i, c)
	}
	return s.Show()
}

// FillN stages c on the first n pixels, clears the rest, and shows the frame.
// Used by the setup display (hour = n lit pixels, minute = n/5 lit pixels).
func FillN(s Strip, n int, c Color) error {
	for i := 0; i < s.Count(); i++ {
		if i < n {
			s.SetPixel(i, c)
		} else {
			s.SetPixel(i, Off)
		}
	}
	return s.Show()
}

// Clear turns every pixel off.
func Clear(s Strip) error {
	return Fill(s, Off)
}
