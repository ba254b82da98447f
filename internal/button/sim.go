package button

import "sync/atomic"

// SimButton is a settable Input for tests and the terminal harness.
type SimButton struct {
	pressed atomic.Bool
}

// NewSim creates a released SimButton.
func NewSim() *SimButton {
	return &SimButton{}
}

// Press holds the button down until Release is called.
func (b *SimButton) Press() { b.pressed.Store(true) }

// Release lets go of the button.
func (b *SimButton) Release() { b.pressed.Store(false) }

// Toggle flips the button state and reports the new state.
func (b *SimButton) Toggle() bool {
	for {
		old := b.pressed.Load()
		if b.pressed.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (b *SimButton) Pressed() (bool, error) {
	return b.pressed.Load(), nil
}

func (b *SimButton) Close() error { return nil }
