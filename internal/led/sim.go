package led

import "sync"

// SimStrip is an in-memory Strip for tests and the terminal harness.
// Unlike hardware strips it is safe for concurrent use, because the harness UI
// reads frames while the player writes them.
type SimStrip struct {
	mu       sync.Mutex
	pixels   []Color
	shown    []Color
	frames   int
	observer func([]Color)
}

// NewSimStrip creates a simulator strip with n pixels.
func NewSimStrip(n int) *SimStrip {
	return &SimStrip{
		pixels: make([]Color, n),
		shown:  make([]Color, n),
	}
}

// SetObserver registers a callback invoked with a copy of each shown frame.
func (s *SimStrip) SetObserver(fn func([]Color)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *SimStrip) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pixels)
}

func (s *SimStrip) SetPixel(i int, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c
}

func (s *SimStrip) Show() error {
	s.mu.Lock()
	copy(s.shown, s.pixels)
	s.frames++
	frame := append([]Color(nil), s.shown...)
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(frame)
	}
	return nil
}

func (s *SimStrip) Close() error { return nil }

// Snapshot returns a copy of the last shown frame.
func (s *SimStrip) Snapshot() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Color(nil), s.shown...)
}

// Frames returns how many times Show has been called.
func (s *SimStrip) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
