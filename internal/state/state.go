// Package state publishes the lamp's current color to a small JSON file so
// other processes (the web interface, shell scripts, health checks) can read
// it without talking to the daemon.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"sunrised/internal/fsutil"
	"sunrised/internal/led"
)

// Snapshot is the on-disk document: the color currently shown and when it was
// written.
type Snapshot struct {
	R         int       `json:"r"`
	G         int       `json:"g"`
	B         int       `json:"b"`
	Timestamp time.Time `json:"timestamp"`
}

func (s Snapshot) Color() led.Color {
	return led.Color{R: uint8(s.R), G: uint8(s.G), B: uint8(s.B)}
}

// Seed writes a dark snapshot with the documented permissions. Used by install
// so the file exists with the right mode before the daemon ever runs.
func Seed(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	return write(path, Snapshot{Timestamp: time.Now()})
}

// Read loads the snapshot.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func write(path string, s Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o644)
}

// Publisher writes snapshots with a minimum gap between writes. Animation
// steps arrive far faster than anyone reads the file; the leading edge is
// written immediately and the newest pending color follows once the gap has
// passed, so the file always converges on what the strip shows.
type Publisher struct {
	mu     sync.Mutex
	path   string
	min    time.Duration
	logger *zap.Logger

	latest led.Color
	last   time.Time
	timer  *time.Timer
	closed bool
}

// NewPublisher creates a publisher. min <= 0 disables rate limiting.
func NewPublisher(path string, min time.Duration, logger *zap.Logger) *Publisher {
	return &Publisher{path: path, min: min, logger: logger}
}

// Publish records c as the current color. Never blocks on IO errors; a state
// file that cannot be written must not stop the light.
func (p *Publisher) Publish(c led.Color) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.latest = c

	now := time.Now()
	if p.min <= 0 || now.Sub(p.last) >= p.min {
		p.writeLocked(now)
		return
	}
	if p.timer == nil {
		p.timer = time.AfterFunc(p.min-now.Sub(p.last), p.flush)
	}
}

func (p *Publisher) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.timer = nil
	p.writeLocked(time.Now())
}

// Close writes any pending color and stops the publisher.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		p.writeLocked(time.Now())
	}
}

func (p *Publisher) writeLocked(now time.Time) {
	p.last = now
	snap := Snapshot{R: int(p.latest.R), G: int(p.latest.G), B: int(p.latest.B), Timestamp: now}
	if err := write(p.path, snap); err != nil {
		p.logger.Warn("write state file", zap.Error(err))
	}
}
