package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sunrised/internal/led"
)

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib", "sunrised", "led_state.json")
	require.NoError(t, Seed(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, led.Color{}, snap.Color())
	assert.WithinDuration(t, time.Now(), snap.Timestamp, time.Minute)
}

func TestReadErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "led_state.json")
		require.NoError(t, os.WriteFile(path, []byte("{{"), 0o644))
		_, err := Read(path)
		assert.ErrorContains(t, err, "parse")
	})
}

func TestPublisherImmediateWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led_state.json")
	p := NewPublisher(path, 0, zap.NewNop())
	defer p.Close()

	p.Publish(led.Color{R: 50, G: 15, B: 6})

	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, Snapshot{R: 50, G: 15, B: 6, Timestamp: snap.Timestamp}, snap)
}

func TestPublisherCoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led_state.json")
	p := NewPublisher(path, 150*time.Millisecond, zap.NewNop())
	defer p.Close()

	p.Publish(led.Color{R: 1})
	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.R)

	// Inside the gap: nothing hits the disk yet.
	p.Publish(led.Color{R: 2})
	p.Publish(led.Color{R: 3})
	snap, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.R)

	// The trailing write carries the newest color.
	require.Eventually(t, func() bool {
		snap, err := Read(path)
		return err == nil && snap.R == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPublisherCloseFlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "led_state.json")
	p := NewPublisher(path, time.Hour, zap.NewNop())

	p.Publish(led.Color{R: 1})
	p.Publish(led.Color{R: 9})
	p.Close()

	snap, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 9, snap.R)

	// Publishing after close is a no-op.
	p.Publish(led.Color{R: 100})
	snap, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, 9, snap.R)
}
