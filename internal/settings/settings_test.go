package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sunrised/internal/alarm"
)

func TestFileStoreLoad(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "alarm_settings.json"), zap.NewNop())
		set, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, alarm.Settings{}, set)
	})

	t.Run("corrupt document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alarm_settings.json")
		require.NoError(t, os.WriteFile(path, []byte("{half a doc"), 0o644))

		core, logs := observer.New(zap.WarnLevel)
		store := NewFileStore(path, zap.New(core))
		set, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, alarm.Settings{}, set)
		assert.Equal(t, 1, logs.FilterMessage("settings unreadable, treating as unset").Len())
	})

	t.Run("round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alarm_settings.json")
		store := NewFileStore(path, zap.NewNop())
		in := alarm.Settings{Enabled: true, Time: "07:30 AM"}
		require.NoError(t, store.Save(in))

		out, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, in, out)
	})
}

func TestFileStoreSave(t *testing.T) {
	t.Run("document mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alarm_settings.json")
		store := NewFileStore(path, zap.NewNop())
		require.NoError(t, store.Save(alarm.Settings{}))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "var", "lib", "sunrised", "alarm_settings.json")
		store := NewFileStore(path, zap.NewNop())
		require.NoError(t, store.Save(alarm.Settings{Enabled: true, Time: "06:00 AM"}))

		out, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, alarm.Settings{Enabled: true, Time: "06:00 AM"}, out)
	})

	t.Run("unset time marshals as null", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alarm_settings.json")
		store := NewFileStore(path, zap.NewNop())
		require.NoError(t, store.Save(alarm.Settings{}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"enabled":false,"time":null}`, string(data))
	})
}

func waitForSettings(t *testing.T, c <-chan alarm.Settings, timeout time.Duration) alarm.Settings {
	t.Helper()
	select {
	case set := <-c:
		return set
	case <-time.After(timeout):
		t.Fatal("no settings delivered before timeout")
		return alarm.Settings{}
	}
}

func TestWatcherDeliversChanges(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "alarm_settings.json"), zap.NewNop())
	require.NoError(t, store.Save(alarm.Settings{}))

	w, err := NewWatcher(store, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, store.Save(alarm.Settings{Enabled: true, Time: "07:30 AM"}))
	got := waitForSettings(t, w.C, 3*time.Second)
	assert.Equal(t, alarm.Settings{Enabled: true, Time: "07:30 AM"}, got)

	// An edit made by another process, not through the store.
	raw := []byte(`{"enabled": false, "time": "07:30 AM"}`)
	require.NoError(t, os.WriteFile(store.Path(), raw, 0o644))
	got = waitForSettings(t, w.C, 3*time.Second)
	assert.Equal(t, alarm.Settings{Enabled: false, Time: "07:30 AM"}, got)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "alarm_settings.json"), zap.NewNop())

	w, err := NewWatcher(store, 20*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for minute := 0; minute < 5; minute++ {
		require.NoError(t, store.Save(alarm.Settings{Enabled: true, Time: alarm.TimeOfDay{Hour: 7, Minute: minute}.String()}))
	}

	final := alarm.Settings{Enabled: true, Time: "07:04 AM"}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case got := <-w.C:
			if got == final {
				return
			}
		case <-deadline:
			t.Fatal("final settings never delivered")
		}
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "alarm_settings.json"), zap.NewNop())
	require.NoError(t, store.Save(alarm.Settings{}))

	w, err := NewWatcher(store, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))

	select {
	case set := <-w.C:
		t.Fatalf("unexpected delivery: %+v", set)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStop(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "alarm_settings.json"), zap.NewNop())
	w, err := NewWatcher(store, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop() // second stop is a no-op
}
