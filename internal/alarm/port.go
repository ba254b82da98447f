package alarm

import "context"

// SettingsStore persists the settings document.
type SettingsStore interface {
	// Load returns zero-value settings when no document exists yet.
	Load() (Settings, error)
	Save(Settings) error
}

// Recorder appends events to the alarm history.
type Recorder interface {
	Record(ctx context.Context, e Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}
