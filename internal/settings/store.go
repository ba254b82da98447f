// Package settings persists the alarm settings document and watches it for
// edits made by other processes.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sunrised/internal/alarm"
	"sunrised/internal/fsutil"
)

// FileStore reads and writes the settings JSON document. The daemon and the
// web process share one document on disk; writes are atomic so a reader never
// observes a half-written file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns zero-value settings when the document is missing or unreadable
// as JSON. A freshly installed device has no document until the first set, and
// a corrupt one must never keep the daemon from starting.
func (s *FileStore) Load() (alarm.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return alarm.Settings{}, nil
		}
		return alarm.Settings{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	var set alarm.Settings
	if err := json.Unmarshal(data, &set); err != nil {
		s.logger.Warn("settings unreadable, treating as unset",
			zap.String("path", s.path), zap.Error(err))
		return alarm.Settings{}, nil
	}
	return set, nil
}

func (s *FileStore) Save(set alarm.Settings) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
