package settings

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"sunrised/internal/alarm"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher notices edits to the settings document and delivers the re-loaded
// settings on C. It watches the parent directory rather than the file itself,
// because atomic writes replace the file via rename and a file watch would go
// stale after the first save.
type Watcher struct {
	mu       sync.Mutex
	store    *FileStore
	fw       *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration
	pending  bool
	lastEv   time.Time
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	// C carries the latest settings after an edit settles. Delivery is
	// coalesced; only the newest value is kept when the consumer lags.
	C chan alarm.Settings
}

// NewWatcher creates a watcher for store's document. debounce <= 0 selects the
// default; rapid successive writes inside the window produce one delivery.
func NewWatcher(store *FileStore, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		store:    store,
		fw:       fw,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		C:        make(chan alarm.Settings, 1),
	}, nil
}

// Start begins watching. Non-blocking; events arrive on C until Stop or ctx
// cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	dir := filepath.Dir(w.store.Path())
	if err := w.fw.Add(dir); err != nil {
		return err
	}
	w.running = true
	w.logger.Debug("watching settings", zap.String("dir", dir))

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fw.Close(); err != nil {
		w.logger.Warn("close watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("settings watcher", zap.Error(err))
		case <-tick.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != filepath.Base(w.store.Path()) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.lastEv = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushSettled() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEv) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	set, err := w.store.Load()
	if err != nil {
		w.logger.Warn("reload settings", zap.Error(err))
		return
	}
	// Coalesce: replace a stale undelivered value instead of blocking.
	for {
		select {
		case w.C <- set:
			return
		default:
			select {
			case <-w.C:
			default:
			}
		}
	}
}
