package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/snackbar/internal/config"
)

// Watcher invalidates cached sounds when their files change on disk.
type Watcher struct {
	mu       sync.Mutex
	logger   *slog.Logger
	sink     Sink
	watchers map[string]*config.FileWatcher
}

// NewWatcher creates a watcher that invalidates entries in sink.
func NewWatcher(sink Sink, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:   logger,
		sink:     sink,
		watchers: make(map[string]*config.FileWatcher),
	}
}

// Watch starts watching path. Watching the same path twice is a no-op.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watchers[path]; ok {
		return
	}

	fw, err := config.NewFileWatcher(path, func() {
		w.logger.Debug("sound file changed, invalidating cache", "path", path)
		w.sink.InvalidateCache(path)
	}, w.logger)
	if err != nil {
		w.logger.Warn("failed to watch sound file", "path", path, "error", err)
		return
	}
	if err := fw.Start(); err != nil {
		w.logger.Warn("failed to watch sound file", "path", path, "error", err)
		_ = fw.Stop()
		return
	}
	w.watchers[path] = fw
}

// Paths returns the watched paths.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.watchers))
	for path := range w.watchers {
		paths = append(paths, path)
	}
	return paths
}

// Stop stops every file watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, fw := range w.watchers {
		_ = fw.Stop()
		delete(w.watchers, path)
	}
}
