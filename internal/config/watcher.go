package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a single file and invokes a callback when it is
// written, created or replaced. Bursts of events are collapsed into one
// callback after a short settle delay.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	logger   *slog.Logger
	settle   time.Duration
	onChange func()

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// NewFileWatcher creates a watcher for filePath. onChange runs on the
// watcher goroutine.
func NewFileWatcher(filePath string, onChange func(), logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:  watcher,
		filePath: filePath,
		logger:   logger,
		settle:   100 * time.Millisecond,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// SetSettleDelay changes how long the watcher waits for a burst of events
// to finish before firing.
func (fw *FileWatcher) SetSettleDelay(d time.Duration) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.settle = d
}

// Start begins watching the file.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running {
		return nil
	}

	// Watch the directory containing the file so atomic replaces are seen
	if err := fw.watcher.Add(filepath.Dir(fw.filePath)); err != nil {
		return err
	}
	fw.running = true

	go fw.watch(fw.settle)
	fw.logger.Debug("file watcher started", "path", fw.filePath)
	return nil
}

func (fw *FileWatcher) watch(settle time.Duration) {
	filename := filepath.Base(fw.filePath)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			fw.logger.Debug("watched file changed", "path", fw.filePath)
			if fw.onChange != nil {
				fw.onChange()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", "path", fw.filePath, "error", err)

		case <-fw.done:
			return
		}
	}
}

// Stop stops the file watcher.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}
	fw.running = false
	close(fw.done)
	return fw.watcher.Close()
}
