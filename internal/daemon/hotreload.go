package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/snackbar/internal/config"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// ConfigWatcher reloads the config file when it changes. Invalid configs
// are reported and the last good config is kept.
type ConfigWatcher struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	path    string
	current *config.Config
	watcher *config.FileWatcher

	onReload func(cfg *config.Config)
	onError  func(err error)
}

// NewConfigWatcher creates a watcher for path starting from initial.
func NewConfigWatcher(path string, initial *config.Config, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &ConfigWatcher{
		logger:  logger,
		path:    path,
		current: initial,
	}

	fw, err := config.NewFileWatcher(path, w.Reload, logger)
	if err != nil {
		return nil, err
	}
	w.watcher = fw
	return w, nil
}

// SetReloadCallback sets the callback for a successfully reloaded config.
func (w *ConfigWatcher) SetReloadCallback(callback func(cfg *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetErrorCallback sets the callback for a config that failed to load.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// SetSettleDelay passes through to the file watcher.
func (w *ConfigWatcher) SetSettleDelay(d time.Duration) {
	w.watcher.SetSettleDelay(d)
}

// Start begins watching the config file.
func (w *ConfigWatcher) Start() error {
	if err := w.watcher.Start(); err != nil {
		return err
	}
	w.logger.Debug("config watcher started", "path", w.path)
	return nil
}

// Stop stops watching the config file.
func (w *ConfigWatcher) Stop() {
	if err := w.watcher.Stop(); err != nil {
		w.logger.Debug("failed to stop config watcher", "error", err)
	}
}

// Current returns the last valid configuration.
func (w *ConfigWatcher) Current() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload loads the config file and invokes the matching callback.
func (w *ConfigWatcher) Reload() {
	cfg, err := config.Load(w.path)

	w.mu.Lock()
	if err == nil {
		w.current = cfg
	}
	onReload, onError := w.onReload, w.onError
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config file changed but failed to load", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return
	}

	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
}

// ApplyOptions pushes the snack options from cfg into the provider.
func ApplyOptions(snacks provider.Snacks, cfg *config.Config) error {
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	snacks.UpdateOptions(func(o *provider.Options) { *o = opts })
	return nil
}
