package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/snackbar/internal/config"
	"github.com/jmylchreest/snackbar/internal/model"
)

// Manager maps snack variants to sounds and plays them as snacks enter.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	sink    Sink
	watcher *Watcher
	enabled bool
	sounds  map[model.Variant]string
}

// NewManager creates a manager that plays through sink. A nil sink uses a
// speaker-backed Player.
func NewManager(cfg *config.Config, sink Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = NewPlayer(logger)
	}

	m := &Manager{
		logger:  logger,
		sink:    sink,
		watcher: NewWatcher(sink, logger),
		sounds:  make(map[model.Variant]string),
	}
	m.UpdateConfig(cfg)
	return m
}

// UpdateConfig reloads the variant sounds and volume from cfg. Missing
// files are skipped with a warning.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	sounds := make(map[model.Variant]string)
	for _, v := range model.ValidVariants() {
		path := cfg.SoundForVariant(v)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not found", "variant", v, "path", path)
			continue
		}
		sounds[v] = path
	}

	m.sink.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	m.mu.Lock()
	m.enabled = cfg.Audio.Enabled
	m.sounds = sounds
	m.mu.Unlock()

	for v, path := range sounds {
		if err := m.sink.Preload(path); err != nil {
			m.logger.Warn("failed to preload sound", "variant", v, "path", path, "error", err)
		}
		m.watcher.Watch(path)
	}
	m.logger.Debug("audio configured", "enabled", cfg.Audio.Enabled, "sounds", len(sounds))
}

// SoundFor returns the sound configured for v.
func (m *Manager) SoundFor(v model.Variant) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	path, ok := m.sounds[v]
	return path, ok
}

// PlayForVariant plays the sound for v. It is a no-op when audio is
// disabled or v has no sound.
func (m *Manager) PlayForVariant(v model.Variant) error {
	m.mu.RLock()
	enabled := m.enabled
	path, ok := m.sounds[v]
	m.mu.RUnlock()

	if !enabled || !ok {
		return nil
	}
	return m.sink.Play(path)
}

// OnEnter plays the sound for a snack that just became visible. It matches
// the provider's enter hook signature.
func (m *Manager) OnEnter(item model.Item) {
	if err := m.PlayForVariant(item.Variant); err != nil {
		m.logger.Debug("failed to play snack sound", "id", item.ID, "error", err)
	}
}

// Stop stops watching sound files and releases the sink.
func (m *Manager) Stop() {
	m.watcher.Stop()
	m.sink.Close()
	m.logger.Debug("audio manager stopped")
}
