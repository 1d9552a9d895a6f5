package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// InternalNoticeDuration is how long the daemon's own notices stay up.
const InternalNoticeDuration = 5 * time.Second

// InternalNotifier raises snacks about the daemon's own events. Notices
// sharing a key are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	snacks provider.Snacks
	now    func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool
}

// NewInternalNotifier creates a notifier that enqueues into snacks.
func NewInternalNotifier(snacks provider.Snacks, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		snacks:         snacks,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal notices.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum gap between notices with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify enqueues a notice unless one with the same key was raised within
// the minimum interval. Returns true if a snack was enqueued.
func (n *InternalNotifier) Notify(key, message string, variant model.Variant) bool {
	n.mu.Lock()
	if !n.enabled || n.snacks == nil {
		n.mu.Unlock()
		return false
	}
	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notice rate-limited", "key", key)
		return false
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending internal notice", "key", key, "variant", variant)
	_, ok := n.snacks.Enqueue(model.Snack{
		Message:          message,
		Variant:          variant,
		AutoHideDuration: model.Ptr(InternalNoticeDuration),
		Meta:             map[string]string{"source": "snackbard", "key": key},
	})
	return ok
}

// NotifyStartup announces that the daemon is running.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify("startup", "snackbard "+version+" is running", model.VariantInfo)
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration reloaded", model.VariantSuccess)
}

// NotifyConfigError reports a config file that failed to load.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration error: "+err.Error(), model.VariantError)
}

// NotifyThemeError reports a theme that failed to load.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme error: "+err.Error(), model.VariantWarning)
}

// NotifyAudioError reports a sound that failed to play.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify("audio-error", "Audio error: "+err.Error(), model.VariantWarning)
}
