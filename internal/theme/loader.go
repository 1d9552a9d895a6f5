package theme

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/snackbar/internal/config"
)

// Loader applies a theme to the GTK display and reloads it when the theme
// file changes on disk.
type Loader struct {
	mu        sync.Mutex
	logger    *slog.Logger
	provider  *gtk.CSSProvider
	themesDir string
	theme     *Theme
	watcher   *config.FileWatcher
}

// NewLoader creates a theme loader. Must be called on the GTK main thread.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	themesDir, err := ThemesDir()
	if err != nil {
		logger.Warn("failed to get themes directory", "error", err)
	}

	return &Loader{
		logger:    logger,
		provider:  gtk.NewCSSProvider(),
		themesDir: themesDir,
	}
}

// LoadTheme resolves name and loads its CSS into the provider.
func (l *Loader) LoadTheme(name string) error {
	t, err := Resolve(l.themesDir, name)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Name != name && name != "" {
		l.logger.Warn("theme not found, using default", "theme", name)
	}
	l.theme = t
	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "bundled", t.IsBundled)
	return nil
}

// Apply registers the provider for display (or the default display).
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// StartHotReload watches a user theme file and reloads it on change.
// Bundled themes are not watched.
func (l *Loader) StartHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.IsBundled {
		return
	}

	t := l.theme
	w, err := config.NewFileWatcher(t.Path, func() { l.reload(t) }, l.logger)
	if err != nil {
		l.logger.Warn("failed to create theme watcher", "error", err)
		return
	}
	if err := w.Start(); err != nil {
		l.logger.Warn("failed to start theme watcher", "error", err)
		return
	}
	l.watcher = w
}

func (l *Loader) reload(t *Theme) {
	l.mu.Lock()
	changed, err := t.Reload()
	css := t.CSS
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("failed to reload theme", "path", t.Path, "error", err)
		return
	}
	if !changed {
		return
	}

	// CSS providers belong to the GTK main thread.
	glib.IdleAdd(func() {
		l.provider.LoadFromString(css)
		l.logger.Info("hot-reloaded theme", "name", t.Name)
	})
}

// StopHotReload stops watching the theme file.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// CurrentTheme returns the loaded theme's name.
func (l *Loader) CurrentTheme() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}
