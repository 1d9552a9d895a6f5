package display

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/snackbar/internal/config"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// DefaultExitDuration is how long a closing snack stays on screen with the
// "closing" class before its window is destroyed.
const DefaultExitDuration = 200 * time.Millisecond

// popupState tracks one rendered snack. popup is nil for snacks that were
// closed before they were ever shown.
type popupState struct {
	popup   *Popup
	exiting bool
}

// Renderer draws snacks as layer-shell popup windows. Render may be called
// from any goroutine; all GTK work is marshalled onto the main loop.
type Renderer struct {
	app     *gtk.Application
	logger  *slog.Logger
	display *gdk.Display

	mu           sync.Mutex
	callbacks    provider.Callbacks
	cfg          config.DisplayConfig
	colorScheme  string
	exitDuration time.Duration

	// Owned by the GTK main thread.
	popups map[model.ID]*popupState
	last   []provider.RenderItem
}

var _ provider.Renderer = (*Renderer)(nil)

// NewRenderer creates a popup renderer.
func NewRenderer(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Renderer{
		app:          app,
		logger:       logger,
		cfg:          cfg.Display,
		colorScheme:  cfg.Theme.ColorScheme,
		exitDuration: DefaultExitDuration,
		popups:       make(map[model.ID]*popupState),
	}
}

// Start binds the renderer to the default display.
func (r *Renderer) Start() error {
	r.display = gdk.DisplayGetDefault()
	if r.display == nil {
		return &DisplayError{Message: "no display available"}
	}
	r.logger.Info("display renderer started")
	return nil
}

// Stop destroys every popup. Must be called on the GTK main thread.
func (r *Renderer) Stop() {
	for id, state := range r.popups {
		if state.popup != nil {
			state.popup.Close()
		}
		delete(r.popups, id)
	}
	r.last = nil
	r.logger.Info("display renderer stopped")
}

// SetCallbacks sets where user interaction and exits are reported.
func (r *Renderer) SetCallbacks(cb provider.Callbacks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = cb
}

// SetExitDuration changes how long closing snacks linger.
func (r *Renderer) SetExitDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exitDuration = d
}

// UpdateConfig applies new display settings to the visible snacks.
func (r *Renderer) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	r.mu.Lock()
	r.cfg = cfg.Display
	r.colorScheme = cfg.Theme.ColorScheme
	r.mu.Unlock()

	glib.IdleAdd(func() {
		r.apply(r.last)
	})
}

// Render implements provider.Renderer.
func (r *Renderer) Render(items []provider.RenderItem) {
	items = slices.Clone(items)
	glib.IdleAdd(func() {
		r.apply(items)
	})
}

type measuredHeight struct {
	id     model.ID
	height int
}

// apply reconciles the popup windows with items. Runs on the GTK main thread.
func (r *Renderer) apply(items []provider.RenderItem) {
	r.mu.Lock()
	cfg := r.cfg
	scheme := colorSchemeClass(r.colorScheme)
	exit := r.exitDuration
	cb := r.callbacks
	r.mu.Unlock()

	r.last = items
	seen := make(map[model.ID]bool, len(items))
	var heights []measuredHeight

	for _, item := range items {
		seen[item.ID] = true
		state, exists := r.popups[item.ID]

		switch {
		case !exists && item.Open:
			popup := NewPopup(r.app, item, cfg, scheme, r.logger)
			r.connect(popup, item.ID)
			popup.Show(monitorFor(r.display, cfg.Monitor, r.logger))
			state = &popupState{popup: popup}
			r.popups[item.ID] = state
			r.logger.Debug("showing snack", "id", item.ID, "offset", item.Offset)
		case !exists:
			state = &popupState{}
			r.popups[item.ID] = state
		case state.popup != nil:
			state.popup.Update(item, cfg, scheme)
		}

		if !item.Open && !state.exiting {
			state.exiting = true
			id := item.ID
			glib.TimeoutAdd(uint(exit.Milliseconds()), func() {
				r.finishExit(id)
			})
		}

		if item.Open && state.popup != nil {
			if h := state.popup.Height(); h > 0 && h != item.Height {
				heights = append(heights, measuredHeight{id: item.ID, height: h})
			}
		}
	}

	// Snacks dropped without an exit transition.
	for id, state := range r.popups {
		if seen[id] {
			continue
		}
		if state.popup != nil {
			state.popup.Close()
		}
		delete(r.popups, id)
	}

	if cb == nil {
		return
	}
	for _, m := range heights {
		cb.HandleSetHeight(m.id, m.height)
	}
}

// finishExit destroys a closed snack's window and reports the exit.
func (r *Renderer) finishExit(id model.ID) {
	state, exists := r.popups[id]
	if !exists {
		return
	}
	if state.popup != nil {
		state.popup.Close()
	}
	delete(r.popups, id)

	r.mu.Lock()
	cb := r.callbacks
	r.mu.Unlock()
	if cb != nil {
		cb.HandleExited(id)
	}
}

// connect routes a popup's interactions to the callbacks.
func (r *Renderer) connect(popup *Popup, id model.ID) {
	report := func(fn func(cb provider.Callbacks)) {
		r.mu.Lock()
		cb := r.callbacks
		r.mu.Unlock()
		if cb != nil {
			fn(cb)
		}
	}

	popup.OnDismiss(func() {
		report(func(cb provider.Callbacks) { cb.HandleClose(id, model.CloseReasonManually) })
	})
	popup.OnAction(func() {
		report(func(cb provider.Callbacks) { cb.HandleClose(id, model.CloseReasonAction) })
	})
	popup.OnHover(func(hovering bool) {
		report(func(cb provider.Callbacks) { cb.HandleHover(id, hovering) })
	})
}

// ActiveCount returns the number of windows on screen. Must be called on
// the GTK main thread.
func (r *Renderer) ActiveCount() int {
	n := 0
	for _, state := range r.popups {
		if state.popup != nil {
			n++
		}
	}
	return n
}
