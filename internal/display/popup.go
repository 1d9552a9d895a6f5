package display

import (
	"log/slog"
	"slices"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"

	"github.com/jmylchreest/snackbar/internal/config"
	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// Popup is the layer-shell window of one snack.
type Popup struct {
	id     model.ID
	window *gtk.Window
	logger *slog.Logger

	// Widgets
	box     *gtk.Box
	content *gtk.Box
	icon    *gtk.Image
	message *gtk.Label
	action  *gtk.Button

	// Callbacks
	onDismiss func()
	onAction  func()
	onHover   func(hovering bool)

	// State
	classes []string
	width   int
	closed  bool
}

// NewPopup creates the window for item. Must be called on the GTK main thread.
func NewPopup(app *gtk.Application, item provider.RenderItem, cfg config.DisplayConfig, scheme string, logger *slog.Logger) *Popup {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Popup{
		id:     item.ID,
		logger: logger,
		width:  cfg.Width,
	}

	p.window = gtk.NewWindow()
	p.window.SetApplication(app)
	p.window.SetDecorated(false)
	p.window.SetResizable(false)
	p.window.AddCSSClass("snack-window")
	p.window.SetDefaultSize(cfg.Width, -1)
	p.window.SetSizeRequest(cfg.Width, -1)
	if cfg.Opacity > 0 && cfg.Opacity < 1.0 {
		p.window.SetOpacity(cfg.Opacity)
	}

	layershell.InitForWindow(p.window)
	layershell.SetLayer(p.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(p.window, 0) // Don't reserve space
	layershell.SetKeyboardMode(p.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(p.window, "snackbar")

	p.buildUI()
	p.connectSignals()
	p.Update(item, cfg, scheme)

	return p
}

// buildUI constructs the widget hierarchy:
// box(.snack) > content(icon, message) + action button.
func (p *Popup) buildUI() {
	p.box = gtk.NewBox(gtk.OrientationHorizontal, 0)

	p.content = gtk.NewBox(gtk.OrientationHorizontal, 0)
	p.content.SetHExpand(true)

	p.icon = gtk.NewImage()
	p.icon.AddCSSClass("snack-icon")
	p.icon.SetVAlign(gtk.AlignCenter)
	p.content.Append(p.icon)

	p.message = gtk.NewLabel("")
	p.message.AddCSSClass("snack-message")
	p.message.SetXAlign(0)
	p.message.SetHExpand(true)
	p.message.SetWrap(true)
	p.message.SetEllipsize(pango.EllipsizeEnd)
	p.content.Append(p.message)

	p.action = gtk.NewButton()
	p.action.AddCSSClass("snack-action")
	p.action.AddCSSClass("flat")
	p.action.SetVAlign(gtk.AlignCenter)

	p.box.Append(p.content)
	p.box.Append(p.action)
	p.window.SetChild(p.box)
}

// connectSignals sets up event handlers.
func (p *Popup) connectSignals() {
	p.action.ConnectClicked(func() {
		if p.onAction != nil {
			p.onAction()
		}
	})

	motionCtrl := gtk.NewEventControllerMotion()
	motionCtrl.ConnectEnter(func(x, y float64) {
		if p.onHover != nil {
			p.onHover(true)
		}
	})
	motionCtrl.ConnectLeave(func() {
		if p.onHover != nil {
			p.onHover(false)
		}
	})
	p.window.AddController(motionCtrl)

	// Clicks on the message area dismiss; the action button handles its own.
	clickCtrl := gtk.NewGestureClick()
	clickCtrl.SetButton(0) // All buttons
	clickCtrl.ConnectReleased(func(nPress int, x, y float64) {
		if p.onDismiss != nil {
			p.onDismiss()
		}
	})
	p.content.AddController(clickCtrl)
}

// Update refreshes content, classes and placement from item.
func (p *Popup) Update(item provider.RenderItem, cfg config.DisplayConfig, scheme string) {
	if p.closed {
		return
	}

	p.message.SetText(item.Content)
	if item.DynamicHeight {
		p.message.SetLines(-1)
	} else {
		p.message.SetLines(2)
	}

	p.icon.SetFromIconName(iconForVariant(item.Variant))
	p.icon.SetVisible(!item.HideIcon)

	if item.Action != nil {
		p.action.SetLabel(item.Action.Label)
		p.action.SetVisible(true)
	} else {
		p.action.SetVisible(false)
	}

	p.setClasses(ClassesFor(item, scheme, cfg.Opacity > 0 && cfg.Opacity < 1.0))
	EdgesFor(item.Anchor, item.Offset, cfg.Margin).apply(p.window)
}

// setClasses swaps the box classes to exactly classes.
func (p *Popup) setClasses(classes []string) {
	for _, c := range p.classes {
		if !slices.Contains(classes, c) {
			p.box.RemoveCSSClass(c)
		}
	}
	for _, c := range classes {
		if !slices.Contains(p.classes, c) {
			p.box.AddCSSClass(c)
		}
	}
	p.classes = classes
}

// Height measures the natural height of the snack at its configured width.
func (p *Popup) Height() int {
	_, natural, _, _ := p.box.Measure(gtk.OrientationVertical, p.width)
	return natural
}

// Show presents the window, optionally on a specific monitor.
func (p *Popup) Show(monitor *gdk.Monitor) {
	if monitor != nil {
		layershell.SetMonitor(p.window, monitor)
	}
	p.window.Present()
}

// Close destroys the window.
func (p *Popup) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.window.Destroy()
}

// OnDismiss sets the callback for clicks on the snack body.
func (p *Popup) OnDismiss(cb func()) {
	p.onDismiss = cb
}

// OnAction sets the callback for the action button.
func (p *Popup) OnAction(cb func()) {
	p.onAction = cb
}

// OnHover sets the callback for hover state changes.
func (p *Popup) OnHover(cb func(hovering bool)) {
	p.onHover = cb
}

// colorSchemeClass returns "light" or "dark" based on config or system preference.
func colorSchemeClass(scheme string) string {
	switch config.ColorScheme(scheme) {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		return detectSystemColorScheme()
	}
}

// detectSystemColorScheme checks libadwaita for system dark mode preference.
func detectSystemColorScheme() string {
	styleManager := adw.StyleManagerGetDefault()
	if styleManager != nil && styleManager.Dark() {
		return "dark"
	}
	return "light"
}
