package display

import (
	"log/slog"
	"strings"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// Edges is the layer-shell placement of one snack window: which screen
// edges it is anchored to and the margins on those edges.
type Edges struct {
	Top, Bottom, Left, Right bool

	// Vertical is the margin on the anchored top or bottom edge.
	Vertical int
	// Horizontal is the margin on the anchored left or right edge. Zero
	// for centered stacks, which anchor no horizontal edge.
	Horizontal int
}

// EdgesFor places a snack offset pixels into the stack growing from
// anchor. margin is the gap between the stack and the screen edges.
func EdgesFor(anchor model.Anchor, offset, margin int) Edges {
	e := Edges{Vertical: margin + offset}
	if anchor.IsBottom() {
		e.Bottom = true
	} else {
		e.Top = true
	}

	switch anchor.Horizontal {
	case model.HorizontalLeft:
		e.Left = true
		e.Horizontal = margin
	case model.HorizontalRight:
		e.Right = true
		e.Horizontal = margin
	}
	return e
}

// apply sets the anchors and margins on a layer-shell window.
func (e Edges) apply(window *gtk.Window) {
	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, e.Top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, e.Bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, e.Left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, e.Right)

	switch {
	case e.Top:
		layershell.SetMargin(window, layershell.LayerShellEdgeTop, e.Vertical)
	case e.Bottom:
		layershell.SetMargin(window, layershell.LayerShellEdgeBottom, e.Vertical)
	}
	switch {
	case e.Left:
		layershell.SetMargin(window, layershell.LayerShellEdgeLeft, e.Horizontal)
	case e.Right:
		layershell.SetMargin(window, layershell.LayerShellEdgeRight, e.Horizontal)
	}
}

// ClassesFor returns the CSS classes of a snack box. scheme is "light" or
// "dark".
func ClassesFor(item provider.RenderItem, scheme string, translucent bool) []string {
	classes := []string{"snack", string(item.Variant), scheme, "slide-" + string(item.Direction)}
	if !item.Open {
		classes = append(classes, "closing")
	}
	if translucent {
		classes = append(classes, "translucent")
	}
	if item.Action != nil {
		classes = append(classes, "has-action")
	}
	if item.DynamicHeight {
		classes = append(classes, "dynamic-height")
	}
	if app := item.Meta["app_name"]; app != "" {
		if name := sanitizeClassName(app); name != "" {
			classes = append(classes, "app-"+name)
		}
	}
	return classes
}

// sanitizeClassName converts a string to a valid CSS class name.
// Replaces spaces and special characters with hyphens, lowercases.
func sanitizeClassName(name string) string {
	var result strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			result.WriteRune(r)
			prevHyphen = false
		case r == '-' || r == '_' || r == ' ' || r == '.' || r == '/':
			if !prevHyphen && result.Len() > 0 {
				result.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// iconForVariant returns the symbolic icon name shown next to the message.
func iconForVariant(v model.Variant) string {
	switch v {
	case model.VariantSuccess:
		return "emblem-ok-symbolic"
	case model.VariantWarning:
		return "dialog-warning-symbolic"
	case model.VariantError:
		return "dialog-error-symbolic"
	default:
		return "dialog-information-symbolic"
	}
}

// monitorFor returns the monitor to show snacks on. 0 means the
// compositor's choice; 1+ selects a monitor, falling back to the first one
// when the configured monitor is not connected.
func monitorFor(display *gdk.Display, n int, logger *slog.Logger) *gdk.Monitor {
	if display == nil || n <= 0 {
		return nil
	}

	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		logger.Warn("no monitors list available")
		return nil
	}

	index := uint(n - 1)
	if index >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", n,
			"available", monitors.NItems(),
		)
		index = 0
	}

	obj := monitors.Item(index)
	if obj == nil {
		return nil
	}
	monitor, ok := obj.Cast().(*gdk.Monitor)
	if !ok {
		return nil
	}
	return monitor
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
