package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// snackWidth is the outer width of a rendered snack, borders included.
const snackWidth = 44

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	actionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14"))

	snackStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(snackWidth - 2)
)

// variantColor returns the border color of a variant.
func variantColor(v model.Variant) lipgloss.Color {
	switch v {
	case model.VariantSuccess:
		return lipgloss.Color("10")
	case model.VariantWarning:
		return lipgloss.Color("11")
	case model.VariantError:
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("12")
	}
}

// variantIcon returns the glyph shown before the message.
func variantIcon(v model.Variant) string {
	switch v {
	case model.VariantSuccess:
		return "✔"
	case model.VariantWarning:
		return "⚠"
	case model.VariantError:
		return "✖"
	default:
		return "ℹ"
	}
}

// renderSnack draws one snack. Its line count is the snack's measured height.
func renderSnack(item provider.RenderItem) string {
	msg := item.Content
	if !item.DynamicHeight {
		msg, _, _ = strings.Cut(msg, "\n")
	}
	if !item.HideIcon {
		msg = variantIcon(item.Variant) + " " + msg
	}
	if item.Action != nil {
		msg += "  " + actionStyle.Render("["+item.Action.Label+"]")
	}

	style := snackStyle.BorderForeground(variantColor(item.Variant))
	if !item.Open {
		style = style.Faint(true).BorderForeground(lipgloss.Color("8"))
	}
	return style.Render(msg)
}

// block is a rendered snack at its stack offset, in rows from the anchor edge.
type block struct {
	offset int
	text   string
}

// canvas lays blocks into rows lines of the given width. Offsets count from
// the top edge for top anchors and from the bottom edge for bottom anchors.
// Rows that fall outside the canvas are dropped.
func canvas(blocks []block, rows, width int, anchor model.Anchor) string {
	if rows <= 0 {
		return ""
	}
	lines := make([]string, rows)

	for _, b := range blocks {
		blockLines := strings.Split(b.text, "\n")
		h := len(blockLines)
		for j, line := range blockLines {
			row := b.offset + j
			if anchor.IsBottom() {
				row = rows - 1 - (b.offset + (h - 1 - j))
			}
			if row < 0 || row >= rows {
				continue
			}
			lines[row] = line
		}
	}

	pos := horizontalPosition(anchor.Horizontal)
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(width, pos, line)
	}
	return strings.Join(lines, "\n")
}

func horizontalPosition(h model.Horizontal) lipgloss.Position {
	switch h {
	case model.HorizontalCenter:
		return lipgloss.Center
	case model.HorizontalRight:
		return lipgloss.Right
	default:
		return lipgloss.Left
	}
}
