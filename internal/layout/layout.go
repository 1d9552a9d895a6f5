// Package layout computes where active snacks are stacked and which of them
// may auto-hide. Everything here is pure apart from diagnostic logging.
package layout

import (
	"log/slog"
	"time"

	"github.com/jmylchreest/snackbar/internal/model"
)

// BaseOffset is the distance of the first snack from the anchored edge.
const BaseOffset = 20

// Lookup resolves an id to its stored item.
type Lookup func(id model.ID) (model.Item, bool)

// Direction is the way a snack travels while entering.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// TransitionDirection returns the slide direction for anchor. Snacks on the
// left or right edge slide in horizontally away from that edge; centered
// snacks slide in vertically away from their edge.
func TransitionDirection(anchor model.Anchor) Direction {
	switch anchor.Horizontal {
	case model.HorizontalLeft:
		return DirectionRight
	case model.HorizontalRight:
		return DirectionLeft
	}
	if anchor.IsBottom() {
		return DirectionUp
	}
	return DirectionDown
}

// Placement is the computed layout of one active snack.
type Placement struct {
	ID        model.ID
	Index     int
	Offset    int
	Direction Direction

	// AutoHide is the effective auto-hide duration, nil when the snack must
	// stay until closed.
	AutoHide *time.Duration

	Item model.Item
}

// Calculator evaluates stacking offsets and the auto-hide policy.
type Calculator struct {
	logger *slog.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{logger: logger}
}

// Offset returns the distance from the anchored edge for the snack at index.
// Each preceding snack contributes its height plus spacing. A preceding id
// without a stored item contributes nothing.
func (c *Calculator) Offset(index int, activeIDs []model.ID, lookup Lookup, spacing int) int {
	offset := BaseOffset
	if index <= 0 {
		return offset
	}
	if index > len(activeIDs) {
		index = len(activeIDs)
	}

	for _, id := range activeIDs[:index] {
		it, ok := lookup(id)
		if !ok {
			c.logger.Warn("active snack could not be found", "id", id)
			continue
		}
		offset += it.Height + spacing
	}
	return offset
}

// AutoHide returns, per active id, whether auto-hide is allowed at that
// position. Once a snack at an earlier index is persistent, every later
// snack is held as well. Missing ids neither hold nor release the stack.
func (c *Calculator) AutoHide(activeIDs []model.ID, lookup Lookup) []bool {
	flags := make([]bool, len(activeIDs))
	enabled := true
	for i := range activeIDs {
		if i > 0 {
			if prev, ok := lookup(activeIDs[i-1]); ok && prev.Persistent() {
				enabled = false
			}
		}
		flags[i] = enabled
	}
	return flags
}

// Plan lays out the active snacks in display order. Ids whose item has
// gone missing are skipped but still count towards the positions of the
// snacks after them.
func (c *Calculator) Plan(activeIDs []model.ID, lookup Lookup, spacing int, anchor model.Anchor) []Placement {
	flags := c.AutoHide(activeIDs, lookup)
	direction := TransitionDirection(anchor)

	placements := make([]Placement, 0, len(activeIDs))
	for i, id := range activeIDs {
		it, ok := lookup(id)
		if !ok {
			continue
		}

		var autoHide *time.Duration
		if flags[i] && it.AutoHideDuration != nil {
			d := *it.AutoHideDuration
			autoHide = &d
		}

		placements = append(placements, Placement{
			ID:        id,
			Index:     i,
			Offset:    c.Offset(i, activeIDs, lookup, spacing),
			Direction: direction,
			AutoHide:  autoHide,
			Item:      it,
		})
	}
	return placements
}
