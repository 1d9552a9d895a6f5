package model

import (
	"fmt"
	"strings"
)

// Vertical is the vertical edge a stack grows from.
type Vertical string

// Horizontal is the horizontal alignment of a stack.
type Horizontal string

const (
	VerticalTop    Vertical = "top"
	VerticalBottom Vertical = "bottom"

	HorizontalLeft   Horizontal = "left"
	HorizontalCenter Horizontal = "center"
	HorizontalRight  Horizontal = "right"
)

// Anchor is the screen corner/edge the snack stack originates from.
type Anchor struct {
	Vertical   Vertical   `json:"vertical" yaml:"vertical"`
	Horizontal Horizontal `json:"horizontal" yaml:"horizontal"`
}

// DefaultAnchor is bottom-left.
func DefaultAnchor() Anchor {
	return Anchor{Vertical: VerticalBottom, Horizontal: HorizontalLeft}
}

// String returns the "vertical-horizontal" form, e.g. "bottom-left".
func (a Anchor) String() string {
	return string(a.Vertical) + "-" + string(a.Horizontal)
}

// IsBottom returns true if the stack grows upwards from the bottom edge.
func (a Anchor) IsBottom() bool {
	return a.Vertical == VerticalBottom
}

// ValidAnchors returns every supported anchor.
func ValidAnchors() []Anchor {
	var anchors []Anchor
	for _, v := range []Vertical{VerticalTop, VerticalBottom} {
		for _, h := range []Horizontal{HorizontalLeft, HorizontalCenter, HorizontalRight} {
			anchors = append(anchors, Anchor{Vertical: v, Horizontal: h})
		}
	}
	return anchors
}

// ParseAnchor parses strings like "top-right" or "bottom-center".
func ParseAnchor(s string) (Anchor, error) {
	v, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "-")
	if !ok {
		return Anchor{}, fmt.Errorf("invalid anchor %q, expected <top|bottom>-<left|center|right>", s)
	}

	a := Anchor{Vertical: Vertical(v), Horizontal: Horizontal(h)}
	for _, valid := range ValidAnchors() {
		if a == valid {
			return a, nil
		}
	}
	return Anchor{}, fmt.Errorf("invalid anchor %q, expected <top|bottom>-<left|center|right>", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Anchor) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Anchor) UnmarshalText(text []byte) error {
	parsed, err := ParseAnchor(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
