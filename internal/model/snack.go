// Package model defines the core data structures for snackbar.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ID identifies a snack for its whole lifetime in a queue.
type ID string

// Variant selects the visual/audible flavour of a snack.
type Variant string

const (
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantError   Variant = "error"
)

// ValidVariants returns all valid variant values.
func ValidVariants() []Variant {
	return []Variant{VariantInfo, VariantSuccess, VariantWarning, VariantError}
}

// ParseVariant parses a variant name. An empty string yields VariantInfo.
func ParseVariant(s string) (Variant, error) {
	if s == "" {
		return VariantInfo, nil
	}
	for _, v := range ValidVariants() {
		if string(v) == strings.ToLower(s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid variant %q, must be one of: %v", s, ValidVariants())
}

// CloseReason describes why a snack was asked to close.
type CloseReason string

const (
	// CloseReasonClickaway is reported by renderers for clicks outside a snack.
	// It never closes anything.
	CloseReasonClickaway CloseReason = "clickaway"
	// CloseReasonTimeout means the auto-hide timer fired.
	CloseReasonTimeout CloseReason = "timeout"
	// CloseReasonManually means the snack was closed through the API or by the user.
	CloseReasonManually CloseReason = "manually"
	// CloseReasonForced means the queue evicted the snack to make room.
	CloseReasonForced CloseReason = "forced"
	// CloseReasonAction means the user activated the snack's action.
	CloseReasonAction CloseReason = "action"
)

// DefaultHeight is the height estimate used until a renderer measures a snack.
const DefaultHeight = 48

// Action is an optional dismiss/action affordance attached to a snack.
type Action struct {
	Key   string `json:"key" yaml:"key" toml:"key"`
	Label string `json:"label" yaml:"label" toml:"label"`
}

// Snack is what callers enqueue. Nil pointer fields fall back to the
// provider-level options.
type Snack struct {
	ID               ID
	Message          string
	Variant          Variant
	Persist          *bool
	AutoHideDuration *time.Duration
	Action           *Action
	DynamicHeight    bool
	Meta             map[string]string
}

// Item is the merged, stored form of a snack.
type Item struct {
	ID      ID      `json:"id" yaml:"id"`
	Message string  `json:"message" yaml:"message"`
	Variant Variant `json:"variant" yaml:"variant"`

	// Open is true while visible; false marks "closing" until the exit
	// transition completes.
	Open bool `json:"open" yaml:"open"`

	// AutoHideDuration is nil when the snack never expires.
	AutoHideDuration *time.Duration `json:"auto_hide_duration,omitempty" yaml:"auto_hide_duration,omitempty"`

	Height        int               `json:"height" yaml:"height"`
	Action        *Action           `json:"action,omitempty" yaml:"action,omitempty"`
	DynamicHeight bool              `json:"dynamic_height,omitempty" yaml:"dynamic_height,omitempty"`
	Meta          map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
	EnqueuedAt    time.Time         `json:"enqueued_at" yaml:"enqueued_at"`
}

// Validation errors.
var (
	ErrEmptyID      = errors.New("snack id cannot be empty")
	ErrEmptyMessage = errors.New("snack message cannot be empty")
)

// Validate checks that the item has all required fields.
func (it *Item) Validate() error {
	if it.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(it.Message) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Persistent reports whether the item never auto-expires.
func (it *Item) Persistent() bool {
	return it.AutoHideDuration == nil
}

// Clone returns a copy that shares no mutable state with the original.
func (it *Item) Clone() Item {
	c := *it
	if it.AutoHideDuration != nil {
		d := *it.AutoHideDuration
		c.AutoHideDuration = &d
	}
	if it.Action != nil {
		a := *it.Action
		c.Action = &a
	}
	if it.Meta != nil {
		c.Meta = make(map[string]string, len(it.Meta))
		for k, v := range it.Meta {
			c.Meta[k] = v
		}
	}
	return c
}

// MessageTruncated returns the message truncated to maxLen characters.
func (it *Item) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	msg := strings.Join(strings.Fields(it.Message), " ")
	runes := []rune(msg)
	if len(runes) <= maxLen {
		return msg
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// Patch is a shallow update for an item. Nil fields are left untouched.
type Patch struct {
	Message          *string
	Variant          *Variant
	Open             *bool
	AutoHideDuration **time.Duration
	Height           *int
	Action           **Action
	Meta             map[string]string
}

// Apply merges the non-nil fields of p into it.
func (p Patch) Apply(it *Item) {
	if p.Message != nil {
		it.Message = *p.Message
	}
	if p.Variant != nil {
		it.Variant = *p.Variant
	}
	if p.Open != nil {
		// Closing is one-way.
		if it.Open || !*p.Open {
			it.Open = *p.Open
		}
	}
	if p.AutoHideDuration != nil {
		it.AutoHideDuration = *p.AutoHideDuration
	}
	if p.Height != nil {
		it.Height = *p.Height
	}
	if p.Action != nil {
		it.Action = *p.Action
	}
	if p.Meta != nil {
		if it.Meta == nil {
			it.Meta = make(map[string]string, len(p.Meta))
		}
		for k, v := range p.Meta {
			it.Meta[k] = v
		}
	}
}

// Ptr returns a pointer to v. Handy for building Snack and Patch literals.
func Ptr[T any](v T) *T {
	return &v
}
