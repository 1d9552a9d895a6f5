package provider

import (
	"time"

	"github.com/jmylchreest/snackbar/internal/model"
)

// Default option values.
const (
	DefaultAutoHideDuration = 2500 * time.Millisecond
	DefaultMaxSnacks        = 3
	DefaultSpacing          = 12
	DefaultTransitionDelay  = 250 * time.Millisecond
)

// Options are the provider-level defaults and layout settings.
type Options struct {
	// Anchor is the screen corner or edge the stack grows from.
	Anchor model.Anchor

	// Persist makes snacks that do not say otherwise stay until closed.
	Persist bool

	// AutoHideDuration is the default display time. Zero or negative means
	// snacks do not expire unless they carry their own duration.
	AutoHideDuration time.Duration

	MaxSnacks         int
	Spacing           int
	PreventDuplicates bool

	// Action is attached to snacks that do not carry one.
	Action *model.Action

	// TransitionDelay separates an exit from the next promotion.
	TransitionDelay time.Duration

	PauseOnHover bool
	HideIcon     bool
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		Anchor:           model.DefaultAnchor(),
		AutoHideDuration: DefaultAutoHideDuration,
		MaxSnacks:        DefaultMaxSnacks,
		Spacing:          DefaultSpacing,
		TransitionDelay:  DefaultTransitionDelay,
		PauseOnHover:     true,
	}
}

// normalized clamps values that would break the queue.
func (o Options) normalized() Options {
	if o.MaxSnacks < 1 {
		o.MaxSnacks = 1
	}
	if o.Spacing < 0 {
		o.Spacing = 0
	}
	if o.TransitionDelay < 0 {
		o.TransitionDelay = 0
	}
	if o.Anchor == (model.Anchor{}) {
		o.Anchor = model.DefaultAnchor()
	}
	return o
}

// EffectiveDuration resolves how long s stays visible. Nil means it never
// expires. Precedence, highest first: the snack's explicit Persist, the
// snack's own duration, the provider Persist default, the provider duration.
func (o Options) EffectiveDuration(s model.Snack) *time.Duration {
	if s.Persist != nil {
		if *s.Persist {
			return nil
		}
		if s.AutoHideDuration != nil {
			return positive(*s.AutoHideDuration)
		}
		return positive(o.AutoHideDuration)
	}
	if s.AutoHideDuration != nil {
		return positive(*s.AutoHideDuration)
	}
	if o.Persist {
		return nil
	}
	return positive(o.AutoHideDuration)
}

func positive(d time.Duration) *time.Duration {
	if d <= 0 {
		return nil
	}
	return &d
}
