package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/snackbar/internal/model"
)

func TestOptions_EffectiveDuration(t *testing.T) {
	sec := func(n int) *time.Duration {
		d := time.Duration(n) * time.Second
		return &d
	}

	tests := []struct {
		name            string
		providerPersist bool
		providerDur     time.Duration
		snack           model.Snack
		want            *time.Duration
	}{
		{
			name:        "provider default",
			providerDur: 2 * time.Second,
			want:        sec(2),
		},
		{
			name:        "snack duration wins over provider duration",
			providerDur: 2 * time.Second,
			snack:       model.Snack{AutoHideDuration: sec(5)},
			want:        sec(5),
		},
		{
			name:        "snack persist wins over snack duration",
			providerDur: 2 * time.Second,
			snack:       model.Snack{Persist: model.Ptr(true), AutoHideDuration: sec(5)},
			want:        nil,
		},
		{
			name:            "snack duration wins over provider persist",
			providerPersist: true,
			providerDur:     2 * time.Second,
			snack:           model.Snack{AutoHideDuration: sec(5)},
			want:            sec(5),
		},
		{
			name:            "provider persist wins over provider duration",
			providerPersist: true,
			providerDur:     2 * time.Second,
			want:            nil,
		},
		{
			name:            "explicit snack persist=false overrides provider persist",
			providerPersist: true,
			providerDur:     2 * time.Second,
			snack:           model.Snack{Persist: model.Ptr(false)},
			want:            sec(2),
		},
		{
			name:        "non-positive snack duration never expires",
			providerDur: 2 * time.Second,
			snack:       model.Snack{AutoHideDuration: sec(0)},
			want:        nil,
		},
		{
			name: "no provider duration",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Options{Persist: tt.providerPersist, AutoHideDuration: tt.providerDur}
			assert.Equal(t, tt.want, o.EffectiveDuration(tt.snack))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()

	assert.Equal(t, model.DefaultAnchor(), o.Anchor)
	assert.Equal(t, 2500*time.Millisecond, o.AutoHideDuration)
	assert.Equal(t, 3, o.MaxSnacks)
	assert.Equal(t, 12, o.Spacing)
	assert.False(t, o.Persist)
	assert.False(t, o.PreventDuplicates)
	assert.Equal(t, 250*time.Millisecond, o.TransitionDelay)
}

func TestOptions_Normalized(t *testing.T) {
	o := Options{MaxSnacks: -2, Spacing: -1, TransitionDelay: -time.Second}.normalized()

	assert.Equal(t, 1, o.MaxSnacks)
	assert.Equal(t, 0, o.Spacing)
	assert.Equal(t, time.Duration(0), o.TransitionDelay)
	assert.Equal(t, model.DefaultAnchor(), o.Anchor)
}
