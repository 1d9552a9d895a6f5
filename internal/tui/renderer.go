package tui

import (
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/snackbar/internal/provider"
)

// Renderer hands provider renders to the Bubble Tea program. Render never
// blocks: it stores the latest item set and wakes the program, which picks
// it up on its own goroutine. Intermediate states may be coalesced.
type Renderer struct {
	mu      sync.Mutex
	items   []provider.RenderItem
	changed chan struct{}
}

var _ provider.Renderer = (*Renderer)(nil)

// NewRenderer creates a terminal renderer.
func NewRenderer() *Renderer {
	return &Renderer{changed: make(chan struct{}, 1)}
}

// Render implements provider.Renderer.
func (r *Renderer) Render(items []provider.RenderItem) {
	r.mu.Lock()
	r.items = slices.Clone(items)
	r.mu.Unlock()

	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// Items returns the most recently rendered set.
func (r *Renderer) Items() []provider.RenderItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.items)
}

type renderMsg struct{}

// wait blocks until the next render.
func (r *Renderer) wait() tea.Msg {
	<-r.changed
	return renderMsg{}
}
