package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

var demoStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newDemo(t *testing.T, maxSnacks int) (Model, *provider.Provider) {
	t.Helper()

	renderer := NewRenderer()
	opts := provider.DefaultOptions()
	opts.MaxSnacks = maxSnacks
	opts.Spacing = 1
	opts.TransitionDelay = 0

	p := provider.New(provider.Config{
		Options:  opts,
		Renderer: renderer,
		Clock:    clockwork.NewFakeClockAt(demoStart),
		IDs:      model.NewSequenceGenerator("snack"),
	})
	t.Cleanup(p.Shutdown)

	m := New(p, renderer)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	return m, p
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	if k == "tab" {
		return update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func TestRenderer_CoalescesRenders(t *testing.T) {
	r := NewRenderer()
	r.Render([]provider.RenderItem{{ID: "a"}})
	r.Render([]provider.RenderItem{{ID: "a"}, {ID: "b"}})

	assert.Equal(t, renderMsg{}, r.wait())
	items := r.Items()
	require.Len(t, items, 2)

	items[0].ID = "changed"
	assert.Equal(t, model.ID("a"), r.Items()[0].ID)

	select {
	case <-r.changed:
		t.Fatal("renders should coalesce into one wake-up")
	default:
	}
}

func TestCanvas(t *testing.T) {
	blocks := []block{
		{offset: 0, text: "aa\naa"},
		{offset: 3, text: "b"},
	}

	t.Run("bottom", func(t *testing.T) {
		out := canvas(blocks, 6, 4, model.Anchor{Vertical: model.VerticalBottom, Horizontal: model.HorizontalLeft})
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 6)
		assert.Equal(t, []string{"", "", "b", "", "aa", "aa"}, trimAll(lines))
	})

	t.Run("top right", func(t *testing.T) {
		out := canvas(blocks, 5, 4, model.Anchor{Vertical: model.VerticalTop, Horizontal: model.HorizontalRight})
		lines := strings.Split(out, "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, "  aa", lines[0])
		assert.Equal(t, []string{"aa", "aa", "", "b", ""}, trimAll(lines))
	})

	t.Run("clipped", func(t *testing.T) {
		out := canvas(blocks, 2, 4, model.Anchor{Vertical: model.VerticalTop, Horizontal: model.HorizontalLeft})
		assert.Equal(t, []string{"aa", "aa"}, trimAll(strings.Split(out, "\n")))
	})

	assert.Empty(t, canvas(blocks, 0, 4, model.DefaultAnchor()))
}

func trimAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func TestModel_EnqueueReportsMeasuredHeight(t *testing.T) {
	m, p := newDemo(t, 3)

	m = press(t, m, "1")
	m = update(t, m, renderMsg{})

	snap := p.Snapshot()
	require.Len(t, snap.Active, 1)
	assert.Equal(t, "New message from Alice", snap.Active[0].Message)
	assert.Equal(t, model.VariantInfo, snap.Active[0].Variant)
	assert.Equal(t, 3, snap.Active[0].Height, "one line plus borders")
	assert.Contains(t, m.View(), "New message from Alice")
}

func TestModel_EverySecondSnackPersists(t *testing.T) {
	m, p := newDemo(t, 3)

	m = press(t, m, "2")
	m = press(t, m, "3")
	_ = m

	snap := p.Snapshot()
	require.Len(t, snap.Active, 2)
	assert.False(t, snap.Active[0].Persistent())
	assert.Nil(t, snap.Active[0].Action)
	assert.True(t, snap.Active[1].Persistent())
	require.NotNil(t, snap.Active[1].Action)
	assert.Equal(t, "Dismiss", snap.Active[1].Action.Label)
}

func TestModel_DismissRunsExitTransition(t *testing.T) {
	m, p := newDemo(t, 1)

	m = press(t, m, "1")
	m = press(t, m, "4")
	m = update(t, m, renderMsg{})
	require.Len(t, p.Snapshot().Pending, 1)

	m = press(t, m, "x")
	m = update(t, m, renderMsg{})
	first := m.items[0]
	assert.False(t, first.Open)
	assert.True(t, m.exiting[first.ID])

	m = update(t, m, exitMsg{id: first.ID})
	assert.False(t, m.exiting[first.ID])

	snap := p.Snapshot()
	require.Len(t, snap.Active, 1)
	assert.Equal(t, model.VariantError, snap.Active[0].Variant)
	assert.Empty(t, snap.Pending)
}

func TestModel_ActionKey(t *testing.T) {
	m, p := newDemo(t, 3)

	next, cmd := press(t, m, "1").Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, statusMsg{text: "No snack with an action", isErr: true}, cmd())

	m = press(t, m, "1")
	m = update(t, m, renderMsg{})
	second := m.items[1]

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	require.NotNil(t, cmd)
	assert.Equal(t, statusMsg{text: `Action "dismiss" invoked`}, cmd())

	for _, it := range p.Snapshot().Active {
		assert.Equal(t, it.ID != second.ID, it.Open)
	}
}

func TestModel_AnchorCycles(t *testing.T) {
	m, p := newDemo(t, 3)
	require.Equal(t, model.DefaultAnchor(), p.Options().Anchor)

	m = press(t, m, "tab")
	assert.Equal(t, model.Anchor{Vertical: model.VerticalBottom, Horizontal: model.HorizontalCenter}, p.Options().Anchor)
	assert.Contains(t, m.View(), "anchor bottom-center")
}

func TestModel_HoverPausesTimer(t *testing.T) {
	m, p := newDemo(t, 3)

	m = press(t, m, "1")
	m = update(t, m, renderMsg{})
	m = press(t, m, "h")
	assert.Equal(t, m.items[0].ID, m.hovered)

	m = press(t, m, "h")
	assert.Empty(t, m.hovered)
	assert.Len(t, p.Snapshot().Active, 1)
}

func TestModel_ViewPending(t *testing.T) {
	m, _ := newDemo(t, 1)
	m.now = func() time.Time { return demoStart.Add(3 * time.Second) }

	assert.Contains(t, m.viewPending(nil), "queue empty")

	m = press(t, m, "1")
	m = press(t, m, "2")
	out := m.View()
	assert.Contains(t, out, "1 active · 1 pending")
	assert.Contains(t, out, "Upload complete (queued 3 seconds ago)")
}
