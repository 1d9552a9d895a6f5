// Package tui provides the BubbleTea-based snack demo. It renders a
// provider's active snacks in the terminal and drives it from the keyboard.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/snackbar/internal/model"
	"github.com/jmylchreest/snackbar/internal/provider"
)

// DefaultExitDuration is how long a closing snack stays dimmed on screen.
const DefaultExitDuration = 300 * time.Millisecond

// maxPendingShown caps the pending list under the stack.
const maxPendingShown = 3

var demoMessages = map[model.Variant][]string{
	model.VariantInfo: {
		"New message from Alice",
		"Sync started",
		"3 updates available",
	},
	model.VariantSuccess: {
		"File saved",
		"Upload complete",
		"Settings applied",
	},
	model.VariantWarning: {
		"Battery at 15%",
		"Disk almost full",
		"Connection is slow",
	},
	model.VariantError: {
		"Failed to connect to server",
		"Permission denied",
		"Build failed",
	},
}

const longMessage = "Release notes\nQueue pacing now waits for exit transitions.\nSnacks can carry an action."

// Model is the demo TUI model.
type Model struct {
	snacks   *provider.Provider
	renderer *Renderer
	keys     KeyMap
	help     help.Model
	now      func() time.Time

	// State
	items        []provider.RenderItem
	exiting      map[model.ID]bool
	hovered      model.ID
	count        int
	anchors      []model.Anchor
	anchor       int
	exitDuration time.Duration
	width        int
	height       int
	ready        bool

	// Status message
	statusMsg string
	statusErr bool
}

// New creates a demo model driving snacks. renderer must be the provider's
// renderer.
func New(snacks *provider.Provider, renderer *Renderer) Model {
	anchors := model.ValidAnchors()
	current := snacks.Options().Anchor
	start := 0
	for i, a := range anchors {
		if a == current {
			start = i
		}
	}

	return Model{
		snacks:       snacks,
		renderer:     renderer,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		now:          time.Now,
		exiting:      make(map[model.ID]bool),
		anchors:      anchors,
		anchor:       start,
		exitDuration: DefaultExitDuration,
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return m.renderer.wait
}

type exitMsg struct {
	id model.ID
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case renderMsg:
		m.items = m.renderer.Items()
		cmds := m.sync()
		cmds = append(cmds, m.renderer.wait)
		return m, tea.Batch(cmds...)

	case exitMsg:
		delete(m.exiting, msg.id)
		m.snacks.HandleExited(msg.id)
		return m, nil

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil
	}

	return m, nil
}

// sync reports measured heights and schedules exit transitions for the
// current items.
func (m Model) sync() []tea.Cmd {
	var cmds []tea.Cmd
	for _, item := range m.items {
		if item.Open {
			if h := lipgloss.Height(renderSnack(item)); h != item.Height {
				m.snacks.HandleSetHeight(item.ID, h)
			}
			continue
		}
		if m.exiting[item.ID] {
			continue
		}
		m.exiting[item.ID] = true
		id := item.ID
		cmds = append(cmds, tea.Tick(m.exitDuration, func(time.Time) tea.Msg {
			return exitMsg{id: id}
		}))
	}
	return cmds
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Info):
		return m.enqueue(model.VariantInfo, false)
	case key.Matches(msg, m.keys.Success):
		return m.enqueue(model.VariantSuccess, false)
	case key.Matches(msg, m.keys.Warning):
		return m.enqueue(model.VariantWarning, false)
	case key.Matches(msg, m.keys.Error):
		return m.enqueue(model.VariantError, false)
	case key.Matches(msg, m.keys.Long):
		return m.enqueue(model.VariantInfo, true)

	case key.Matches(msg, m.keys.Dismiss):
		if item, ok := m.firstOpen(func(provider.RenderItem) bool { return true }); ok {
			m.snacks.HandleClose(item.ID, model.CloseReasonManually)
		}
		return m, nil

	case key.Matches(msg, m.keys.DismissAll):
		m.snacks.CloseAll(model.CloseReasonManually)
		return m, nil

	case key.Matches(msg, m.keys.Action):
		item, ok := m.firstOpen(func(it provider.RenderItem) bool { return it.Action != nil })
		if !ok {
			return m, status("No snack with an action", true)
		}
		m.snacks.HandleClose(item.ID, model.CloseReasonAction)
		return m, status(fmt.Sprintf("Action %q invoked", item.Action.Key), false)

	case key.Matches(msg, m.keys.Hover):
		if m.hovered != "" {
			m.snacks.HandleHover(m.hovered, false)
			m.hovered = ""
			return m, status("Hover released", false)
		}
		if item, ok := m.firstOpen(func(provider.RenderItem) bool { return true }); ok {
			m.hovered = item.ID
			m.snacks.HandleHover(item.ID, true)
			return m, status("Hovering oldest snack, its timer is paused", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Anchor):
		m.anchor = (m.anchor + 1) % len(m.anchors)
		next := m.anchors[m.anchor]
		m.snacks.UpdateOptions(func(o *provider.Options) {
			o.Anchor = next
		})
		return m, status("Anchor: "+next.String(), false)
	}

	return m, nil
}

// enqueue adds a demo snack. Every second snack persists and carries a
// dismiss action.
func (m Model) enqueue(v model.Variant, long bool) (tea.Model, tea.Cmd) {
	messages := demoMessages[v]
	msg := messages[m.count%len(messages)]
	if long {
		msg = longMessage
	}
	m.count++

	s := model.Snack{
		Message:       msg,
		Variant:       v,
		DynamicHeight: long,
	}
	if m.count%2 == 0 {
		s.Persist = model.Ptr(true)
		s.Action = &model.Action{Key: "dismiss", Label: "Dismiss"}
	}

	if _, ok := m.snacks.Enqueue(s); !ok {
		return m, status("Snack rejected", true)
	}
	return m, nil
}

// firstOpen returns the oldest open item matching match.
func (m Model) firstOpen(match func(provider.RenderItem) bool) (provider.RenderItem, bool) {
	for _, item := range m.items {
		if item.Open && match(item) {
			return item, true
		}
	}
	return provider.RenderItem{}, false
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	snap := m.snacks.Snapshot()
	header := headerStyle.Render("snackbar demo") + dimStyle.Render(fmt.Sprintf(
		"  anchor %s · %d active · %d pending",
		m.anchors[m.anchor], len(snap.Active), len(snap.Pending),
	))

	pending := m.viewPending(snap.Pending)

	var footer string
	if m.statusMsg != "" {
		style := statusStyle
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		footer = style.Render(m.statusMsg)
	} else {
		footer = m.help.View(m.keys)
	}

	rows := m.height - lipgloss.Height(header) - lipgloss.Height(pending) - lipgloss.Height(footer)
	blocks := make([]block, 0, len(m.items))
	for _, item := range m.items {
		blocks = append(blocks, block{offset: item.Offset, text: renderSnack(item)})
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		canvas(blocks, rows, m.width, m.anchors[m.anchor]),
		pending,
		footer,
	)
}

// viewPending lists the first few queued snacks with their age.
func (m Model) viewPending(pending []model.Item) string {
	if len(pending) == 0 {
		return dimStyle.Render("queue empty")
	}

	now := m.now()
	lines := make([]string, 0, maxPendingShown+1)
	for i, it := range pending {
		if i == maxPendingShown {
			lines = append(lines, fmt.Sprintf("  … and %d more", len(pending)-maxPendingShown))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s %s (queued %s)",
			variantIcon(it.Variant),
			it.MessageTruncated(40),
			humanize.RelTime(it.EnqueuedAt, now, "ago", "from now"),
		))
	}
	return dimStyle.Render(strings.Join(lines, "\n"))
}

// RunOptions configures the demo.
type RunOptions struct {
	Options  provider.Options
	Hooks    []provider.Hooks
	Observer provider.Observer
	Logger   *slog.Logger
}

// Run starts the demo and blocks until the user quits.
func Run(opts RunOptions) error {
	renderer := NewRenderer()
	snacks := provider.New(provider.Config{
		Options:  opts.Options,
		Renderer: renderer,
		Observer: opts.Observer,
		Logger:   opts.Logger,
	})
	defer snacks.Shutdown()

	for _, h := range opts.Hooks {
		snacks.AddHooks(h)
	}

	p := tea.NewProgram(New(snacks, renderer), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
