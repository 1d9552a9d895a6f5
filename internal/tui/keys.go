package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the demo.
type KeyMap struct {
	// Enqueue
	Info    key.Binding
	Success key.Binding
	Warning key.Binding
	Error   key.Binding
	Long    key.Binding

	// Interact
	Dismiss    key.Binding
	DismissAll key.Binding
	Action     key.Binding
	Hover      key.Binding
	Anchor     key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Info, k.Success, k.Warning, k.Error, k.Dismiss, k.Anchor, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Info, k.Success, k.Warning, k.Error, k.Long},
		{k.Dismiss, k.DismissAll, k.Action, k.Hover},
		{k.Anchor, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Info: key.NewBinding(
			key.WithKeys("1", "i"),
			key.WithHelp("1/i", "info"),
		),
		Success: key.NewBinding(
			key.WithKeys("2", "s"),
			key.WithHelp("2/s", "success"),
		),
		Warning: key.NewBinding(
			key.WithKeys("3", "w"),
			key.WithHelp("3/w", "warning"),
		),
		Error: key.NewBinding(
			key.WithKeys("4", "e"),
			key.WithHelp("4/e", "error"),
		),
		Long: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "multi-line"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x", "d"),
			key.WithHelp("x", "dismiss oldest"),
		),
		DismissAll: key.NewBinding(
			key.WithKeys("X", "D"),
			key.WithHelp("X", "dismiss all"),
		),
		Action: key.NewBinding(
			key.WithKeys("a", "enter"),
			key.WithHelp("a", "run action"),
		),
		Hover: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle hover"),
		),
		Anchor: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "move anchor"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
