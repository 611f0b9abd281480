package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the stream view key bindings with built-in help text.
type KeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Escape    key.Binding

	Filter  key.Binding
	Command key.Binding

	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Head     key.Binding
	Tail     key.Binding

	Swap      key.Binding
	Highlight key.Binding
	Analytics key.Binding
	Chart     key.Binding

	HistoryBack    key.Binding
	HistoryForward key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("escape", "esc"),
			key.WithHelp("esc", "cancel"),
		),

		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "regex filter"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("pgdn", "page down"),
		),
		Head: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "stick to oldest"),
		),
		Tail: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "stick to newest"),
		),

		Swap: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "swap channel"),
		),
		Highlight: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "toggle highlight"),
		),
		Analytics: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle analytics"),
		),
		Chart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "toggle rate chart"),
		),

		HistoryBack: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous entry"),
		),
		HistoryForward: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next entry"),
		),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Command, k.Swap, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Head, k.Tail},
		{k.Filter, k.Command, k.Swap, k.Highlight, k.Analytics, k.Chart},
		{k.Help, k.Escape, k.Quit, k.ForceQuit},
	}
}
