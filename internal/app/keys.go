package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keyboard bindings for the TUI.
type KeyMap struct {
	Submit key.Binding
	Leave  key.Binding
	Users  key.Binding
	Jump   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send / connect"),
		),
		Leave: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "leave lobby"),
		),
		Users: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "userlist"),
		),
		Jump: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "jump to newest"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
