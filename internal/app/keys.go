package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the application key bindings. It implements help.KeyMap.
type KeyMap struct {
	Toggle   key.Binding
	Stop     key.Binding
	Schedule key.Binding
	Programs key.Binding
	About    key.Binding
	Close    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "play/stop")),
		Stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Schedule: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "palinsesto")),
		Programs: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "programmi")),
		About:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "chi siamo")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "chiudi")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns the bindings shown in the compact help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Schedule, k.Programs, k.About, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop},
		{k.Schedule, k.Programs, k.About, k.Close},
		{k.Help, k.Quit},
	}
}
