package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Edit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Clear   key.Binding
	Submit  key.Binding
	Reset   key.Binding
	Dismiss key.Binding
	Isin    key.Binding
	Export  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Edit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit")),
	Next:    key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→", "next option")),
	Prev:    key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←", "prev option")),
	Clear:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "clear")),
	Submit:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "optimize")),
	Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss")),
	Isin:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "isin list")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Next, k.Clear, k.Submit, k.Reset, k.Dismiss, k.Isin, k.Export, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Edit, k.Next, k.Prev, k.Clear}, {k.Submit, k.Reset, k.Dismiss, k.Isin, k.Export, k.Quit}}
}

var (
	inputConfirm = key.NewBinding(key.WithKeys("enter"))
	inputCancel  = key.NewBinding(key.WithKeys("esc"))
	forceQuit    = key.NewBinding(key.WithKeys("ctrl+c"))
)
