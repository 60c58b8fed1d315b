package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Back      key.Binding
	Quit      key.Binding
	Refresh   key.Binding
	NextFocus key.Binding
	PrevFocus key.Binding
	Toggle    key.Binding
	Lead      key.Binding
	SelectAll key.Binding
	Approve   key.Binding
	Reject    key.Binding
	Clear     key.Binding
	Help      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "review")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		NextFocus: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		PrevFocus: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "include")),
		Lead:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "mark lead")),
		SelectAll: key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "select all")),
		Approve:   key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "approve")),
		Reject:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reject")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap for the review screen.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextFocus, k.Toggle, k.Lead, k.Approve, k.Reject, k.Back, k.Help}
}

// FullHelp implements help.KeyMap for the review screen.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Lead, k.SelectAll},
		{k.NextFocus, k.PrevFocus, k.Approve, k.Reject, k.Clear},
		{k.Back, k.Quit, k.Help},
	}
}
