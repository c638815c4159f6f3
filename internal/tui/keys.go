package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up, Down     key.Binding
	Add          key.Binding
	Toggle       key.Binding
	Edit         key.Binding
	Delete       key.Binding
	ToggleAll    key.Binding
	Clear        key.Binding
	NextFilter   key.Binding
	FilterAll    key.Binding
	FilterActive key.Binding
	FilterDone   key.Binding
	Copy         key.Binding
	Dismiss      key.Binding
	Help         key.Binding
	Quit         key.Binding
	Submit       key.Binding
	Cancel       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Add:          key.NewBinding(key.WithKeys("a", "n"), key.WithHelp("a", "add")),
		Toggle:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Edit:         key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("e", "edit")),
		Delete:       key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		ToggleAll:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle all")),
		Clear:        key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear completed")),
		NextFilter:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "filter")),
		FilterAll:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "all")),
		FilterActive: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "active")),
		FilterDone:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "completed")),
		Copy:         key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Dismiss:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Edit, k.Delete, k.NextFilter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Add, k.Toggle, k.Edit},
		{k.Delete, k.ToggleAll, k.Clear, k.Copy, k.Dismiss},
		{k.NextFilter, k.FilterAll, k.FilterActive, k.FilterDone},
		{k.Help, k.Quit},
	}
}
