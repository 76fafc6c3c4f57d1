package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	HomeTab   key.Binding
	SearchTab key.Binding
	FavsTab   key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Back      key.Binding
	Retry     key.Binding
	Focus     key.Binding
	Submit    key.Binding
	Blur      key.Binding
	Clear     key.Binding
	CycleType key.Binding
	Toggle    key.Binding
	Remove    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab")),
		HomeTab:   key.NewBinding(key.WithKeys("1")),
		SearchTab: key.NewBinding(key.WithKeys("2")),
		FavsTab:   key.NewBinding(key.WithKeys("3")),
		Up:        key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("j/k", "nav")),
		Down:      key.NewBinding(key.WithKeys("j", "down")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open")),
		Back:      key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Focus:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "search")),
		Blur:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "done")),
		Clear:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear")),
		CycleType: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "dish type")),
		Toggle:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Remove:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
	}
}
