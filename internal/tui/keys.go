package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	up        key.Binding
	down      key.Binding
	tab       key.Binding
	backtab   key.Binding
	quit      key.Binding
	newItem   key.Binding
	toggle    key.Binding
	delete    key.Binding
	undo      key.Binding
	increment key.Binding
	decrement key.Binding
	copy      key.Binding
	sync      key.Binding
	enter     key.Binding
	esc       key.Binding
}

var keys = keyMap{
	up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next list")),
	backtab:   key.NewBinding(key.WithKeys("shift+tab")),
	quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	newItem:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "done")),
	delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	undo:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	increment: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "more")),
	decrement: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "less")),
	copy:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
	sync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
	enter:     key.NewBinding(key.WithKeys("enter")),
	esc:       key.NewBinding(key.WithKeys("esc")),
}

func (k keyMap) boardHelp() []key.Binding {
	return []key.Binding{k.newItem, k.toggle, k.increment, k.decrement, k.delete, k.undo, k.copy, k.sync, k.tab, k.quit}
}
