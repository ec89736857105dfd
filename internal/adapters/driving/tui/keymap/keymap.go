// Package keymap defines keybindings for the terminal views.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the keybindings of the wait view.
type KeyMap struct {
	// Detach stops waiting. The operation itself keeps running.
	Detach key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Detach: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "stop waiting"),
		),
	}
}

// ShortHelp returns bindings for the short help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Detach}
}

// FullHelp returns bindings for the full help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
