package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	toggle, next, prev, volUp, volDown, seekBack, seekForward, quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		prev: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),
		volUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "vol up"),
		),
		volDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "vol down"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "-5s"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "+5s"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.next, k.prev, k.volUp, k.volDown, k.seekBack, k.seekForward, k.quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
