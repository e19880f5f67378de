package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Help toggle
	Help key.Binding

	// Sync
	Refresh  key.Binding
	FullSync key.Binding
	Interval key.Binding

	// Account management
	AddAccount  key.Binding
	NextAccount key.Binding
	Disconnect  key.Binding

	// Sender actions
	Allow       key.Binding
	Block       key.Binding
	Neutral     key.Binding
	Delete      key.Binding
	DeleteAll   key.Binding
	BlockFilter key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "expand sender"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync now"),
		),
		FullSync: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "full re-sync"),
		),
		Interval: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle sync interval"),
		),
		AddAccount: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add account"),
		),
		NextAccount: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next account"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "disconnect account"),
		),
		Allow: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "allow sender"),
		),
		Block: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "block sender"),
		),
		Neutral: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "reset sender"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete message"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all from sender"),
		),
		BlockFilter: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "move blocked to folder"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Refresh,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Help, k.Refresh, k.FullSync, k.Interval},
		{k.AddAccount, k.NextAccount, k.Disconnect},
		{k.Allow, k.Block, k.Neutral, k.Delete, k.DeleteAll, k.BlockFilter},
	}
}
