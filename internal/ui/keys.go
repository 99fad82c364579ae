package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Refresh    key.Binding
	Logout     key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Course actions
	ToggleWishlist key.Binding
	AddToCart      key.Binding
	Progress       key.Binding

	// Cart actions
	RemoveFromCart key.Binding
	ClearCart      key.Binding
	ToggleSelected key.Binding

	// Notification actions
	MarkRead    key.Binding
	MarkAllRead key.Binding
	Delete      key.Binding
	ClearAll    key.Binding

	// Logs actions
	ToggleFollow key.Binding
	Search       key.Binding
	NextMatch    key.Binding
	PrevMatch    key.Binding
	Filter       key.Binding

	// Forms
	Confirm          key.Binding
	ToggleRememberMe key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next view"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous view"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log out"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "Page down"),
		),

		ToggleWishlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "Toggle wishlist"),
		),
		AddToCart: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add to cart"),
		),
		Progress: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Load progress"),
		),

		RemoveFromCart: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Remove from cart"),
		),
		ClearCart: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Clear cart"),
		),
		ToggleSelected: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Select for checkout"),
		),

		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Mark read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "Mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "Clear all"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search logs"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Next match"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "Previous match"),
		),
		Filter: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "Filter by component"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		ToggleRememberMe: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Remember me"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.Tab, k.ShiftTab, k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown},
		// Courses, wishlist and cart
		{k.ToggleWishlist, k.AddToCart, k.Progress, k.RemoveFromCart, k.ClearCart, k.ToggleSelected},
		// Notifications and logs
		{k.MarkRead, k.MarkAllRead, k.Delete, k.ClearAll, k.Search, k.NextMatch, k.PrevMatch, k.Filter},
		// General
		{k.Refresh, k.Logout, k.CycleTheme, k.ToggleRememberMe, k.Help, k.Quit},
	}
}
