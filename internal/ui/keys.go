package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	Escape     key.Binding
	Logout     key.Binding

	// View switching
	ViewMovies      key.Binding
	ViewUpload      key.Binding
	ViewDiagnostics key.Binding

	// Movie list
	PrevPage   key.Binding
	NextPage   key.Binding
	CycleSort  key.Binding
	ToggleSort key.Binding
	Reload     key.Binding
	Search     key.Binding
	Details    key.Binding

	// Upload
	Submit     key.Binding
	RefreshJob key.Binding
	ReloadJobs key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Diagnostics
	ToggleFollow key.Binding
	CycleLevel   key.Binding

	// Forms
	Confirm   key.Binding
	NextField key.Binding
	PrevField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
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
			key.WithHelp("tab", "Cycle focus"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to movies"),
		),
		Logout: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Log out"),
		),

		// View switching
		ViewMovies: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Movie list"),
		),
		ViewUpload: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Upload CSV"),
		),
		ViewDiagnostics: key.NewBinding(
			key.WithKeys("l", "ctrl+l"),
			key.WithHelp("l", "Diagnostics log"),
		),

		// Movie list
		PrevPage: key.NewBinding(
			key.WithKeys("left", "["),
			key.WithHelp("←/[", "Previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "]"),
			key.WithHelp("→/]", "Next page"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Sort by next column"),
		),
		ToggleSort: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Flip sort direction"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload page"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search movies"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Movie details"),
		),

		// Upload
		Submit: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Upload selected file"),
		),
		RefreshJob: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh selected job"),
		),
		ReloadJobs: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Reload job list"),
		),

		// Navigation
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
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		// Diagnostics
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle level filter"),
		),

		// Forms
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Views
		{k.ViewMovies, k.ViewUpload, k.ViewDiagnostics, k.Tab, k.Escape},
		// Movie list
		{k.PrevPage, k.NextPage, k.CycleSort, k.ToggleSort, k.Reload, k.Search, k.Details},
		// Upload
		{k.Confirm, k.Submit, k.RefreshJob, k.ReloadJobs},
		// Diagnostics
		{k.Up, k.Down, k.Top, k.Bottom, k.ToggleFollow, k.CycleLevel},
		// General
		{k.CycleTheme, k.Logout, k.Help, k.Quit},
	}
}
