package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit           key.Binding
	Help           key.Binding
	CycleTheme     key.Binding
	Tab            key.Binding
	ShiftTab       key.Binding
	Escape         key.Binding
	Refresh        key.Binding
	Logout         key.Binding
	ChangePassword key.Binding

	// View switching
	ViewDashboard    key.Binding
	ViewBooks        key.Binding
	ViewPending      key.Binding
	ViewTransactions key.Binding
	ViewAdmins       key.Binding
	ViewLogs         key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Top      key.Binding
	Bottom   key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// List actions
	Search      key.Binding
	Add         key.Binding
	Edit        key.Binding
	Delete      key.Binding
	IssueBook   key.Binding
	ReturnBook  key.Binding
	History     key.Binding
	IssuedCount key.Binding
	Export      key.Binding
	Import      key.Binding
	PhoneSearch key.Binding

	// Dashboard
	PrevYear  key.Binding
	NextYear  key.Binding
	PrevMonth key.Binding
	NextMonth key.Binding

	// Logs
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
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
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
			key.WithHelp("esc", "Clear search / close"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Log out"),
		),
		ChangePassword: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "Change password"),
		),

		ViewDashboard: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "Dashboard"),
		),
		ViewBooks: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "Books"),
		),
		ViewPending: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "Due & pending"),
		),
		ViewTransactions: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "Transactions"),
		),
		ViewAdmins: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "Admins"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "Logs"),
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
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown", "right"),
			key.WithHelp("]", "Next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup", "left"),
			key.WithHelp("[", "Previous page"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "Edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete"),
		),
		IssueBook: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "Issue book"),
		),
		ReturnBook: key.NewBinding(
			key.WithKeys("R", "enter"),
			key.WithHelp("R", "Return book"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "Returned history"),
		),
		IssuedCount: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Times issued"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export catalog"),
		),
		Import: key.NewBinding(
			key.WithKeys("I"),
			key.WithHelp("I", "Import catalog"),
		),
		PhoneSearch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Find by phone"),
		),

		PrevYear: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left", "Previous year"),
		),
		NextYear: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right", "Next year"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up", "Previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down", "Next month"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),
		CycleLevel: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Cycle level"),
		),

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
		{k.ViewDashboard, k.ViewBooks, k.ViewPending, k.ViewTransactions, k.ViewAdmins, k.ViewLogs, k.Tab},
		{k.Up, k.Down, k.Top, k.Bottom, k.NextPage, k.PrevPage},
		{k.Search, k.Add, k.Edit, k.Delete, k.IssueBook, k.ReturnBook},
		{k.History, k.IssuedCount, k.Export, k.Import, k.PhoneSearch},
		{k.ToggleFollow, k.CycleLevel},
		{k.Refresh, k.ChangePassword, k.Logout, k.CycleTheme, k.Help, k.Quit},
	}
}
