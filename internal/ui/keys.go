package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard bindings for the application
type KeyMap struct {
	// Navigation
	Quit        key.Binding
	Help        key.Binding
	CloseDialog key.Binding
	NextPane    key.Binding
	PrevPane    key.Binding
	Debug       key.Binding

	// Result tabs
	TabData     key.Binding
	TabInsights key.Binding
	TabPlan     key.Binding

	// Grid navigation
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Home     key.Binding
	End      key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Select   key.Binding

	// Session actions
	Upload   key.Binding
	Download key.Binding
	Diagram  key.Binding
	Refresh  key.Binding
	Export   key.Binding
	CopyCell key.Binding
	CopyRow  key.Binding
	Close    key.Binding

	// Editor actions
	Execute       key.Binding
	Explain       key.Binding
	Assist        key.Binding
	HistoryPrev   key.Binding
	HistoryNext   key.Binding
	HistorySearch key.Binding
	SaveSnippet   key.Binding
	Snippets      key.Binding
}

// DefaultKeyMap returns the default keyboard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		CloseDialog: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close dialog"),
		),
		NextPane: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevPane: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous pane"),
		),
		Debug: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "debug panel"),
		),

		// Result tabs
		TabData: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "data"),
		),
		TabInsights: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "insights"),
		),
		TabPlan: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "explain plan"),
		),

		// Grid navigation (vim-like)
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "column left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "column right"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "bottom"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown", "]"),
			key.WithHelp("n/]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup", "["),
			key.WithHelp("p/[", "previous page"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open table"),
		),

		// Session actions
		Upload: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open database"),
		),
		Download: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "save database"),
		),
		Diagram: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "schema diagram"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry insights"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export results"),
		),
		CopyCell: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy cell"),
		),
		CopyRow: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy row"),
		),
		Close: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "close database"),
		),

		// Editor actions
		Execute: key.NewBinding(
			key.WithKeys("ctrl+enter", "ctrl+e"),
			key.WithHelp("ctrl+e", "run query"),
		),
		Explain: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "explain query"),
		),
		Assist: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "ask AI for SQL"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "previous query"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next query"),
		),
		HistorySearch: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "search history"),
		),
		SaveSnippet: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save snippet"),
		),
		Snippets: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "snippets"),
		),
	}
}

// ShortHelp returns a quick help view for the key bindings
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help, k.Upload, k.NextPane, k.Execute}
}

// FullHelp returns the full help view for all key bindings
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Help, k.CloseDialog, k.Debug},
		{k.NextPane, k.PrevPane},
		{k.TabData, k.TabInsights, k.TabPlan},
		{k.Up, k.Down, k.Left, k.Right, k.Home, k.End},
		{k.Select, k.NextPage, k.PrevPage},
		{k.Upload, k.Download, k.Diagram, k.Close},
		{k.Refresh, k.Export, k.CopyCell, k.CopyRow},
		{k.Execute, k.Explain, k.Assist},
		{k.HistoryPrev, k.HistoryNext, k.HistorySearch},
		{k.SaveSnippet, k.Snippets},
	}
}
