package styles

import "github.com/charmbracelet/lipgloss"

// Common border styles
var (
	// BorderNormal is the standard border for most UI elements
	BorderNormal = lipgloss.NormalBorder()

	// BorderRounded is used for panels and overlays
	BorderRounded = lipgloss.RoundedBorder()
)

// Panel styles
var (
	// PanelStyle is the base style for the sidebar and result panes
	PanelStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	// PanelFocusedStyle marks the pane holding keyboard focus
	PanelFocusedStyle = PanelStyle.
				BorderForeground(ColorAccent)
)

// Table styles
var (
	// TableSelectedStyle is for the selected row
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorSelectedFg).
				Background(ColorSelectedBg)

	// TableNullStyle renders NULL cells
	TableNullStyle = lipgloss.NewStyle().
			Foreground(ColorNull).
			Italic(true)

	// TableStaleStyle dims a grid that no longer matches the editor
	TableStaleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Tab styles
var (
	// TabActiveStyle is the visible result tab
	TabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.Border{Bottom: "━"}, false, false, true, false)

	// TabInactiveStyle is any other result tab
	TabInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Padding(0, 1)

	// TabDisabledStyle is a tab that cannot be selected right now
	TabDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238")).
				Padding(0, 1).
				Strikethrough(true)
)

// Status bar styles
var (
	// StatusBarStyle wraps the status bar
	StatusBarStyle = lipgloss.NewStyle().
			Border(BorderNormal, true, false, false, false).
			BorderForeground(ColorBorder)

	// StatusTitleStyle is for the loaded file name
	StatusTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	// StatusTimeStyle is for the timestamp
	StatusTimeStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StatusConnectedStyle is for the reachable service indicator
	StatusConnectedStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess)

	// StatusDisconnectedStyle is for the unreachable service indicator
	StatusDisconnectedStyle = lipgloss.NewStyle().
				Foreground(ColorError)
)

// Footer styles
var (
	// FooterHintStyle is for keyboard hints
	FooterHintStyle = lipgloss.NewStyle().
		Foreground(ColorMuted)
)

// Dialog styles
var (
	// DialogStyle wraps prompts and confirmation dialogs
	DialogStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	// DialogTitleStyle is for dialog titles
	DialogTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)
)

// Message styles
var (
	// SuccessStyle is for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	// WarningStyle is for warning messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// InfoStyle is for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// Help overlay styles
var (
	// HelpDialogStyle is for the help dialog box
	HelpDialogStyle = lipgloss.NewStyle().
			Border(BorderRounded).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	// HelpKeyStyle is for keyboard shortcuts
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// HelpDescStyle is for shortcut descriptions
	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

// Common UI styles
var (
	// TitleStyle is for section titles
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	// HeaderStyle is for section headers
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			MarginTop(1)

	// AccentStyle is for accented text
	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	// MutedStyle is for muted/secondary text
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// PrimaryKeyStyle marks primary key columns in the schema sidebar
	PrimaryKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimaryKey)

	// NotNullStyle marks NOT NULL columns in the schema sidebar
	NotNullStyle = lipgloss.NewStyle().
			Foreground(ColorNotNull)
)
