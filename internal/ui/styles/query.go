package styles

import "github.com/charmbracelet/lipgloss"

// Query tab: the SQL editor, the AI assist line and the history/snippet
// picker drawn over it.

// EditorFrame returns the editor border. The accent color marks the pane
// that receives keystrokes.
func EditorFrame(focused bool) lipgloss.Style {
	color := ColorBorder
	if focused {
		color = ColorAccent
	}
	return lipgloss.NewStyle().Border(BorderRounded).BorderForeground(color)
}

// EditorPlaceholderStyle renders the hint shown in an empty editor.
var EditorPlaceholderStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

// EditorCursorLineStyle highlights the line under the cursor.
var EditorCursorLineStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))

// ExecutingStyle marks a request still in flight, in the editor title and
// the status bar alike.
var ExecutingStyle = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)

// AssistBadgeStyle labels natural-language SQL generation.
var AssistBadgeStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(lipgloss.Color("13")).
	Bold(true).
	Padding(0, 1)

// Grid pager.
var (
	PaginationStyle       = lipgloss.NewStyle().Foreground(ColorMuted)
	PaginationActiveStyle = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
)

// PickerStyle frames the history and snippet picker.
var PickerStyle = lipgloss.NewStyle().
	Border(BorderRounded).
	BorderForeground(ColorAccent).
	Padding(1, 2)

// SnippetMissingStyle flags a snippet whose tables are not in the loaded
// database.
var SnippetMissingStyle = lipgloss.NewStyle().Foreground(ColorWarning).Italic(true)
