package sqleditor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/ui"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// QueryRequestMsg asks the application to run or explain the editor SQL.
type QueryRequestMsg struct {
	SQL     string
	Explain bool
}

// AssistRequestMsg asks the application to open the AI-assist prompt.
type AssistRequestMsg struct{}

// SaveSnippetRequestMsg asks the application to name and save SQL.
type SaveSnippetRequestMsg struct {
	SQL string
}

// OpenPickerMsg asks the application to open the history or snippet picker.
type OpenPickerMsg struct {
	Mode PickerMode
}

const editorPlaceholder = "SELECT * FROM ... (ctrl+e run, ctrl+x explain, ctrl+a ask AI)"

// Editor is the SQL input pane.
type Editor struct {
	textarea textarea.Model
	keys     ui.KeyMap
	history  *HistoryManager
	theme    string
	width    int
	height   int
	// draft holds the unsent buffer while browsing history.
	draft string
}

// NewEditor creates an editor. history may be nil.
func NewEditor(keys ui.KeyMap, history *HistoryManager) *Editor {
	ta := textarea.New()
	ta.Placeholder = editorPlaceholder
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.Prompt = ""
	ta.FocusedStyle.CursorLine = styles.EditorCursorLineStyle
	ta.FocusedStyle.Placeholder = styles.EditorPlaceholderStyle
	ta.BlurredStyle.Placeholder = styles.EditorPlaceholderStyle
	ta.Blur()

	// The history bindings would otherwise move the cursor.
	ta.KeyMap.LinePrevious = key.NewBinding(key.WithKeys("up"))
	ta.KeyMap.LineNext = key.NewBinding(key.WithKeys("down"))

	return &Editor{textarea: ta, keys: keys, history: history}
}

// SetSize sets the outer dimensions, border included.
func (e *Editor) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.textarea.SetWidth(max(width-2, 10))
	e.textarea.SetHeight(max(height-3, 1))
}

// SetTheme sets the UI theme used for the highlighted preview.
func (e *Editor) SetTheme(theme string) {
	e.theme = theme
}

// Focus gives the editor keyboard focus.
func (e *Editor) Focus() tea.Cmd {
	return e.textarea.Focus()
}

// Blur removes keyboard focus.
func (e *Editor) Blur() {
	e.textarea.Blur()
}

// Focused returns whether the editor has focus.
func (e *Editor) Focused() bool {
	return e.textarea.Focused()
}

// Value returns the buffer.
func (e *Editor) Value() string {
	return e.textarea.Value()
}

// SetValue replaces the buffer and leaves the cursor at the end.
func (e *Editor) SetValue(sql string) {
	e.textarea.SetValue(sql)
	e.textarea.CursorEnd()
}

// Update handles a message while the editor is focused.
func (e *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, e.keys.Execute), key.Matches(keyMsg, e.keys.Explain):
			sql := strings.TrimSpace(e.Value())
			explain := key.Matches(keyMsg, e.keys.Explain)
			if e.history != nil {
				e.history.ResetNavigation()
			}
			return e, func() tea.Msg { return QueryRequestMsg{SQL: sql, Explain: explain} }

		case key.Matches(keyMsg, e.keys.Assist):
			return e, func() tea.Msg { return AssistRequestMsg{} }

		case key.Matches(keyMsg, e.keys.SaveSnippet):
			sql := strings.TrimSpace(e.Value())
			return e, func() tea.Msg { return SaveSnippetRequestMsg{SQL: sql} }

		case key.Matches(keyMsg, e.keys.Snippets):
			return e, func() tea.Msg { return OpenPickerMsg{Mode: PickerSnippets} }

		case key.Matches(keyMsg, e.keys.HistorySearch):
			return e, func() tea.Msg { return OpenPickerMsg{Mode: PickerHistory} }

		case key.Matches(keyMsg, e.keys.HistoryPrev):
			e.historyPrev()
			return e, nil

		case key.Matches(keyMsg, e.keys.HistoryNext):
			e.historyNext()
			return e, nil
		}
	}

	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

func (e *Editor) historyPrev() {
	if e.history == nil || e.history.Len() == 0 {
		return
	}
	if !e.history.IsBrowsing() {
		e.draft = e.Value()
	}
	if sql := e.history.Previous(); sql != "" {
		e.SetValue(sql)
	}
}

func (e *Editor) historyNext() {
	if e.history == nil || !e.history.IsBrowsing() {
		return
	}
	if sql := e.history.Next(); sql != "" {
		e.SetValue(sql)
		return
	}
	e.SetValue(e.draft)
	e.draft = ""
}

// View renders the editor. While unfocused the buffer is shown with
// syntax highlighting instead of the raw textarea.
func (e *Editor) View(executing bool) string {
	title := styles.TitleStyle.Render("SQL")
	if e.history != nil && e.history.IsBrowsing() {
		if cur := e.history.Current(); cur != nil {
			title += styles.MutedStyle.Render(fmt.Sprintf(" (history, %s)", cur.ExecutedAt.Format("Jan 2 15:04")))
		}
	}
	if executing {
		title += " " + styles.ExecutingStyle.Render("running...")
	}

	var body string
	border := styles.EditorFrame(e.Focused())
	switch {
	case e.Focused():
		body = e.textarea.View()
	case strings.TrimSpace(e.Value()) == "":
		body = styles.EditorPlaceholderStyle.Render(editorPlaceholder)
	default:
		body = strings.TrimRight(HighlightSQL(e.Value(), e.theme), "\n")
		lines := strings.Split(body, "\n")
		if limit := max(e.height-3, 1); len(lines) > limit {
			body = strings.Join(lines[:limit], "\n")
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, body)
	return border.Width(max(e.width-2, 10)).Height(max(e.height-2, 1)).Render(content)
}
