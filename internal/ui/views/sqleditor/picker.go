package sqleditor

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/storage/sqlite"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// PickerMode is what the picker lists.
type PickerMode int

const (
	PickerClosed PickerMode = iota
	PickerHistory
	PickerSnippets
)

// pickerItem is one row of the picker.
type pickerItem struct {
	name   string
	detail string
	sql    string
}

// PickerChosenMsg carries the SQL the user picked.
type PickerChosenMsg struct {
	Mode PickerMode
	Name string
	SQL  string
}

// maxPickerRows is the number of entries shown at once.
const maxPickerRows = 12

// Picker is a filter-as-you-type overlay over history or snippets.
type Picker struct {
	mode     PickerMode
	query    string
	items    []pickerItem
	index    int
	width    int
	height   int
	theme    string
	history  *HistoryManager
	snippets *SnippetManager
	schema   *session.Schema
	toast    string
}

// NewPicker creates a closed picker. Either source may be nil.
func NewPicker(history *HistoryManager, snippets *SnippetManager) *Picker {
	return &Picker{history: history, snippets: snippets}
}

// SetSize sets the overlay dimensions.
func (p *Picker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetTheme sets the UI theme used to highlight SQL previews.
func (p *Picker) SetTheme(theme string) {
	p.theme = theme
}

// SetSchema sets the loaded schema that snippets are ranked against.
func (p *Picker) SetSchema(schema *session.Schema) {
	p.schema = schema
}

// Open shows the picker in mode. It reports false when the source is not
// available.
func (p *Picker) Open(mode PickerMode) bool {
	switch {
	case mode == PickerHistory && p.history == nil,
		mode == PickerSnippets && p.snippets == nil:
		return false
	}
	p.mode = mode
	p.query = ""
	p.index = 0
	p.toast = ""
	p.reload()
	return true
}

// Close hides the picker.
func (p *Picker) Close() {
	p.mode = PickerClosed
	p.items = nil
}

// IsOpen returns whether the picker is visible.
func (p *Picker) IsOpen() bool {
	return p.mode != PickerClosed
}

// Mode returns what the picker lists.
func (p *Picker) Mode() PickerMode {
	return p.mode
}

func (p *Picker) reload() {
	p.items = p.items[:0]
	switch p.mode {
	case PickerHistory:
		for _, e := range p.history.Search(p.query) {
			detail := humanize.Time(e.ExecutedAt)
			if e.Error != "" {
				detail += " · failed"
			} else if e.Kind == sqlite.KindExplain {
				detail += " · explain"
			} else {
				detail += fmt.Sprintf(" · %s rows", humanize.Comma(e.RowCount))
			}
			p.items = append(p.items, pickerItem{detail: detail, sql: e.SQL})
		}
	case PickerSnippets:
		for _, m := range p.snippets.Matching(p.query, p.schema) {
			p.items = append(p.items, pickerItem{name: m.Name, detail: snippetDetail(m), sql: m.SQL})
		}
	}
	if p.index >= len(p.items) {
		p.index = max(0, len(p.items)-1)
	}
}

// Update handles keys while the picker is open.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !p.IsOpen() {
		return p, nil
	}

	switch key.String() {
	case "esc", "ctrl+c":
		p.Close()
	case "enter":
		if p.index < len(p.items) {
			item, mode := p.items[p.index], p.mode
			p.Close()
			return p, func() tea.Msg {
				return PickerChosenMsg{Mode: mode, Name: item.name, SQL: item.sql}
			}
		}
	case "up", "ctrl+p", "ctrl+k":
		p.index = max(0, p.index-1)
	case "down", "ctrl+n", "ctrl+j":
		p.index = min(max(0, len(p.items)-1), p.index+1)
	case "ctrl+d":
		if p.mode == PickerSnippets && p.index < len(p.items) {
			name := p.items[p.index].name
			if err := p.snippets.Delete(name); err != nil {
				p.toast = err.Error()
			} else {
				p.toast = fmt.Sprintf("Deleted snippet '%s'", name)
			}
			p.reload()
		}
	case "backspace":
		if p.query != "" {
			r := []rune(p.query)
			p.query = string(r[:len(r)-1])
			p.index = 0
			p.reload()
		}
	default:
		switch key.Type {
		case tea.KeySpace:
			p.query += " "
		case tea.KeyRunes:
			p.query += string(key.Runes)
		}
		if key.Type == tea.KeyRunes || key.Type == tea.KeySpace {
			p.index = 0
			p.reload()
		}
	}
	return p, nil
}

// View renders the overlay.
func (p *Picker) View() string {
	if !p.IsOpen() {
		return ""
	}

	var sb strings.Builder
	title := "Query History (ctrl+r)"
	empty := "No queries run yet"
	if p.mode == PickerSnippets {
		title = "Snippets (ctrl+o)"
		empty = "No snippets saved yet. Press ctrl+s in the editor to save one."
	}
	sb.WriteString(styles.HeaderStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(styles.AccentStyle.Render(fmt.Sprintf("Filter: %s█", p.query)))
	sb.WriteString("\n\n")

	if len(p.items) == 0 {
		if p.query != "" {
			sb.WriteString(styles.MutedStyle.Render("No matches"))
		} else {
			sb.WriteString(styles.MutedStyle.Render(empty))
		}
	} else {
		start := 0
		if p.index >= maxPickerRows {
			start = p.index - maxPickerRows + 1
		}
		end := min(len(p.items), start+maxPickerRows)
		previewWidth := max(p.width-40, 20)

		for i := start; i < end; i++ {
			item := p.items[i]
			sql := strings.Join(strings.Fields(item.sql), " ")
			sql = runewidth.Truncate(sql, previewWidth, "...")
			var line string
			if item.name != "" {
				line = fmt.Sprintf("%-20s %s", runewidth.Truncate(item.name, 20, "…"), sql)
			} else {
				line = sql
			}

			if i == p.index {
				sb.WriteString(styles.TableSelectedStyle.Render("► " + line))
			} else {
				sb.WriteString("  " + line)
			}
			if item.detail != "" {
				sb.WriteString(" " + styles.MutedStyle.Render(item.detail))
			}
			sb.WriteString("\n")
		}
		if len(p.items) > maxPickerRows {
			sb.WriteString(styles.MutedStyle.Render(fmt.Sprintf("  ... showing %d-%d of %d", start+1, end, len(p.items))))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(HighlightSQL(p.items[p.index].sql, p.theme))
	}

	if p.toast != "" {
		sb.WriteString("\n\n" + styles.InfoStyle.Render(p.toast))
	}

	hints := "enter load │ ↑/↓ navigate │ type to filter │ esc cancel"
	if p.mode == PickerSnippets {
		hints = "enter load │ ↑/↓ navigate │ ctrl+d delete │ type to filter │ esc cancel"
	}
	sb.WriteString("\n\n" + styles.FooterHintStyle.Render(hints))

	box := styles.PickerStyle.Width(max(p.width*80/100, 50)).Render(sb.String())
	if p.width == 0 {
		return box
	}
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
}

// snippetDetail summarizes the tables a snippet reads and how often it ran.
func snippetDetail(m SnippetMatch) string {
	var parts []string
	switch {
	case !m.Runnable():
		parts = append(parts, styles.SnippetMissingStyle.Render("needs "+strings.Join(m.Missing, ", ")))
	case len(m.Tables) > 0:
		parts = append(parts, strings.Join(m.Tables, ", "))
	}
	if m.Runs > 0 {
		parts = append(parts, fmt.Sprintf("%d runs", m.Runs))
	}
	return strings.Join(parts, " · ")
}
