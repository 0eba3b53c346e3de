package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// Sidebar lists the tables of the loaded schema with their columns.
type Sidebar struct {
	session  string
	schema   *session.Schema
	tables   []string
	cursor   int
	selected string
	expanded map[string]bool
	offset   int
	width    int
	height   int
}

// NewSidebar creates an empty sidebar.
func NewSidebar() *Sidebar {
	return &Sidebar{expanded: make(map[string]bool)}
}

// SetSize sets the outer dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
}

// SetSchema lists the schema of sessionID. Expanded tables and the cursor
// survive repeated calls for the same session; a new session keeps the
// cursor on the same table name when it still exists.
func (s *Sidebar) SetSchema(sessionID string, schema *session.Schema) {
	if sessionID == s.session && s.schema != nil {
		s.schema = schema
		return
	}
	current := s.Current()
	s.session = sessionID
	s.schema = schema
	s.tables = nil
	if schema != nil {
		s.tables = schema.TableNames()
	}
	s.cursor = 0
	s.offset = 0
	for i, name := range s.tables {
		if name == current {
			s.cursor = i
		}
	}
	s.expanded = make(map[string]bool)
}

// SetSelected marks the table whose data the grid shows.
func (s *Sidebar) SetSelected(name string) {
	s.selected = name
}

// Current returns the table under the cursor, or "".
func (s *Sidebar) Current() string {
	if s.cursor < 0 || s.cursor >= len(s.tables) {
		return ""
	}
	return s.tables[s.cursor]
}

// Move moves the cursor by delta, clamped to the table list.
func (s *Sidebar) Move(delta int) {
	if len(s.tables) == 0 {
		return
	}
	s.cursor = max(0, min(len(s.tables)-1, s.cursor+delta))
}

// Home moves the cursor to the first table.
func (s *Sidebar) Home() { s.cursor = 0 }

// End moves the cursor to the last table.
func (s *Sidebar) End() { s.cursor = max(0, len(s.tables)-1) }

// ToggleExpand shows or hides the columns of the table under the cursor.
func (s *Sidebar) ToggleExpand() {
	if name := s.Current(); name != "" {
		s.expanded[name] = !s.expanded[name]
	}
}

// sidebarLine is one rendered row plus the table it belongs to.
type sidebarLine struct {
	text  string
	table int
}

func (s *Sidebar) lines(inner int) []sidebarLine {
	var out []sidebarLine
	for i, name := range s.tables {
		marker := "▸"
		if s.expanded[name] {
			marker = "▾"
		}
		label := padOrTruncate(fmt.Sprintf("%s %s", marker, name), inner)
		switch {
		case i == s.cursor:
			label = styles.TableSelectedStyle.Render(label)
		case name == s.selected:
			label = styles.AccentStyle.Render(label)
		}
		out = append(out, sidebarLine{text: label, table: i})

		if !s.expanded[name] {
			continue
		}
		table, _ := s.schema.Table(name)
		for _, col := range table.Columns {
			out = append(out, sidebarLine{text: renderColumn(col, inner), table: i})
		}
	}
	return out
}

func renderColumn(col session.Column, width int) string {
	var flags []string
	if col.PrimaryKey {
		flags = append(flags, styles.PrimaryKeyStyle.Render("PK"))
	}
	if col.NotNull {
		flags = append(flags, styles.NotNullStyle.Render("NN"))
	}
	typ := col.Type
	if typ == "" {
		typ = "ANY"
	}
	suffix := " " + styles.MutedStyle.Render(strings.ToLower(typ))
	if len(flags) > 0 {
		suffix += " " + strings.Join(flags, " ")
	}
	name := padOrTruncate("  "+col.Name, max(4, width-lipgloss.Width(suffix)))
	return name + suffix
}

// View renders the sidebar panel.
func (s *Sidebar) View(focused bool) string {
	style := styles.PanelStyle
	if focused {
		style = styles.PanelFocusedStyle
	}
	inner := max(s.width-4, 10)
	bodyHeight := max(s.height-3, 1)

	title := styles.TitleStyle.Render("Tables")
	if len(s.tables) > 0 {
		title += styles.MutedStyle.Render(fmt.Sprintf(" (%d)", len(s.tables)))
	}

	var body []string
	if len(s.tables) == 0 {
		body = append(body, styles.MutedStyle.Render("No database loaded"), styles.MutedStyle.Render("Press o to open one"))
	} else {
		all := s.lines(inner)
		first := 0
		for i, l := range all {
			if l.table == s.cursor {
				first = i
				break
			}
		}
		if first < s.offset {
			s.offset = first
		} else if first >= s.offset+bodyHeight {
			s.offset = first - bodyHeight + 1
		}
		s.offset = max(0, min(s.offset, len(all)-1))
		end := min(len(all), s.offset+bodyHeight)
		for _, l := range all[s.offset:end] {
			body = append(body, l.text)
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, body...)...)
	return style.Width(max(s.width-2, 12)).Height(max(s.height-2, 1)).Render(content)
}
