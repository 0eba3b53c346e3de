package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// maxColWidth caps a grid column so one long value cannot push the rest
// off screen.
const maxColWidth = 32

// Grid shows the rows of the current view result with a cell cursor.
type Grid struct {
	result      *session.ViewResult
	stale       bool
	selectedRow int
	selectedCol int
	rowOffset   int
	colOffset   int
	width       int
	height      int
}

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{}
}

// SetSize sets the area available for the grid, footer included.
func (g *Grid) SetSize(width, height int) {
	g.width = width
	g.height = height
	g.ensureVisible()
}

// SetResult shows result, keeping the cursor clamped to its bounds.
func (g *Grid) SetResult(result *session.ViewResult, stale bool) {
	g.stale = stale
	g.result = result
	if result == nil {
		g.ResetCursor()
		return
	}
	g.selectedRow = max(0, min(g.selectedRow, len(result.Rows)-1))
	g.selectedCol = max(0, min(g.selectedCol, len(result.Columns)-1))
	g.colOffset = min(g.colOffset, g.selectedCol)
	g.ensureVisible()
}

// ResetCursor moves the cursor back to the first cell. Call it when a new
// page or query result arrives.
func (g *Grid) ResetCursor() {
	g.selectedRow = 0
	g.selectedCol = 0
	g.rowOffset = 0
	g.colOffset = 0
}

// Result returns the displayed result.
func (g *Grid) Result() *session.ViewResult {
	return g.result
}

// MoveRow moves the cursor by delta rows.
func (g *Grid) MoveRow(delta int) {
	if g.result == nil || len(g.result.Rows) == 0 {
		return
	}
	g.selectedRow = max(0, min(len(g.result.Rows)-1, g.selectedRow+delta))
	g.ensureVisible()
}

// MoveCol moves the cursor by delta columns.
func (g *Grid) MoveCol(delta int) {
	if g.result == nil || len(g.result.Columns) == 0 {
		return
	}
	g.selectedCol = max(0, min(len(g.result.Columns)-1, g.selectedCol+delta))
	if g.selectedCol < g.colOffset {
		g.colOffset = g.selectedCol
	}
	for g.colOffset < g.selectedCol && !g.colFits(g.colOffset, g.selectedCol) {
		g.colOffset++
	}
}

// Home moves the cursor to the first row.
func (g *Grid) Home() {
	g.selectedRow = 0
	g.ensureVisible()
}

// End moves the cursor to the last row.
func (g *Grid) End() {
	if g.result != nil {
		g.selectedRow = max(0, len(g.result.Rows)-1)
	}
	g.ensureVisible()
}

// SelectedCell returns the formatted value under the cursor.
func (g *Grid) SelectedCell() (string, bool) {
	row, ok := g.SelectedRow()
	if !ok || g.selectedCol >= len(row) {
		return "", false
	}
	return row[g.selectedCol], true
}

// SelectedRow returns the formatted values of the row under the cursor.
func (g *Grid) SelectedRow() ([]string, bool) {
	if g.result == nil || g.selectedRow >= len(g.result.Rows) {
		return nil, false
	}
	row := g.result.Rows[g.selectedRow]
	out := make([]string, len(g.result.Columns))
	for i, col := range g.result.Columns {
		out[i] = FormatValue(row[col])
	}
	return out, true
}

// visibleRows is the number of data rows that fit. Header, separator and
// footer take three lines.
func (g *Grid) visibleRows() int {
	return max(g.height-3, 1)
}

func (g *Grid) ensureVisible() {
	visible := g.visibleRows()
	if g.selectedRow < g.rowOffset {
		g.rowOffset = g.selectedRow
	} else if g.selectedRow >= g.rowOffset+visible {
		g.rowOffset = g.selectedRow - visible + 1
	}
	g.rowOffset = max(0, g.rowOffset)
}

// columnWidths measures every column over the header and current rows.
func (g *Grid) columnWidths() []int {
	widths := make([]int, len(g.result.Columns))
	for i, col := range g.result.Columns {
		widths[i] = max(lipgloss.Width(col), 3)
		for _, row := range g.result.Rows {
			widths[i] = max(widths[i], lipgloss.Width(FormatValue(row[col])))
		}
		widths[i] = min(widths[i], maxColWidth)
	}
	return widths
}

// colFits reports whether columns from..to fit the grid width.
func (g *Grid) colFits(from, to int) bool {
	widths := g.columnWidths()
	total := 0
	for i := from; i <= to && i < len(widths); i++ {
		total += widths[i] + 3
	}
	return total <= g.width
}

// View renders the grid and its pagination footer.
func (g *Grid) View() string {
	if g.result == nil {
		return styles.MutedStyle.Render("Select a table or run a query to see data.")
	}
	if len(g.result.Columns) == 0 {
		return styles.MutedStyle.Render("The statement returned no columns.")
	}

	widths := g.columnWidths()
	var lines []string

	// Columns past the right edge are dropped; the cursor scrolls them in.
	last := g.colOffset
	used := 0
	for i := g.colOffset; i < len(widths); i++ {
		if used+widths[i] > g.width && i > g.colOffset {
			break
		}
		used += widths[i] + 3
		last = i
	}

	var header, sep []string
	for i := g.colOffset; i <= last; i++ {
		header = append(header, padOrTruncate(g.result.Columns[i], widths[i]))
		sep = append(sep, strings.Repeat("─", widths[i]))
	}
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(strings.Join(header, " │ ")))
	lines = append(lines, styles.MutedStyle.Render(strings.Join(sep, "─┼─")))

	if len(g.result.Rows) == 0 {
		lines = append(lines, styles.MutedStyle.Render("(no rows)"))
	}

	end := min(len(g.result.Rows), g.rowOffset+g.visibleRows())
	for r := g.rowOffset; r < end; r++ {
		row := g.result.Rows[r]
		var cells []string
		for i := g.colOffset; i <= last; i++ {
			val := row[g.result.Columns[i]]
			cell := padOrTruncate(FormatValue(val), widths[i])
			switch {
			case r == g.selectedRow && i == g.selectedCol:
				cell = styles.TableSelectedStyle.Bold(true).Render(cell)
			case r == g.selectedRow:
				cell = styles.TableSelectedStyle.Render(cell)
			case val == nil:
				cell = styles.TableNullStyle.Render(cell)
			}
			cells = append(cells, cell)
		}
		line := strings.Join(cells, " │ ")
		if g.stale {
			line = styles.TableStaleStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, g.footer(last))
	return strings.Join(lines, "\n")
}

// footer describes the position within the result.
func (g *Grid) footer(lastCol int) string {
	p := g.result.Pagination
	var parts []string
	if g.result.TableBacked() {
		if p.TotalRows == 0 {
			parts = append(parts, "0 rows")
		} else {
			parts = append(parts, fmt.Sprintf("Rows %s-%s of %s",
				humanize.Comma(int64(p.StartRow())), humanize.Comma(int64(p.EndRow())), humanize.Comma(int64(p.TotalRows))))
		}
		parts = append(parts, styles.PaginationActiveStyle.Render(fmt.Sprintf("Page %d/%d", p.Page, p.TotalPages)))
	} else {
		parts = append(parts, fmt.Sprintf("%s returned", pluralRows(len(g.result.Rows))))
	}
	if len(g.result.Columns) > lastCol+1 || g.colOffset > 0 {
		parts = append(parts, fmt.Sprintf("Cols %d-%d of %d", g.colOffset+1, lastCol+1, len(g.result.Columns)))
	}
	if g.stale {
		parts = append(parts, styles.WarningStyle.Render("stale"))
	}
	return styles.PaginationStyle.Render(strings.Join(parts, "  "))
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return humanize.Comma(int64(n)) + " rows"
}
