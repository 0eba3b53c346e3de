package components

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/logger"
)

var (
	debugPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	debugTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	debugWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	debugErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	debugInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// DebugPanel displays recently captured log entries, optionally narrowed
// to warnings and errors.
type DebugPanel struct {
	viewport    viewport.Model
	width       int
	height      int
	visible     bool
	problemOnly bool
}

// NewDebugPanel creates a new debug panel.
func NewDebugPanel() *DebugPanel {
	return &DebugPanel{}
}

// SetSize sets the panel dimensions.
func (d *DebugPanel) SetSize(width, height int) {
	d.width = width
	d.height = height

	// Panel takes up 80% width, 60% height, centered
	panelWidth := max(width*80/100, 60)
	panelHeight := max(height*60/100, 10)

	d.viewport = viewport.New(panelWidth-4, panelHeight-4)
	d.viewport.Style = lipgloss.NewStyle()
}

// Toggle toggles panel visibility.
func (d *DebugPanel) Toggle() {
	d.visible = !d.visible
	if d.visible {
		d.refresh()
	}
}

// Hide hides the panel.
func (d *DebugPanel) Hide() {
	d.visible = false
}

// IsVisible returns whether the panel is visible.
func (d *DebugPanel) IsVisible() bool {
	return d.visible
}

// entries returns the captured entries passing the current filter.
func (d *DebugPanel) entries() []logger.Entry {
	all := logger.Entries()
	if !d.problemOnly {
		return all
	}
	filtered := all[:0:0]
	for _, e := range all {
		if e.Level >= slog.LevelWarn {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// refresh updates the viewport content with current log entries.
func (d *DebugPanel) refresh() {
	var lines []string
	for _, e := range d.entries() {
		style := debugInfoStyle
		switch {
		case e.Level >= slog.LevelError:
			style = debugErrorStyle
		case e.Level >= slog.LevelWarn:
			style = debugWarnStyle
		}
		lines = append(lines, style.Render(e.Format()))
	}

	if len(lines) == 0 {
		lines = append(lines, debugInfoStyle.Render("No log entries captured"))
	}

	d.viewport.SetContent(strings.Join(lines, "\n"))
	d.viewport.GotoBottom()
}

// Update handles messages.
func (d *DebugPanel) Update(msg tea.Msg) (*DebugPanel, tea.Cmd) {
	if !d.visible {
		return d, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc", "D", "q":
			d.Hide()
			return d, nil
		case "c", "C":
			logger.ResetCounts()
			d.refresh()
			return d, nil
		case "f", "F":
			d.problemOnly = !d.problemOnly
			d.refresh()
			return d, nil
		case "r", "R":
			d.refresh()
			return d, nil
		}
	}

	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the panel as an overlay.
func (d *DebugPanel) View() string {
	if !d.visible {
		return ""
	}

	d.refresh()

	warnCount, errCount := logger.Counts()
	filter := "all"
	if d.problemOnly {
		filter = "warnings+errors"
	}
	header := debugTitleStyle.Render("Debug Panel") +
		debugInfoStyle.Render(fmt.Sprintf(" (%d warnings, %d errors, showing %s)", warnCount, errCount, filter))
	if ops := failingOpsSummary(logger.FailingOps()); ops != "" {
		header += "\n" + debugWarnStyle.Render(ops)
	}
	help := debugInfoStyle.Render(" [D/Esc] close  [F] filter  [C] clear counts  [R] refresh  [j/k] scroll")

	panelWidth := max(d.width*80/100, 60)

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Repeat("─", panelWidth-4),
		d.viewport.View(),
		strings.Repeat("─", panelWidth-4),
		help,
	)

	panel := debugPanelStyle.Width(panelWidth).Render(content)

	return lipgloss.Place(d.width, d.height,
		lipgloss.Center, lipgloss.Center,
		panel,
		lipgloss.WithWhitespaceChars(" "),
	)
}

// failingOpsSummary lists the data service operations that logged problems,
// most troubled first, e.g. "run_query ×3  fetch_page ×1".
func failingOpsSummary(tallies []logger.OpTally) string {
	parts := make([]string, 0, len(tallies))
	for _, t := range tallies {
		parts = append(parts, fmt.Sprintf("%s ×%d", t.Op, t.Failed))
	}
	return strings.Join(parts, "  ")
}
