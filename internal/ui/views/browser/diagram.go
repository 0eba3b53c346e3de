package browser

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-wordwrap"

	"github.com/willibrandon/datascope/internal/orchestrator"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// DiagramOverlay shows the Mermaid source of the schema diagram. Terminals
// cannot draw the diagram itself, so the source is shown for copying.
type DiagramOverlay struct {
	viewport viewport.Model
	state    orchestrator.DiagramState
	width    int
	height   int
	visible  bool
}

// NewDiagramOverlay creates a hidden overlay.
func NewDiagramOverlay() *DiagramOverlay {
	return &DiagramOverlay{}
}

// SetSize sets the overlay dimensions.
func (d *DiagramOverlay) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.viewport = viewport.New(max(width*80/100, 40)-4, max(height*70/100, 8)-5)
	d.refresh()
}

// SetState updates the content from the orchestrator's diagram state.
func (d *DiagramOverlay) SetState(state orchestrator.DiagramState) {
	d.state = state
	d.refresh()
}

// Show makes the overlay visible.
func (d *DiagramOverlay) Show() { d.visible = true }

// Hide hides the overlay.
func (d *DiagramOverlay) Hide() { d.visible = false }

// IsVisible returns whether the overlay is visible.
func (d *DiagramOverlay) IsVisible() bool { return d.visible }

// Source returns the loaded diagram source.
func (d *DiagramOverlay) Source() string { return d.state.Source }

func (d *DiagramOverlay) refresh() {
	var content string
	switch {
	case d.state.Loading:
		content = styles.InfoStyle.Render("Generating diagram...")
	case d.state.Err != "":
		content = styles.ErrorStyle.Render(wordwrap.WrapString(d.state.Err, uint(max(d.viewport.Width, 20))))
	case d.state.Source == "":
		content = styles.MutedStyle.Render("No diagram loaded.")
	default:
		lines := strings.Split(d.state.Source, "\n")
		for i, line := range lines {
			lines[i] = wordwrap.WrapString(line, uint(max(d.viewport.Width, 20)))
		}
		content = strings.Join(lines, "\n")
	}
	d.viewport.SetContent(content)
}

// Update scrolls the overlay.
func (d *DiagramOverlay) Update(msg tea.Msg) (*DiagramOverlay, tea.Cmd) {
	if !d.visible {
		return d, nil
	}
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the overlay.
func (d *DiagramOverlay) View() string {
	if !d.visible {
		return ""
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.DialogTitleStyle.Render("Schema Diagram (Mermaid)"),
		d.viewport.View(),
		styles.FooterHintStyle.Render("[y] copy  [r] regenerate  [esc] close"),
	)
	panel := styles.DialogStyle.Width(max(d.width*80/100, 40)).Render(content)
	if d.width == 0 {
		return panel
	}
	return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, panel)
}
