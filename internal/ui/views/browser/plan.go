package browser

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/components"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// RenderPlan renders the Explain Plan tab.
func RenderPlan(plan session.QueryPlan, width int) string {
	if plan == nil {
		return styles.MutedStyle.Render("Run EXPLAIN (ctrl+x in the editor) to see a query plan.")
	}
	legend := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Foreground(styles.ColorPlanScan).Render("■ scan  "),
		lipgloss.NewStyle().Foreground(styles.ColorPlanSearch).Render("■ index search  "),
		lipgloss.NewStyle().Foreground(styles.ColorPlanTemp).Render("■ temp b-tree"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, components.RenderPlanTree(plan, width, true), "", legend)
}
