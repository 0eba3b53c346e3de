package browser

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

var allTabs = []session.Tab{session.TabData, session.TabInsights, session.TabExplainPlan}

// RenderTabBar renders the tab strip. Insights is shown disabled while no
// table is selected since it cannot be opened then.
func RenderTabBar(state session.State) string {
	parts := make([]string, 0, len(allTabs))
	for i, tab := range allTabs {
		label := fmt.Sprintf(" %d %s ", i+1, tab)
		switch {
		case tab == state.ActiveTab:
			parts = append(parts, styles.TabActiveStyle.Foreground(styles.TabColor(tab)).BorderForeground(styles.TabColor(tab)).Render(label))
		case tab == session.TabInsights && state.SelectedTable == "":
			parts = append(parts, styles.TabDisabledStyle.Render(label))
		case tab == session.TabExplainPlan && state.Plan != nil:
			parts = append(parts, styles.TabInactiveStyle.Render(label+"•"))
		default:
			parts = append(parts, styles.TabInactiveStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
}
