package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// PlanTreeRoot is the label of the tree's root node.
const PlanTreeRoot = "QUERY PLAN"

// RenderPlanTree renders an EXPLAIN QUERY PLAN as an ASCII tree. Nodes keep
// the order the service returned them in. Width bounds each detail line; zero
// means no limit. An empty plan renders a single explanatory line.
func RenderPlanTree(plan session.QueryPlan, width int, colored bool) string {
	if len(plan) == 0 {
		return styles.MutedStyle.Render("The query plan is empty.")
	}

	tree := treeprint.NewWithRoot(PlanTreeRoot)
	for _, node := range plan.Tree() {
		addPlanNode(tree, node, width, colored)
	}

	out := tree.String()
	if !colored {
		return out
	}
	return lipgloss.NewStyle().Foreground(styles.ColorMuted).Render(out)
}

// addPlanNode recursively adds a plan step and its children to the tree.
func addPlanNode(branch treeprint.Tree, node *session.PlanNode, width int, colored bool) {
	text := formatPlanDetail(node.Step.Detail, width)
	if colored {
		text = lipgloss.NewStyle().Foreground(styles.PlanDetailColor(node.Step.Detail)).Render(text)
	}

	if len(node.Children) == 0 {
		branch.AddNode(text)
		return
	}
	sub := branch.AddBranch(text)
	for _, child := range node.Children {
		addPlanNode(sub, child, width, colored)
	}
}

// formatPlanDetail truncates a detail line, leaving room for tree characters.
func formatPlanDetail(detail string, width int) string {
	if detail == "" {
		return "(no detail)"
	}
	if width <= 0 {
		return detail
	}
	limit := width - 12
	if limit < 10 {
		limit = 10
	}
	return runewidth.Truncate(detail, limit, "...")
}
