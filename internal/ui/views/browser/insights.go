package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/willibrandon/datascope/internal/session"
	"github.com/willibrandon/datascope/internal/ui/components"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

// topValuesShown is how many categorical values get a bar.
const topValuesShown = 5

// RenderInsights renders the insights slot for the selected table.
func RenderInsights(state session.InsightsState, selected string, width int) string {
	switch {
	case selected == "":
		return styles.MutedStyle.Render("Select a table to see insights.")
	case state.Table != selected:
		return styles.MutedStyle.Render("Insights not loaded. Press r to fetch them.")
	case state.Loading:
		return styles.InfoStyle.Render(fmt.Sprintf("Computing insights for %s...", selected))
	case state.Err != "":
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.ErrorStyle.Render(state.Err),
			styles.MutedStyle.Render("Press r to retry."))
	case state.Report == nil:
		return styles.MutedStyle.Render("No insights available.")
	}

	r := state.Report
	var sections []string
	sections = append(sections, styles.TitleStyle.Render(fmt.Sprintf("%s: %s rows, %s columns",
		r.TableName, humanize.Comma(int64(r.TotalRows)), humanize.Comma(int64(r.TotalCols)))))

	for _, cs := range r.ColumnStats {
		sections = append(sections, renderColumnStats(cs, width))
	}
	return strings.Join(sections, "\n\n")
}

func renderColumnStats(cs session.ColumnStats, width int) string {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(cs.Name))
	if cs.Type != "" {
		b.WriteString(" " + styles.MutedStyle.Render(strings.ToLower(cs.Type)))
	}
	b.WriteString("\n")

	missing := fmt.Sprintf("missing %s (%.1f%%)", humanize.Comma(int64(cs.MissingCount)), cs.MissingPercent)
	if cs.MissingCount > 0 {
		missing = styles.WarningStyle.Render(missing)
	}
	b.WriteString("  " + missing + "  ")
	b.WriteString(fmt.Sprintf("unique %s (%.1f%%)", humanize.Comma(int64(cs.UniqueCount)), cs.UniquePercent))

	if ns := cs.NumericStats; ns != nil {
		b.WriteString("\n  ")
		b.WriteString(strings.Join([]string{
			"mean " + FormatStat(ns.Mean),
			"median " + FormatStat(ns.Median),
			"std " + FormatStat(ns.StdDev),
			"min " + FormatStat(ns.Min),
			"max " + FormatStat(ns.Max),
		}, "  "))
	}

	if c := cs.CategoricalStats; c != nil && len(c.TopValues) > 0 {
		cfg := components.DefaultBarChartConfig()
		cfg.Width = max(width-2, 40)
		cfg.Height = topValuesShown
		cfg.MaxLabelWidth = 20
		chart := components.NewBarChart(cfg)
		chart.SetItems(components.TopValueItems(c.TopValues, topValuesShown))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(chart.View()))
	}
	return b.String()
}
