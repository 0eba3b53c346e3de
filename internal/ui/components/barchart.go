// Package components provides reusable UI components.
package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/pterm/pterm"

	"github.com/willibrandon/datascope/internal/ui/styles"
)

// BarChartItem represents a single bar in the chart.
type BarChartItem struct {
	Label string  // Display label (truncated to MaxLabelWidth)
	Value float64 // Numeric value for the bar
	Rank  int     // 1-based rank for color coding (1=top)
}

// BarChartConfig configures a BarChart.
type BarChartConfig struct {
	Title          string
	Width          int // Total width available
	Height         int // Maximum number of bars
	MaxLabelWidth  int
	ShowValues     bool
	ValueFormatter func(float64) string
}

// DefaultBarChartConfig returns defaults suited to top-value frequencies.
func DefaultBarChartConfig() BarChartConfig {
	return BarChartConfig{
		Width:         80,
		Height:        10,
		MaxLabelWidth: 25,
		ShowValues:    true,
		ValueFormatter: func(v float64) string {
			return humanize.Comma(int64(v))
		},
	}
}

// BarChart renders horizontal bar charts with rank-based coloring.
type BarChart struct {
	config BarChartConfig
	items  []BarChartItem
}

// NewBarChart creates a new bar chart component.
func NewBarChart(config BarChartConfig) *BarChart {
	if config.Width < 40 {
		config.Width = 40
	}
	if config.Height < 1 {
		config.Height = 10
	}
	if config.MaxLabelWidth < 10 {
		config.MaxLabelWidth = 10
	}
	if config.ValueFormatter == nil {
		config.ValueFormatter = func(v float64) string {
			return fmt.Sprintf("%.1f", v)
		}
	}

	return &BarChart{config: config}
}

// TopValueItems turns a value frequency map into ranked bars, most frequent
// first. Ties are ordered by label so output is stable.
func TopValueItems(counts map[string]int, limit int) []BarChartItem {
	items := make([]BarChartItem, 0, len(counts))
	for label, n := range counts {
		if label == "" {
			label = "(empty)"
		}
		items = append(items, BarChartItem{Label: label, Value: float64(n)})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Label < items[j].Label
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

// SetItems updates the bar chart data.
func (c *BarChart) SetItems(items []BarChartItem) {
	c.items = items
}

// SetSize updates the chart dimensions.
func (c *BarChart) SetSize(width, height int) {
	if width >= 40 {
		c.config.Width = width
	}
	if height >= 1 {
		c.config.Height = height
	}
}

// View renders the bar chart.
func (c *BarChart) View() string {
	if len(c.items) == 0 {
		return c.renderEmpty()
	}
	return c.renderChart()
}

func (c *BarChart) renderEmpty() string {
	content := lipgloss.NewStyle().
		Foreground(styles.ColorMuted).
		Render("No data available")

	if c.config.Title != "" {
		return lipgloss.JoinVertical(lipgloss.Left, styles.TitleStyle.Render(c.config.Title), content)
	}
	return content
}

// renderChart renders the bars with pterm and colors them with lipgloss.
func (c *BarChart) renderChart() string {
	// pterm colors would fight the lipgloss rank colors applied below.
	pterm.DisableColor()
	defer pterm.EnableColor()

	maxItems := c.config.Height
	if maxItems > len(c.items) {
		maxItems = len(c.items)
	}

	bars := make(pterm.Bars, 0, maxItems)
	for _, item := range c.items[:maxItems] {
		bars = append(bars, pterm.Bar{
			Label: truncateLabel(item.Label, c.config.MaxLabelWidth),
			Value: int(item.Value),
		})
	}

	barAreaWidth := c.config.Width - c.config.MaxLabelWidth - 15
	if barAreaWidth < 10 {
		barAreaWidth = 10
	}

	chart, err := pterm.DefaultBarChart.
		WithBars(bars).
		WithHorizontal(true).
		WithShowValue(c.config.ShowValues).
		WithWidth(barAreaWidth).
		Srender()
	if err != nil {
		chart = RenderSimpleBarChart(c.items[:maxItems], c.config)
	} else {
		chart = c.applyRankColors(strings.TrimRight(chart, "\n"))
	}

	if c.config.Title != "" {
		return lipgloss.JoinVertical(lipgloss.Left, styles.TitleStyle.Render(c.config.Title), chart)
	}
	return chart
}

// applyRankColors colors the bar characters of each line by its item's rank.
func (c *BarChart) applyRankColors(chart string) string {
	labelRanks := make(map[string]int, len(c.items))
	for _, item := range c.items {
		labelRanks[truncateLabel(item.Label, c.config.MaxLabelWidth)] = item.Rank
	}

	lines := strings.Split(chart, "\n")
	for i, line := range lines {
		for label, rank := range labelRanks {
			if strings.Contains(line, label) {
				lines[i] = colorBarInLine(line, rankStyle(rank))
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// rankStyle returns a magenta gradient: brightest for the most frequent values.
func rankStyle(rank int) lipgloss.Style {
	switch {
	case rank <= 1:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("201"))
	case rank <= 3:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	case rank <= 5:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("133"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("96"))
	}
}

// colorBarInLine applies style to runs of bar characters in line.
func colorBarInLine(line string, style lipgloss.Style) string {
	isBar := func(r rune) bool {
		switch r {
		case '█', '▓', '▒', '░', '▄', '▀', '■':
			return true
		}
		return false
	}

	var result, run strings.Builder
	for _, ch := range line {
		if isBar(ch) {
			run.WriteRune(ch)
			continue
		}
		if run.Len() > 0 {
			result.WriteString(style.Render(run.String()))
			run.Reset()
		}
		result.WriteRune(ch)
	}
	if run.Len() > 0 {
		result.WriteString(style.Render(run.String()))
	}
	return result.String()
}

// truncateLabel truncates a label to maxLen display cells with an ellipsis.
func truncateLabel(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// RenderSimpleBarChart renders a horizontal bar chart without pterm.
func RenderSimpleBarChart(items []BarChartItem, config BarChartConfig) string {
	if len(items) == 0 {
		return ""
	}
	if config.ValueFormatter == nil {
		config.ValueFormatter = DefaultBarChartConfig().ValueFormatter
	}

	maxVal := items[0].Value
	for _, item := range items {
		if item.Value > maxVal {
			maxVal = item.Value
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	barWidth := config.Width - config.MaxLabelWidth - 15
	if barWidth < 10 {
		barWidth = 10
	}

	maxItems := config.Height
	if maxItems <= 0 || maxItems > len(items) {
		maxItems = len(items)
	}

	lines := make([]string, 0, maxItems)
	for _, item := range items[:maxItems] {
		label := runewidth.FillRight(truncateLabel(item.Label, config.MaxLabelWidth), config.MaxLabelWidth)

		barLen := int(float64(barWidth) * (item.Value / maxVal))
		if barLen < 1 && item.Value > 0 {
			barLen = 1
		}

		line := label + " " + rankStyle(item.Rank).Render(strings.Repeat("█", barLen))
		if config.ShowValues {
			line += " " + config.ValueFormatter(item.Value)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}
