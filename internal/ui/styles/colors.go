// Package styles provides centralized Lipgloss styling for the Datascope UI.
package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/session"
)

// Color palette for the Datascope UI
var (
	// UI element colors
	ColorBorder  = lipgloss.Color("240") // Gray - all borders
	ColorAccent  = lipgloss.Color("6")   // Cyan - titles, highlights
	ColorMuted   = lipgloss.Color("8")   // Dark gray - secondary text
	ColorText    = lipgloss.Color("7")
	ColorSuccess = lipgloss.Color("10") // Green - success messages
	ColorWarning = lipgloss.Color("11") // Yellow - warnings, stale data
	ColorError   = lipgloss.Color("9")  // Red - error messages

	// Selection colors
	ColorSelectedFg = lipgloss.Color("229") // Light yellow text
	ColorSelectedBg = lipgloss.Color("57")  // Purple background

	// Column markers
	ColorPrimaryKey = lipgloss.Color("214") // Orange - primary key columns
	ColorNotNull    = lipgloss.Color("117") // Light blue - NOT NULL columns
	ColorNull       = lipgloss.Color("242") // Gray - NULL cells

	// Plan tree colors
	ColorPlanScan   = lipgloss.Color("9")  // Red - full table scans
	ColorPlanSearch = lipgloss.Color("10") // Green - index searches
	ColorPlanTemp   = lipgloss.Color("11") // Yellow - temp b-trees
)

// TabColor returns the accent color used for a result tab.
func TabColor(tab session.Tab) lipgloss.Color {
	switch tab {
	case session.TabInsights:
		return lipgloss.Color("13")
	case session.TabExplainPlan:
		return lipgloss.Color("12")
	default:
		return ColorAccent
	}
}

// PlanDetailColor returns the color for an EXPLAIN QUERY PLAN detail line.
func PlanDetailColor(detail string) lipgloss.Color {
	upper := strings.ToUpper(strings.TrimSpace(detail))
	switch {
	case strings.HasPrefix(upper, "SCAN"):
		return ColorPlanScan
	case strings.HasPrefix(upper, "SEARCH"):
		return ColorPlanSearch
	case strings.HasPrefix(upper, "USE TEMP"):
		return ColorPlanTemp
	default:
		return ColorText
	}
}
