package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/ui/styles"
)

const (
	statusSparkWidth = 12
	// slowRequest marks sparkline samples drawn as warnings.
	slowRequest = 500 * time.Millisecond
)

// StatusBar represents the status bar component
type StatusBar struct {
	width int

	// Service status
	serviceURL   string
	reachable    bool
	checked      bool
	lastPing     time.Duration
	latencyTrail []float64

	// Session status
	fileName  string
	sessionID string
	tables    int
	loading   bool
	activity  string

	timestamp  time.Time
	dateFormat string
}

// NewStatusBar creates a new status bar component
func NewStatusBar() *StatusBar {
	return &StatusBar{
		dateFormat: "2006-01-02 15:04:05",
	}
}

// SetSize sets the width of the status bar
func (s *StatusBar) SetSize(width int) {
	s.width = width
}

// SetServiceURL sets the data service address shown when no file is loaded.
func (s *StatusBar) SetServiceURL(url string) {
	s.serviceURL = url
}

// SetReachable records the result of the latest health check.
func (s *StatusBar) SetReachable(reachable bool, latency time.Duration) {
	s.checked = true
	s.reachable = reachable
	s.lastPing = latency
}

// SetLatencyTrail sets recent request latencies in milliseconds, oldest first.
func (s *StatusBar) SetLatencyTrail(samples []float64) {
	s.latencyTrail = samples
}

// SetSession sets the loaded file. An empty sessionID clears it.
func (s *StatusBar) SetSession(fileName, sessionID string, tables int) {
	s.fileName = fileName
	s.sessionID = sessionID
	s.tables = tables
}

// SetLoading sets the busy indicator and what it is waiting for.
func (s *StatusBar) SetLoading(loading bool, activity string) {
	s.loading = loading
	s.activity = activity
}

// SetTimestamp sets the current timestamp
func (s *StatusBar) SetTimestamp(timestamp time.Time) {
	s.timestamp = timestamp
}

// SetDateFormat sets the date format string
func (s *StatusBar) SetDateFormat(format string) {
	if format != "" {
		s.dateFormat = format
	}
}

// View renders the status bar
func (s *StatusBar) View() string {
	var statusIndicator string
	switch {
	case !s.checked:
		statusIndicator = styles.MutedStyle.Render("● Checking service")
	case s.reachable:
		statusIndicator = styles.StatusConnectedStyle.Render(
			fmt.Sprintf("● Service %dms", s.lastPing.Milliseconds()))
	default:
		statusIndicator = styles.StatusDisconnectedStyle.Render("● Service unreachable")
	}

	var sessionSection string
	if s.sessionID != "" {
		sessionSection = styles.StatusTitleStyle.Render(s.fileName) +
			styles.MutedStyle.Render(fmt.Sprintf(" (%s)", pluralize(s.tables, "table")))
	} else {
		sessionSection = styles.MutedStyle.Render("No database loaded")
		if s.serviceURL != "" {
			sessionSection += styles.MutedStyle.Render(" | " + s.serviceURL)
		}
	}

	var loadingSection string
	if s.loading {
		activity := s.activity
		if activity == "" {
			activity = "Loading"
		}
		loadingSection = " | " + styles.ExecutingStyle.Render("⟳ "+activity+"...")
	}

	var latencySection string
	if len(s.latencyTrail) > 1 {
		latencySection = " | " + LatencySparkline(s.latencyTrail, statusSparkWidth, slowRequest) +
			styles.MutedStyle.Render(" "+ClassifyLatency(s.latencyTrail).Arrow())
	}

	// Debug indicator (warning/error counts) - only shown in debug mode
	var debugSection string
	if logger.DebugEnabled() {
		warnCount, errCount := logger.Counts()
		var parts []string
		if warnCount > 0 {
			parts = append(parts, styles.WarningStyle.Render(fmt.Sprintf("⚠ %d", warnCount)))
		}
		if errCount > 0 {
			parts = append(parts, styles.ErrorStyle.Render(fmt.Sprintf("✕ %d", errCount)))
		}
		if len(parts) > 0 {
			debugSection = " | " + strings.Join(parts, " ")
		}
	}

	timestamp := ""
	if !s.timestamp.IsZero() {
		timestamp = " | " + styles.StatusTimeStyle.Render(s.timestamp.Format(s.dateFormat))
	}

	statusLine := statusIndicator + " | " + sessionSection + loadingSection + latencySection + debugSection + timestamp

	if s.width > 0 {
		return styles.StatusBarStyle.Width(s.width).Render(statusLine)
	}
	return styles.StatusBarStyle.Render(statusLine)
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

// padRight pads s to width using lipgloss measurement.
func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
