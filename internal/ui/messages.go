// Package ui provides Bubbletea TUI components for Datascope.
package ui

import (
	"time"
)

// StatusLevel is the severity of a transient status line message.
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// StatusMsg shows a transient message in the footer.
type StatusMsg struct {
	Text  string
	Level StatusLevel
}

// ClearStatusMsg clears the footer message with the given sequence number.
// Messages shown after it was scheduled are kept.
type ClearStatusMsg struct {
	Seq int
}

// PingResultMsg reports a data service health check.
type PingResultMsg struct {
	Latency   time.Duration
	CheckedAt time.Time
	Err       error
}

// Pane identifies which part of the screen holds keyboard focus.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneResults
	PaneEditor
	numPanes
)

// Next returns the pane after p, wrapping around.
func (p Pane) Next() Pane {
	return (p + 1) % numPanes
}

// Prev returns the pane before p, wrapping around.
func (p Pane) Prev() Pane {
	return (p + numPanes - 1) % numPanes
}

func (p Pane) String() string {
	switch p {
	case PaneSidebar:
		return "Tables"
	case PaneResults:
		return "Results"
	case PaneEditor:
		return "Editor"
	default:
		return "Unknown"
	}
}
