package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/ui/styles"
)

// PromptKind identifies what a prompt dialog is collecting.
type PromptKind int

const (
	PromptNone PromptKind = iota
	PromptUploadPath
	PromptDownloadPath
	PromptExportPath
	PromptSnippetName
	PromptAssist
)

// PromptSubmitMsg is sent when the user confirms a prompt.
type PromptSubmitMsg struct {
	Kind  PromptKind
	Value string
}

// PromptDialog is a single-line input dialog.
type PromptDialog struct {
	input   textinput.Model
	kind    PromptKind
	title   string
	hint    string
	width   int
	height  int
	visible bool
}

// NewPromptDialog creates a hidden prompt dialog.
func NewPromptDialog() *PromptDialog {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 50
	return &PromptDialog{input: ti}
}

// Show opens the dialog for kind, prefilled with value.
func (d *PromptDialog) Show(kind PromptKind, title, hint, value string) tea.Cmd {
	d.kind = kind
	d.title = title
	d.hint = hint
	d.input.SetValue(value)
	d.input.CursorEnd()
	d.visible = true
	return d.input.Focus()
}

// Hide hides the dialog.
func (d *PromptDialog) Hide() {
	d.visible = false
	d.kind = PromptNone
	d.input.Blur()
}

// IsVisible returns whether the dialog is visible.
func (d *PromptDialog) IsVisible() bool {
	return d.visible
}

// Kind returns what the dialog is collecting.
func (d *PromptDialog) Kind() PromptKind {
	return d.kind
}

// SetSize sets the dialog dimensions.
func (d *PromptDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
	d.input.Width = min(max(width/2, 30), 80)
}

// Update handles key input. Enter submits a non-empty value, Esc cancels.
func (d *PromptDialog) Update(msg tea.Msg) (*PromptDialog, tea.Cmd) {
	if !d.visible {
		return d, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			d.Hide()
			return d, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(d.input.Value())
			if value == "" {
				return d, nil
			}
			kind := d.kind
			d.Hide()
			return d, func() tea.Msg {
				return PromptSubmitMsg{Kind: kind, Value: value}
			}
		}
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

// View renders the dialog centered in the available space.
func (d *PromptDialog) View() string {
	if !d.visible {
		return ""
	}

	parts := []string{styles.DialogTitleStyle.Render(d.title), "", d.input.View()}
	if d.hint != "" {
		parts = append(parts, "", styles.MutedStyle.Render(d.hint))
	}
	parts = append(parts, "", styles.FooterHintStyle.Render("[enter] confirm  [esc] cancel"))

	dialog := styles.DialogStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	if d.width == 0 {
		return dialog
	}
	return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, dialog)
}
