package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/willibrandon/datascope/internal/ui/styles"
)

// HelpSection is a titled group of key bindings.
type HelpSection struct {
	Title    string
	Bindings []key.Binding
}

// HelpText represents the help overlay
type HelpText struct {
	width    int
	height   int
	sections []HelpSection
}

// NewHelp creates a help overlay listing sections.
func NewHelp(sections ...HelpSection) *HelpText {
	return &HelpText{sections: sections}
}

// SetSize sets the size of the help component
func (h *HelpText) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help screen
func (h *HelpText) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	for _, section := range h.sections {
		b.WriteString(styles.HeaderStyle.Render(section.Title))
		b.WriteString("\n")
		for _, binding := range section.Bindings {
			if !binding.Enabled() {
				continue
			}
			help := binding.Help()
			b.WriteString(h.formatShortcut(help.Key, help.Desc))
		}
	}

	dialog := styles.HelpDialogStyle.Render(strings.TrimRight(b.String(), "\n"))

	if h.width > 0 {
		dialog = lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, dialog)
	}
	return dialog
}

// formatShortcut formats a keyboard shortcut with its description
func (h *HelpText) formatShortcut(keys, description string) string {
	return padRight(styles.HelpKeyStyle.Render(keys), 16) + styles.HelpDescStyle.Render(description) + "\n"
}

// ShortHelp renders bindings as a single footer line.
func ShortHelp(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		parts = append(parts, styles.AccentStyle.Render(help.Key)+" "+styles.FooterHintStyle.Render(help.Desc))
	}
	return strings.Join(parts, styles.FooterHintStyle.Render(" • "))
}
