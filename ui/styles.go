package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")
	borderColor    = lipgloss.Color("8")

	// User message style
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)
	// NO .Background() = transparent!

	// Agent reply style (role assistant)
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Manager, critic and rag turns
	TeamStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	// System/timestamp style
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	// Status bar style
	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	TagStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// Pane borders; the focused pane uses the accent color.
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)
	FocusedPaneStyle = PaneStyle.
				BorderForeground(accentColor)
)

// FormatFooter formats a footer string with alternating keys and descriptions.
// Keys remain default color, descriptions are rendered in accent blue+bold.
// Usage: FormatFooter("j/k", "Navigate", "Enter", "Select")
// Result: "j/k Navigate  Enter Select"
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i < len(parts); i += 2 {
		if i+1 < len(parts) {
			result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
		}
	}
	return strings.Join(result, "  ")
}
