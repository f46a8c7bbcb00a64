package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func repeatRule(width int) string {
	return strings.Repeat("─", max(width, 0))
}

// statusBar shows the last error, a transient notice or the key hints for
// the focused pane, in that order of priority.
func (a AppView) statusBar() string {
	kb := a.dataModel.Config.Keybindings
	var left string
	switch {
	case a.dataModel.LastError != nil:
		left = ErrorStyle.Render("Error: " + a.dataModel.LastError.Error())
	case a.notice != "":
		left = SelectedStyle.Render(a.notice)
	case a.filterMode:
		left = FormatFooter("↑/↓", "Move", "Enter", "Select", "Esc", "Clear filter")
	case a.focus == focusInput:
		left = FormatFooter(
			"Enter", "Send",
			kb.DisplayActionKey("new_line"), "New line",
			kb.DisplayActionKey("toggle_focus"), "Agents",
			kb.DisplayActionKey("yank_last_reply"), "Copy",
			kb.DisplayActionKey("refresh"), "Refresh",
			kb.DisplayActionKey("quit"), "Quit",
		)
	default:
		left = FormatFooter(
			kb.DisplayActionKey("list_down")+"/"+kb.DisplayActionKey("list_up"), "Move",
			"Enter", "Select",
			kb.DisplayActionKey("filter"), "Filter",
			kb.DisplayActionKey("toggle_focus"), "Input",
			kb.DisplayActionKey("help"), "Help",
			kb.DisplayActionKey("quit"), "Quit",
		)
	}

	right := ""
	if a.dataModel.IsLoading {
		right = a.loadingSpinner.View() + " loading"
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return StatusStyle.Render(truncate(left, a.width))
	}
	return StatusStyle.Render(left + strings.Repeat(" ", gap) + right)
}
