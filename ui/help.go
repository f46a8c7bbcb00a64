package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func helpLine(keys, desc string) string {
	return fmt.Sprintf("• %-12s %s", keys, desc)
}

func (a AppView) renderHelpModal() string {
	kb := a.dataModel.Config.Keybindings

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	title := green.Render("AgentTeam - Keyboard Shortcuts")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	agentList := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Agent List"),
		helpLine(kb.DisplayActionKey("list_down")+"/"+kb.DisplayActionKey("list_up")+", ↑/↓", "Move"),
		helpLine(kb.DisplayActionKey("list_top")+"/"+kb.DisplayActionKey("list_bottom"), "First / last"),
		helpLine("Enter", "Open conversation"),
		helpLine(kb.DisplayActionKey("filter"), "Filter agents"),
		helpLine("Esc", "Back to welcome"),
		helpLine(kb.DisplayActionKey("toggle_focus"), "Focus input"),
	)

	conversation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Conversation"),
		helpLine("Enter", "Send message"),
		helpLine(kb.DisplayActionKey("new_line"), "New line"),
		helpLine(kb.DisplayActionKey("yank_last_reply"), "Copy last reply"),
		helpLine(kb.DisplayActionKey("refresh"), "Refresh"),
		helpLine(kb.DisplayActionKey("toggle_focus")+"/Esc", "Focus agent list"),
	)

	global := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global"),
		helpLine(kb.DisplayActionKey("help"), "Toggle this help"),
		helpLine(kb.DisplayActionKey("about"), "About / connection"),
		helpLine(kb.DisplayActionKey("quit"), "Quit"),
		helpLine("Ctrl+C", "Quit"),
	)

	tips := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Tips"),
		"• Team sends to every agent",
		"• Replies between agents",
		"  appear in the Team view",
		"• Keys are set in",
		"  keybindings.toml",
	)

	columnStyle := lipgloss.NewStyle().Width(36).PaddingLeft(4)

	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, agentList, "", global)),
		columnStyle.Render(lipgloss.JoinVertical(lipgloss.Left, conversation, "", tips)),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render("Press " + kb.DisplayActionKey("help") + " or Esc to close this help")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		twoColumns,
		"",
		footer,
	)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Center,
		lipgloss.Center,
		helpBox.Render(content),
	)
}
