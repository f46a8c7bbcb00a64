package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agentteam/beacon"
)

// WithVersion sets the version shown in the about box.
func (a AppView) WithVersion(version string) AppView {
	a.version = version
	return a
}

func (a AppView) renderAboutModal() string {
	kb := a.dataModel.Config.Keybindings

	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)

	sb.WriteString(titleStyle.Render("AgentTeam"))
	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render("Terminal client for the multi-agent chat"))
	sb.WriteString("\n\n")

	labelStyle := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Width(10)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("7"))

	version := a.version
	if version == "" {
		version = "dev"
	}
	project := "-"
	if p := a.dataModel.Project; p != nil && p.Name != "" {
		project = p.Name
	}

	rows := [][2]string{
		{"Version", version},
		{"Backend", a.dataModel.Config.APIURL()},
		{"Project", project},
		{"Agents", agentCountLabel(len(a.dataModel.Agents))},
		{"Session", beacon.SessionID()},
		{"Data", a.dataModel.Config.DataDir()},
	}
	for _, row := range rows {
		sb.WriteString(labelStyle.Render(row[0]))
		sb.WriteString(valueStyle.Render(row[1]))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render("Press Esc or " + kb.DisplayActionKey("about") + " to close"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(sb.String()))
}
