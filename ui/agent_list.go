package ui

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"agentteam/api"
)

const (
	maxToolTags          = 3
	teamEntryDescription = "Talk to the whole team"
)

// listEntry is one selectable row of the agent pane.
type listEntry struct {
	Name        string
	Description string
	Tools       []string
}

// agentEntries returns the pinned Team entry followed by every agent.
func agentEntries(agents []api.AgentInfo) []listEntry {
	entries := make([]listEntry, 0, len(agents)+1)
	entries = append(entries, listEntry{Name: api.TeamName, Description: teamEntryDescription})
	for _, a := range agents {
		entries = append(entries, listEntry{Name: a.Name, Description: a.Description, Tools: a.Tools})
	}
	return entries
}

// filterEntries keeps entries whose name fuzzy-matches query, best match
// first. An empty query keeps everything.
func filterEntries(entries []listEntry, query string) []listEntry {
	if query == "" {
		return entries
	}
	targets := make([]string, len(entries))
	for i, e := range entries {
		targets[i] = e.Name
	}
	matches := fuzzy.Find(query, targets)
	out := make([]listEntry, len(matches))
	for i, match := range matches {
		out[i] = entries[match.Index]
	}
	return out
}

// formatToolTags shows up to limit tool names and a "+N more" suffix for the
// rest.
func formatToolTags(tools []string, limit int) string {
	if len(tools) == 0 {
		return ""
	}
	shown := tools
	if len(tools) > limit {
		shown = tools[:limit]
	}
	tags := make([]string, 0, len(shown)+1)
	for _, t := range shown {
		tags = append(tags, "["+t+"]")
	}
	if extra := len(tools) - len(shown); extra > 0 {
		tags = append(tags, fmt.Sprintf("+%d more", extra))
	}
	return strings.Join(tags, " ")
}

func agentCountLabel(n int) string {
	if n == 1 {
		return "1 agent available"
	}
	return fmt.Sprintf("%d agents available", n)
}

// avatar is the bracketed upper-case first letter of name.
func avatar(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return "[?]"
	}
	return "[" + string(unicode.ToUpper(r)) + "]"
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// renderAgentList draws the agent pane content (without border) at the
// given inner size.
func renderAgentList(entries []listEntry, agentCount, cursor int, selected string, filter string, filterMode bool, width, height int) string {
	var lines []string

	lines = append(lines, TitleStyle.Render("Agents"))
	if filterMode {
		lines = append(lines, filter)
	} else {
		lines = append(lines, DimStyle.Render(strings.Repeat("─", max(width, 0))))
	}

	footer := DimStyle.Render(agentCountLabel(agentCount))
	bodyHeight := height - len(lines) - 2

	var body []string
	if agentCount == 0 && !filterMode {
		body = append(body, DimStyle.Italic(true).Render(truncate("No agents available", width)))
		body = append(body, "")
	}
	if len(entries) == 0 && filterMode {
		body = append(body, DimStyle.Italic(true).Render("No matches found"))
	}

	hints := len(body)
	for i, e := range entries {
		body = append(body, renderAgentEntry(e, i == cursor, e.Name == selected, width)...)
	}

	// Keep the cursor row visible: each entry takes up to three lines.
	if bodyHeight > 0 && len(body) > bodyHeight {
		start := hints + entryOffset(entries, cursor, width)
		if start+bodyHeight > len(body) {
			start = len(body) - bodyHeight
		}
		if start < 0 {
			start = 0
		}
		body = body[start : start+bodyHeight]
	}

	lines = append(lines, body...)
	for len(lines) < height-1 {
		lines = append(lines, "")
	}
	lines = append(lines, footer)

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func renderAgentEntry(e listEntry, atCursor, isSelected bool, width int) []string {
	indicator := "  "
	if atCursor {
		indicator = "▶ "
	}

	nameStyle := lipgloss.NewStyle()
	if isSelected {
		nameStyle = SelectedStyle
	} else if e.Name == api.TeamName {
		nameStyle = TeamStyle
	}
	head := indicator + avatar(e.Name) + " " + nameStyle.Render(truncate(e.Name, width-7))

	indent := "      "
	lines := []string{head}
	if e.Description != "" {
		lines = append(lines, DimStyle.Render(indent+truncate(e.Description, width-len(indent))))
	}
	if tags := formatToolTags(e.Tools, maxToolTags); tags != "" {
		lines = append(lines, TagStyle.Render(indent+truncate(tags, width-len(indent))))
	}
	return lines
}

// entryOffset is the first body line of entries[idx].
func entryOffset(entries []listEntry, idx, width int) int {
	offset := 0
	for i := 0; i < idx && i < len(entries); i++ {
		offset += len(renderAgentEntry(entries[i], false, false, width))
	}
	return offset
}
