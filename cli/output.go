package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"agentteam/api"
	"agentteam/model"
)

const timeLayout = "Mon, Jan 2 at 3:04 PM"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func printAgents(w io.Writer, agents []api.AgentInfo) {
	if len(agents) == 0 {
		fmt.Fprintln(w, "No agents available")
		return
	}

	rows := make([][]string, 0, len(agents))
	for _, a := range agents {
		rows = append(rows, []string{a.Name, a.Role, strings.Join(a.Tools, ", "), a.Description})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "ROLE", "TOOLS", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	fmt.Fprintln(w, t.String())
	fmt.Fprintf(w, "%s%s available\n", humanize.Comma(int64(len(agents))), pluralize(len(agents), " agent", " agents"))
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// printConversation writes the model's current view, oldest first.
func printConversation(w io.Writer, m *model.Model) {
	switch {
	case m.SelectedAgent != "" && m.CurrentThreadID != "":
		fmt.Fprintf(w, "# %s (thread %s)\n\n", m.SelectedAgent, m.CurrentThreadID)
	case m.SelectedAgent != "":
		fmt.Fprintf(w, "# %s\n\n", m.SelectedAgent)
	}

	if len(m.Messages) == 0 {
		fmt.Fprintln(w, "No messages yet")
		return
	}

	for _, msg := range m.Messages {
		when := msg.CreatedAt
		if t, ok := msg.Time(); ok {
			when = t.Local().Format(timeLayout)
		}
		from := msg.Sender
		if msg.Recipient != "" {
			from += " → " + msg.Recipient
		}
		fmt.Fprintf(w, "[%s] %s\n", when, from)
		for _, line := range strings.Split(strings.TrimRight(msg.Content, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s\n", pluralize(len(m.Messages), "1 message", humanize.Comma(int64(len(m.Messages)))+" messages"))
}
