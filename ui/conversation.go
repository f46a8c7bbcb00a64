package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"agentteam/api"
	"agentteam/model"
)

// Message timestamps read like "Mon, Jan 2 at 3:04 PM".
const messageTimeLayout = "Mon, Jan 2 at 3:04 PM"

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
)

// formatMessageTime renders createdAt in local time. Unparseable values
// show now instead.
func formatMessageTime(createdAt string, now time.Time) string {
	t, ok := api.ParseTimestamp(createdAt)
	if !ok {
		t = now
	}
	return t.Local().Format(messageTimeLayout)
}

// lastActivity describes the newest parseable timestamp relative to now,
// e.g. "3 minutes ago". Empty when no message has a usable timestamp.
func lastActivity(msgs []api.Message, now time.Time) string {
	var latest time.Time
	for _, msg := range msgs {
		if t, ok := msg.Time(); ok && t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return ""
	}
	if latest.After(now) {
		latest = now
	}
	return humanize.RelTime(latest, now, "ago", "from now")
}

func messageCountLabel(n int) string {
	switch n {
	case 0:
		return "Start a conversation"
	case 1:
		return "1 message"
	default:
		return fmt.Sprintf("%d messages", n)
	}
}

// senderLabel names who wrote msg. Turns between two agents show both ends.
func senderLabel(msg api.Message) string {
	if msg.Role == api.RoleUser {
		return "You"
	}
	if msg.IsInterAgent() && msg.Recipient != "" {
		return msg.Sender + " → " + msg.Recipient
	}
	return msg.Sender
}

func roleStyle(role api.Role) lipgloss.Style {
	switch role {
	case api.RoleUser:
		return UserStyle
	case api.RoleAssistant:
		return AssistantStyle
	default:
		return TeamStyle
	}
}

// markdownRenderer renders message content as terminal markdown and caches
// the result per width.
type markdownRenderer struct {
	cache map[string]string
}

func newMarkdownRenderer() *markdownRenderer {
	return &markdownRenderer{cache: map[string]string{}}
}

func (r *markdownRenderer) Render(content string, width int) string {
	if width < 10 {
		width = 10
	}
	key := fmt.Sprintf("%d:%s", width, content)
	if out, ok := r.cache[key]; ok {
		return out
	}

	// Autolink stays off so URLs remain plain text the terminal can detect.
	p := parser.NewWithExtensions(markdown.Extensions() &^ parser.Autolink)
	doc := p.Parse([]byte(mdLinkRegex.ReplaceAllString(content, "$2")))
	rendered := string(gomarkdown.Render(doc, markdown.NewRenderer(width, 0)))
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = strings.Trim(rendered, "\n")

	r.cache[key] = rendered
	return rendered
}

// renderMessages lays out the conversation as a column of bubbles. User
// messages are labelled on the right.
func renderMessages(msgs []api.Message, md *markdownRenderer, width int, now time.Time) string {
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(renderBubble(msg, md, width, now))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBubble(msg api.Message, md *markdownRenderer, width int, now time.Time) string {
	style := roleStyle(msg.Role)
	header := style.Render(senderLabel(msg)) + " " + DimStyle.Render(formatMessageTime(msg.CreatedAt, now))
	if model.IsPending(msg) {
		header += DimStyle.Italic(true).Render(" sending...")
	}

	body := md.Render(msg.Content, width-4)
	bar := style.Render("┃")

	var lines []string
	if msg.Role == api.RoleUser {
		lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Right, header))
	} else {
		lines = append(lines, header)
	}
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, bar+" "+line)
	}
	return strings.Join(lines, "\n") + "\n"
}

// renderConversationHeader shows the selection, its message count and when
// it was last active.
func renderConversationHeader(selected string, agent *api.AgentInfo, msgs []api.Message, now time.Time, width int) string {
	title := avatar(selected) + " " + TitleStyle.Render(selected)
	switch {
	case selected == api.TeamName:
		title += DimStyle.Render("  all agents")
	case agent != nil && agent.Role != "":
		title += DimStyle.Render("  " + agent.Role)
	}

	info := messageCountLabel(len(msgs))
	if ago := lastActivity(msgs, now); ago != "" {
		info += " · last activity " + ago
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		truncate(title, width),
		DimStyle.Render(truncate(info, width)),
	)
}

// renderWelcome is shown while no agent is selected.
func renderWelcome(project *api.Project, agentCount, width, height int) string {
	lines := []string{
		AssistantStyle.Bold(true).Render("Welcome to AgentTeam"),
		"",
		"Choose from available agents to begin your development session,",
		"or pick Team to talk to every agent at once.",
	}
	if project != nil && project.Name != "" {
		lines = append(lines, "", DimStyle.Render("Project: "+project.Name))
	}
	if agentCount == 0 {
		lines = append(lines, "", DimStyle.Italic(true).Render("No agents available yet"))
	}
	lines = append(lines, "", DimStyle.Render(FormatFooter("Tab", "Switch pane", "Enter", "Select", "?", "Help")))

	content := lipgloss.NewStyle().Width(min(width, 70)).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// renderEmptyConversation is shown for a selection with no messages yet.
func renderEmptyConversation(selected string, width, height int) string {
	text := "No messages yet. Say hello to " + selected + "!"
	if selected == api.TeamName {
		text = "No team conversation yet. Send a message to get the team started."
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, DimStyle.Render(text))
}
