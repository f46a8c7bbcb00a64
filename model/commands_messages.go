package model

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"agentteam/api"
)

const pendingIDPrefix = "temp-"

// SendMessage shows content immediately as a pending user message and sends
// it to the selected agent (or the team). Blank content does nothing.
func (m *Model) SendMessage(content string) tea.Cmd {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if m.SelectedAgent == "" {
		m.LastError = ErrNoAgentSelected
		return nil
	}
	if m.Store == nil {
		return nil
	}

	now := m.now()
	pendingID := m.newPendingID(now.UnixMilli())

	metadata := map[string]any{}
	if m.CurrentThreadID != "" {
		metadata["thread_id"] = m.CurrentThreadID
	}

	m.Messages = append(m.Messages, api.Message{
		ID:        pendingID,
		Content:   content,
		Sender:    api.UserName,
		Recipient: m.SelectedAgent,
		Role:      api.RoleUser,
		CreatedAt: api.FormatTimestamp(now),
		Metadata:  metadata,
	})
	m.IsLoading = true
	m.LastError = nil
	gen := m.nextGeneration()

	req := api.MessageRequest{
		Content:   content,
		ThreadID:  m.CurrentThreadID,
		AgentName: m.SelectedAgent,
	}
	debugf("[Sync] Sending to %q thread=%q pending=%s (generation %d)", req.AgentName, req.ThreadID, pendingID, gen)

	store, timeout := m.Store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := store.SendMessage(ctx, req)
		return MessageSentMsg{Generation: gen, PendingID: pendingID, Response: resp, Err: err}
	}
}

// newPendingID returns temp-<millis>, suffixed if that id is already in
// the view.
func (m *Model) newPendingID(millis int64) string {
	base := fmt.Sprintf("%s%d", pendingIDPrefix, millis)
	id := base
	for n := 1; m.hasMessage(id); n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

func (m *Model) hasMessage(id string) bool {
	for _, msg := range m.Messages {
		if msg.ID == id {
			return true
		}
	}
	return false
}

// IsPending reports whether msg is an optimistic entry not yet confirmed.
func IsPending(msg api.Message) bool {
	return strings.HasPrefix(msg.ID, pendingIDPrefix)
}

func (m *Model) reconcileThread(gen uint64, threadID string) tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	limit := m.ThreadLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msgs, err := store.ListMessages(ctx, threadID, limit)
		return ThreadReconciledMsg{Generation: gen, ThreadID: threadID, Messages: msgs, Err: err}
	}
}
