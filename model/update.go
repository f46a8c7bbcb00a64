package model

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update applies the result of a command issued by this model and returns
// any follow-up command. Messages it does not own are ignored.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case AgentsLoadedMsg:
		m.handleAgentsLoaded(msg)
	case ProjectLoadedMsg:
		m.handleProjectLoaded(msg)
	case HistoryLoadedMsg:
		m.handleHistoryLoaded(msg)
	case ThreadLoadedMsg:
		m.handleThreadLoaded(msg)
	case MessageSentMsg:
		return m.handleMessageSent(msg)
	case ThreadReconciledMsg:
		m.handleThreadReconciled(msg)
	}
	return nil
}

// The agent list is not view state; it is applied whatever the generation.
func (m *Model) handleAgentsLoaded(msg AgentsLoadedMsg) {
	if msg.Err != nil {
		m.LastError = msg.Err
		debugf("[Sync] Failed to load agents: %v", msg.Err)
		return
	}
	m.Agents = msg.Agents
	debugf("[Sync] Loaded %d agents", len(msg.Agents))
}

func (m *Model) handleProjectLoaded(msg ProjectLoadedMsg) {
	if msg.Err != nil {
		// optional endpoint, not surfaced
		debugf("[Sync] Failed to load project: %v", msg.Err)
		return
	}
	m.Project = msg.Project
}

func (m *Model) handleHistoryLoaded(msg HistoryLoadedMsg) {
	if !m.isCurrent(msg.Generation) {
		debugf("[Sync] Dropping stale history (generation %d, current %d)", msg.Generation, m.generation)
		return
	}
	if msg.Err != nil {
		m.LastError = msg.Err
		debugf("[Sync] Failed to load messages: %v", msg.Err)
		return
	}
	m.Messages = SortByTimestamp(msg.Messages)
	m.CurrentThreadID = LatestThreadID(msg.Messages)
}

func (m *Model) handleThreadLoaded(msg ThreadLoadedMsg) {
	if !m.isCurrent(msg.Generation) {
		debugf("[Sync] Dropping stale view for %q (generation %d, current %d)", msg.Agent, msg.Generation, m.generation)
		return
	}
	m.IsLoading = false

	if msg.Err != nil {
		m.Messages = nil
		m.CurrentThreadID = ""
		m.LastError = msg.Err
		debugf("[Sync] Failed to load messages for %q: %v", msg.Agent, msg.Err)
		return
	}

	m.Messages = msg.Messages
	m.CurrentThreadID = msg.ThreadID
	debugf("[Sync] Loaded %d messages for %q thread=%q", len(msg.Messages), msg.Agent, msg.ThreadID)
}

func (m *Model) handleMessageSent(msg MessageSentMsg) tea.Cmd {
	if !m.isCurrent(msg.Generation) {
		debugf("[Sync] Dropping stale send result %s (generation %d, current %d)", msg.PendingID, msg.Generation, m.generation)
		return nil
	}

	if msg.Err != nil || msg.Response == nil {
		err := msg.Err
		if err == nil {
			err = errEmptyResponse
		}
		m.Messages = removeMessage(m.Messages, msg.PendingID)
		m.IsLoading = false
		m.LastError = err
		debugf("[Sync] Failed to send message %s: %v", msg.PendingID, err)
		return nil
	}

	resp := *msg.Response
	if m.CurrentThreadID == "" && resp.ThreadID() != "" {
		m.CurrentThreadID = resp.ThreadID()
	}
	m.Messages = append(m.Messages, resp)

	if m.CurrentThreadID == "" {
		m.IsLoading = false
		return nil
	}
	return m.reconcileThread(msg.Generation, m.CurrentThreadID)
}

// handleThreadReconciled swaps in the server's copy of the thread, which
// includes turns other agents produced while handling the send. An empty
// result keeps the current view.
func (m *Model) handleThreadReconciled(msg ThreadReconciledMsg) {
	if !m.isCurrent(msg.Generation) {
		debugf("[Sync] Dropping stale reconcile of %q (generation %d, current %d)", msg.ThreadID, msg.Generation, m.generation)
		return
	}
	m.IsLoading = false

	if msg.Err != nil {
		m.LastError = msg.Err
		debugf("[Sync] Failed to reconcile thread %q: %v", msg.ThreadID, msg.Err)
		return
	}
	thread := ThreadMessages(msg.Messages, msg.ThreadID)
	if len(thread) == 0 {
		debugf("[Sync] Thread %q came back empty; keeping local view", msg.ThreadID)
		return
	}
	m.Messages = SortByTimestamp(thread)
}
