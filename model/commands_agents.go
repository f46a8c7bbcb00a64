package model

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"agentteam/api"
)

// Init loads the agent list, the default page of recent messages and the
// project info. Each fetch fails independently.
func (m *Model) Init() tea.Cmd {
	if m.Store == nil {
		return nil
	}
	gen := m.nextGeneration()
	return tea.Batch(
		m.fetchAgents(),
		m.fetchHistory(gen),
		m.fetchProject(),
	)
}

func (m *Model) fetchAgents() tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		agents, err := store.ListAgents(ctx)
		return AgentsLoadedMsg{Agents: agents, Err: err}
	}
}

func (m *Model) fetchHistory(gen uint64) tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	limit := m.HistoryLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		msgs, err := store.ListMessages(ctx, "", limit)
		return HistoryLoadedMsg{Generation: gen, Messages: msgs, Err: err}
	}
}

func (m *Model) fetchProject() tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		project, err := store.GetProject(ctx)
		return ProjectLoadedMsg{Project: project, Err: err}
	}
}

// SelectAgent switches the view to name: api.TeamName for the team view,
// any other non-empty name for that agent's one-to-one conversation, or ""
// to return to the welcome screen.
func (m *Model) SelectAgent(name string) tea.Cmd {
	m.SelectedAgent = name
	m.LastError = nil
	gen := m.nextGeneration()

	if name == "" || m.Store == nil {
		m.IsLoading = false
		m.Messages = nil
		m.CurrentThreadID = ""
		return nil
	}

	m.IsLoading = true
	debugf("[Sync] Selecting %q (generation %d)", name, gen)

	if name == api.TeamName {
		return m.loadTeamThread(gen)
	}
	return m.loadAgentThread(gen, name)
}

// Refresh reloads the current selection from the backend.
func (m *Model) Refresh() tea.Cmd {
	if m.SelectedAgent == "" {
		return nil
	}
	return m.SelectAgent(m.SelectedAgent)
}

func (m *Model) loadTeamThread(gen uint64) tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	limit, threadLimit := m.HistoryLimit, m.ThreadLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		all, err := store.ListMessages(ctx, "", limit)
		if err != nil {
			return ThreadLoadedMsg{Generation: gen, Agent: api.TeamName, Err: err}
		}

		threadID, ok := FindTeamThreadID(all)
		if !ok {
			return ThreadLoadedMsg{Generation: gen, Agent: api.TeamName}
		}

		thread, err := store.ListMessages(ctx, threadID, threadLimit)
		if err != nil {
			return ThreadLoadedMsg{Generation: gen, Agent: api.TeamName, Err: err}
		}

		return ThreadLoadedMsg{
			Generation: gen,
			Agent:      api.TeamName,
			Messages:   SortByTimestamp(ThreadMessages(thread, threadID)),
			ThreadID:   threadID,
		}
	}
}

func (m *Model) loadAgentThread(gen uint64, name string) tea.Cmd {
	store, timeout := m.Store, m.requestTimeout()
	limit := m.HistoryLimit
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		all, err := store.ListMessages(ctx, "", limit)
		if err != nil {
			return ThreadLoadedMsg{Generation: gen, Agent: name, Err: err}
		}

		msgs := SortByTimestamp(FilterAgentConversation(all, name))
		threadID := ""
		if len(msgs) > 0 {
			threadID = msgs[len(msgs)-1].ThreadID()
		}

		return ThreadLoadedMsg{
			Generation: gen,
			Agent:      name,
			Messages:   msgs,
			ThreadID:   threadID,
		}
	}
}
