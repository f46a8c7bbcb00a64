package model

import "agentteam/api"

type AgentsLoadedMsg struct {
	Agents []api.AgentInfo
	Err    error
}

type ProjectLoadedMsg struct {
	Project *api.Project
	Err     error
}

// HistoryLoadedMsg carries the initial page of recent messages.
type HistoryLoadedMsg struct {
	Generation uint64
	Messages   []api.Message
	Err        error
}

// ThreadLoadedMsg is the outcome of SelectAgent. Messages are already
// filtered and sorted; ThreadID is empty when no thread applies.
type ThreadLoadedMsg struct {
	Generation uint64
	Agent      string
	Messages   []api.Message
	ThreadID   string
	Err        error
}

// MessageSentMsg is the outcome of SendMessage. PendingID is the id the
// optimistic entry was inserted under.
type MessageSentMsg struct {
	Generation uint64
	PendingID  string
	Response   *api.Message
	Err        error
}

// ThreadReconciledMsg carries the full thread fetched after a send.
type ThreadReconciledMsg struct {
	Generation uint64
	ThreadID   string
	Messages   []api.Message
	Err        error
}
