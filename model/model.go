package model

import (
	"context"
	"errors"
	"time"

	"agentteam/api"
	"agentteam/config"
)

// ErrNoAgentSelected is reported when sending without a conversation open.
var ErrNoAgentSelected = errors.New("no agent selected")

var errEmptyResponse = errors.New("backend returned no message")

// Store is the Remote Message Store as the synchronizer sees it.
// *api.Client implements it.
type Store interface {
	ListAgents(ctx context.Context) ([]api.AgentInfo, error)
	ListMessages(ctx context.Context, threadID string, limit int) ([]api.Message, error)
	SendMessage(ctx context.Context, req api.MessageRequest) (*api.Message, error)
	GetProject(ctx context.Context) (*api.Project, error)
}

// Model holds the conversation view state and keeps it in step with the
// backend. It is owned by the UI event loop and must only be touched from
// there; commands it returns run elsewhere and report back through Update.
type Model struct {
	Config *config.Config
	Store  Store

	HistoryLimit   int
	ThreadLimit    int
	RequestTimeout time.Duration

	// Agent cache, filled once by Init
	Agents  []api.AgentInfo
	Project *api.Project

	// Current view
	Messages        []api.Message
	SelectedAgent   string // "" = nothing selected, api.TeamName = team view
	CurrentThreadID string // "" = no thread yet
	IsLoading       bool
	LastError       error

	// generation is bumped by every operation that writes the view.
	// Results from older generations are dropped.
	generation uint64

	now func() time.Time
}

func NewModel(cfg *config.Config, store Store) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.Keybindings == nil {
		cfg.Keybindings = config.DefaultKeybindings()
	}
	return &Model{
		Config:         cfg,
		Store:          store,
		HistoryLimit:   cfg.HistoryLimit,
		ThreadLimit:    cfg.ThreadLimit,
		RequestTimeout: cfg.RequestTimeout,
		now:            time.Now,
	}
}

// IsTeamView reports whether the team pseudo-agent is selected.
func (m *Model) IsTeamView() bool {
	return m.SelectedAgent == api.TeamName
}

// Agent returns the cached agent with the given name.
func (m *Model) Agent(name string) (api.AgentInfo, bool) {
	for _, a := range m.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return api.AgentInfo{}, false
}

// LastAgentReply returns the most recent message not sent by the user.
func (m *Model) LastAgentReply() (api.Message, bool) {
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Sender != api.UserName {
			return m.Messages[i], true
		}
	}
	return api.Message{}, false
}

func (m *Model) nextGeneration() uint64 {
	m.generation++
	return m.generation
}

func (m *Model) isCurrent(gen uint64) bool {
	return gen == m.generation
}

func (m *Model) requestTimeout() time.Duration {
	if m.RequestTimeout <= 0 {
		return config.DefaultRequestTimeout
	}
	return m.RequestTimeout
}

func debugf(format string, args ...any) {
	if config.DebugLog != nil {
		config.DebugLog.Printf(format, args...)
	}
}
