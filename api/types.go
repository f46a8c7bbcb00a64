package api

import (
	"strings"
	"time"
)

const (
	// UserName is the sender/recipient used for the human side of a conversation.
	UserName = "user"
	// TeamName is the reserved pseudo-agent selecting the team view.
	TeamName = "Team"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleManager   Role = "manager"
	RoleCritic    Role = "critic"
	RoleRAG       Role = "rag"
)

const (
	metaThreadID     = "thread_id"
	metaIsTeamThread = "is_team_thread"
)

type Message struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Sender    string         `json:"sender"`
	Recipient string         `json:"recipient"`
	Role      Role           `json:"role"`
	CreatedAt string         `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// RawThreadID is the row-level thread_id some backends return next to
	// metadata. ThreadID prefers metadata.
	RawThreadID string `json:"thread_id,omitempty"`
}

// ThreadID returns metadata.thread_id, falling back to the row-level field.
// Empty means the message belongs to no known thread.
func (m Message) ThreadID() string {
	if v, ok := m.Metadata[metaThreadID].(string); ok && v != "" {
		return v
	}
	return m.RawThreadID
}

// IsTeamThread reports an explicit metadata.is_team_thread = true.
func (m Message) IsTeamThread() bool {
	v, ok := m.Metadata[metaIsTeamThread].(bool)
	return ok && v
}

// IsInterAgent reports a message exchanged between agents, with the user on
// neither end.
func (m Message) IsInterAgent() bool {
	return m.Sender != UserName && m.Recipient != UserName
}

// Time parses CreatedAt. Zone-less timestamps are read as local time.
func (m Message) Time() (time.Time, bool) {
	return ParseTimestamp(m.CreatedAt)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp is the wire format for timestamps created client-side.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type AgentInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

type MessageRequest struct {
	Content   string `json:"content"`
	ThreadID  string `json:"thread_id,omitempty"`
	AgentName string `json:"agent_name"`
}

type ClientExitEvent struct {
	SessionID string `json:"session_id"`
	Page      string `json:"page"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

type Project struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	RepoURL  string         `json:"repo_url,omitempty"`
	Branch   string         `json:"branch,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
