package model

import (
	"slices"

	"agentteam/api"
)

// IsTeamMessage reports whether msg marks its thread as a team thread: an
// explicit is_team_thread flag, or a message with the user on neither end.
// The flag is checked first.
func IsTeamMessage(msg api.Message) bool {
	if msg.IsTeamThread() {
		return true
	}
	return msg.IsInterAgent()
}

// FindTeamThreadID scans msgs in the order given and returns the thread id
// of the first team message that has one.
func FindTeamThreadID(msgs []api.Message) (string, bool) {
	for _, msg := range msgs {
		id := msg.ThreadID()
		if id == "" {
			continue
		}
		if IsTeamMessage(msg) {
			return id, true
		}
	}
	return "", false
}

// FilterAgentConversation keeps the messages exchanged directly between the
// user and agent, in either direction.
func FilterAgentConversation(msgs []api.Message, agent string) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		toAgent := msg.Sender == api.UserName && msg.Recipient == agent
		fromAgent := msg.Sender == agent && msg.Recipient == api.UserName
		if toAgent || fromAgent {
			out = append(out, msg)
		}
	}
	return out
}

// SortByTimestamp returns a copy of msgs in ascending creation order. Ties
// keep their input order; unparseable timestamps sort first.
func SortByTimestamp(msgs []api.Message) []api.Message {
	out := slices.Clone(msgs)
	slices.SortStableFunc(out, func(a, b api.Message) int {
		ta, _ := a.Time()
		tb, _ := b.Time()
		return ta.Compare(tb)
	})
	return out
}

// LatestThreadID returns the thread id of the most recent message, or "".
func LatestThreadID(msgs []api.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	sorted := SortByTimestamp(msgs)
	return sorted[len(sorted)-1].ThreadID()
}

func removeMessage(msgs []api.Message, id string) []api.Message {
	return slices.DeleteFunc(slices.Clone(msgs), func(msg api.Message) bool {
		return msg.ID == id
	})
}

// ThreadMessages drops messages that carry a thread id other than threadID.
// Messages without a thread id are kept.
func ThreadMessages(msgs []api.Message, threadID string) []api.Message {
	out := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		if id := msg.ThreadID(); id != "" && id != threadID {
			continue
		}
		out = append(out, msg)
	}
	return out
}
