package model

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/api"
	"agentteam/api/apitest"
	"agentteam/config"
)

func newTestModel(t *testing.T) (*Model, *apitest.Server) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL, nil)
	require.NoError(t, err)

	m := NewModel(config.DefaultConfig(), client)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}
	return m, srv
}

func assertAscending(t *testing.T, msgs []api.Message) {
	t.Helper()
	for i := 1; i < len(msgs); i++ {
		prev, _ := msgs[i-1].Time()
		cur, _ := msgs[i].Time()
		assert.False(t, cur.Before(prev), "message %d (%s) is older than message %d (%s)", i, msgs[i].CreatedAt, i-1, msgs[i-1].CreatedAt)
	}
}

func withThread(threadID string) map[string]any {
	return map[string]any{"thread_id": threadID}
}

func TestInitLoadsAgentsHistoryAndThread(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetAgents(api.AgentInfo{ID: "1", Name: "Developer"}, api.AgentInfo{ID: "2", Name: "Critic"})
	srv.SetProject(&api.Project{ID: "p1", Name: "Agent Team Workspace"})
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Developer", Content: "one", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Critic", Content: "two", Metadata: withThread("t2")})

	m.Drain(m.Init())

	require.Len(t, m.Agents, 2)
	require.NotNil(t, m.Project)
	assert.Equal(t, "Agent Team Workspace", m.Project.Name)
	require.Len(t, m.Messages, 2)
	assert.Equal(t, "one", m.Messages[0].Content, "history is installed oldest first")
	assertAscending(t, m.Messages)
	assert.Equal(t, "t2", m.CurrentThreadID, "thread id comes from the most recent message")
	assert.NoError(t, m.LastError)
	assert.Equal(t, "50", srv.LastQuery("limit"))
}

func TestInitFailuresAreIndependent(t *testing.T) {
	t.Run("agents fail", func(t *testing.T) {
		m, srv := newTestModel(t)
		srv.AddMessage(api.Message{Sender: "user", Recipient: "Developer", Metadata: withThread("t1")})
		srv.FailNext("GET /api/agents", 1)

		m.Drain(m.Init())

		assert.Empty(t, m.Agents)
		assert.Len(t, m.Messages, 1)
		assert.Equal(t, "t1", m.CurrentThreadID)
		assert.Error(t, m.LastError)
		assert.Equal(t, 1, srv.Hits("GET /api/agents"), "no retry")
	})

	t.Run("messages fail", func(t *testing.T) {
		m, srv := newTestModel(t)
		srv.SetAgents(api.AgentInfo{ID: "1", Name: "Developer"})
		srv.FailNext("GET /api/messages", 1)

		m.Drain(m.Init())

		assert.Len(t, m.Agents, 1)
		assert.Empty(t, m.Messages)
		assert.Equal(t, "", m.CurrentThreadID)
		assert.Error(t, m.LastError)
	})
}

func TestSelectAgentWithNoMessages(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetAgents(api.AgentInfo{ID: "1", Name: "Alice"})
	m.Drain(m.Init())

	cmd := m.SelectAgent("Alice")
	assert.True(t, m.IsLoading, "loading while the fetch is in flight")
	m.Drain(cmd)

	assert.Equal(t, "Alice", m.SelectedAgent)
	assert.Empty(t, m.Messages)
	assert.Equal(t, "", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
}

func TestSelectAgentShowsOnlyDirectConversation(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "u1", Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{ID: "a1", Sender: "Alice", Recipient: "user", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{ID: "x1", Sender: "Alice", Recipient: "Bob", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{ID: "b1", Sender: "user", Recipient: "Bob", Metadata: withThread("t3")})
	srv.AddMessage(api.Message{ID: "u2", Sender: "user", Recipient: "Alice", Metadata: withThread("t2")})

	m.Drain(m.SelectAgent("Alice"))

	assert.Equal(t, []string{"u1", "a1", "u2"}, ids(m.Messages))
	assertAscending(t, m.Messages)
	assert.Equal(t, "t2", m.CurrentThreadID, "thread id follows the latest message in the conversation")
	for _, msg := range m.Messages {
		assert.ElementsMatch(t, []string{"user", "Alice"}, []string{msg.Sender, msg.Recipient})
	}
}

func TestRefreshReloadsSelection(t *testing.T) {
	m, srv := newTestModel(t)
	assert.Nil(t, m.Refresh(), "nothing selected, nothing to refresh")

	m.Drain(m.SelectAgent("Alice"))
	require.Empty(t, m.Messages)

	srv.AddMessage(api.Message{ID: "late", Sender: "Alice", Recipient: "user", Metadata: withThread("t7")})
	m.Drain(m.Refresh())

	assert.Equal(t, "Alice", m.SelectedAgent)
	assert.Equal(t, []string{"late"}, ids(m.Messages))
	assert.Equal(t, "t7", m.CurrentThreadID)
}

func TestSelectTeamInstallsFlaggedThread(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "d1", Sender: "user", Recipient: "Developer", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{ID: "t9-1", Sender: "user", Recipient: "Manager", Metadata: withThread("t9")})
	srv.AddMessage(api.Message{ID: "t9-2", Sender: "Manager", Recipient: "user", Metadata: map[string]any{"thread_id": "t9", "is_team_thread": true}})
	srv.AddMessage(api.Message{ID: "d2", Sender: "Developer", Recipient: "user", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{ID: "t9-3", Sender: "user", Recipient: "Manager", Metadata: withThread("t9")})

	m.Drain(m.SelectAgent(api.TeamName))

	assert.True(t, m.IsTeamView())
	assert.Equal(t, "t9", m.CurrentThreadID)
	assert.Equal(t, []string{"t9-1", "t9-2", "t9-3"}, ids(m.Messages))
	assert.Equal(t, "t9", srv.LastQuery("thread_id"))
	assert.Equal(t, "200", srv.LastQuery("limit"), "thread fetch uses the thread limit")
	assert.False(t, m.IsLoading)
}

func TestSelectTeamWithoutTeamThread(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Developer", Metadata: withThread("t1")})
	m.Drain(m.Init())
	require.NotEmpty(t, m.Messages)

	m.Drain(m.SelectAgent(api.TeamName))

	assert.Empty(t, m.Messages)
	assert.Equal(t, "", m.CurrentThreadID)
	assert.Equal(t, 2, srv.Hits("GET /api/messages"), "no thread fetch without a team thread")
}

func TestSelectAgentFailureClearsView(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
	m.Drain(m.SelectAgent("Alice"))
	require.NotEmpty(t, m.Messages)

	srv.FailNext("GET /api/messages", 1)
	m.Drain(m.SelectAgent("Alice"))

	assert.Empty(t, m.Messages)
	assert.Equal(t, "", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
	assert.True(t, api.IsStatus(m.LastError, 500))
}

func TestSelectNothingReturnsHome(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
	m.Drain(m.SelectAgent("Alice"))

	assert.Nil(t, m.SelectAgent(""))
	assert.Equal(t, "", m.SelectedAgent)
	assert.Empty(t, m.Messages)
	assert.Equal(t, "", m.CurrentThreadID)
	assert.Nil(t, m.Refresh(), "nothing to refresh on the welcome screen")
}

func TestSendMessageStartsThread(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetAgents(api.AgentInfo{ID: "1", Name: "Alice"})
	srv.SetReply(func(req api.MessageRequest, threadID string) []api.Message {
		return []api.Message{{Content: "hello", Sender: "Alice", Recipient: "user", Role: api.RoleAssistant}}
	})
	m.Drain(m.SelectAgent("Alice"))
	require.Equal(t, "", m.CurrentThreadID)

	cmd := m.SendMessage("  hi  ")
	require.NotNil(t, cmd)

	require.Len(t, m.Messages, 1, "optimistic message is shown before the response")
	pending := m.Messages[0]
	assert.True(t, IsPending(pending))
	assert.Equal(t, "hi", pending.Content)
	assert.Equal(t, "user", pending.Sender)
	assert.Equal(t, "Alice", pending.Recipient)
	assert.Equal(t, api.RoleUser, pending.Role)
	assert.Equal(t, "", pending.ThreadID())
	assert.True(t, m.IsLoading)

	m.Drain(cmd)

	assert.Equal(t, "thread-1", m.CurrentThreadID)
	require.GreaterOrEqual(t, len(m.Messages), 2)
	assertAscending(t, m.Messages)
	last := m.Messages[len(m.Messages)-1]
	assert.Equal(t, "hello", last.Content)
	assert.Equal(t, "Alice", last.Sender)
	for _, msg := range m.Messages {
		assert.False(t, IsPending(msg), "reconciliation replaces the optimistic entry")
	}
	assert.False(t, m.IsLoading)
	assert.NoError(t, m.LastError)

	// Selecting the same agent again reproduces the conversation.
	before := ids(m.Messages)
	m.Drain(m.SelectAgent("Alice"))
	assert.Equal(t, before, ids(m.Messages))
	assert.Equal(t, "thread-1", m.CurrentThreadID)
}

func TestSendMessageContinuesThread(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
	srv.AddMessage(api.Message{Sender: "Alice", Recipient: "user", Metadata: withThread("t1")})
	m.Drain(m.SelectAgent("Alice"))
	require.Equal(t, "t1", m.CurrentThreadID)

	cmd := m.SendMessage("again")
	assert.Equal(t, "t1", m.Messages[len(m.Messages)-1].ThreadID(), "optimistic entry carries the current thread")
	m.Drain(cmd)

	assert.Equal(t, "t1", m.CurrentThreadID)
	assert.Len(t, m.Messages, 4)
	stored := srv.Messages()
	assert.Equal(t, "t1", stored[2].ThreadID(), "request carried the existing thread id")
}

func TestSendMessageReconcilesSideEffects(t *testing.T) {
	m, srv := newTestModel(t)
	srv.SetReply(func(req api.MessageRequest, threadID string) []api.Message {
		return []api.Message{
			{Content: "please review", Sender: "Manager", Recipient: "Critic", Role: api.RoleManager},
			{Content: "looks fine", Sender: "Critic", Recipient: "Manager", Role: api.RoleCritic},
			{Content: "done", Sender: "Manager", Recipient: "user", Role: api.RoleManager},
		}
	})
	m.Drain(m.SelectAgent(api.TeamName))

	cmd := m.SendMessage("build it")
	assert.Equal(t, api.TeamName, m.Messages[0].Recipient)
	m.Drain(cmd)

	require.Len(t, m.Messages, 4)
	assert.Equal(t, []string{"build it", "please review", "looks fine", "done"}, contents(m.Messages))
	assertAscending(t, m.Messages)

	stored := srv.Messages()
	assert.Equal(t, api.TeamName, stored[0].Recipient, "request targets the Team pseudo-agent")

	// The thread is now discoverable as a team thread.
	m.Drain(m.SelectAgent(api.TeamName))
	assert.Equal(t, m.CurrentThreadID, stored[0].ThreadID())
	assert.Len(t, m.Messages, 4)
}

func contents(msgs []api.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestSendBlankIsNoop(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\t"} {
		t.Run(strings.ReplaceAll(content, "\n", `\n`), func(t *testing.T) {
			m, srv := newTestModel(t)
			srv.AddMessage(api.Message{Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
			m.Drain(m.SelectAgent("Alice"))
			before := ids(m.Messages)
			gen := m.generation

			assert.Nil(t, m.SendMessage(content))
			assert.Equal(t, before, ids(m.Messages))
			assert.Equal(t, "t1", m.CurrentThreadID)
			assert.Equal(t, gen, m.generation)
			assert.False(t, m.IsLoading)
			assert.Equal(t, 0, srv.Hits("POST /api/messages"))
		})
	}
}

func TestSendWithoutSelection(t *testing.T) {
	m, srv := newTestModel(t)

	assert.Nil(t, m.SendMessage("hello?"))
	assert.True(t, errors.Is(m.LastError, ErrNoAgentSelected))
	assert.Empty(t, m.Messages)
	assert.Equal(t, 0, srv.Hits("POST /api/messages"))
}

func TestSendFailureRemovesOptimisticEntry(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "u1", Sender: "user", Recipient: "Alice", Metadata: withThread("t1")})
	m.Drain(m.SelectAgent("Alice"))
	srv.FailNext("POST /api/messages", 1)

	cmd := m.SendMessage("will fail")
	require.Len(t, m.Messages, 2)

	// Time moves on before the failure comes back; removal must not
	// depend on the clock.
	m.now()
	m.now()
	m.Drain(cmd)

	assert.Equal(t, []string{"u1"}, ids(m.Messages))
	assert.Equal(t, "t1", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
	assert.Error(t, m.LastError)
}

func TestReconcileFailureKeepsView(t *testing.T) {
	m, srv := newTestModel(t)
	m.Drain(m.SelectAgent("Alice"))

	cmd := m.SendMessage("hi")
	sent := m.Update(cmd())
	require.NotNil(t, sent, "a thread id is known, so a reconcile follows")
	require.Len(t, m.Messages, 2)
	assert.True(t, m.IsLoading, "still loading until the thread is reconciled")

	srv.FailNext("GET /api/messages", 1)
	m.Drain(sent)

	assert.Len(t, m.Messages, 2)
	assert.Equal(t, "thread-1", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
	assert.Error(t, m.LastError)
}

func TestStaleSelectionIsDiscarded(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "alice", Sender: "user", Recipient: "Alice", Metadata: withThread("ta")})
	srv.AddMessage(api.Message{ID: "bob", Sender: "user", Recipient: "Bob", Metadata: withThread("tb")})

	selectAlice := m.SelectAgent("Alice")
	selectBob := m.SelectAgent("Bob")

	aliceResult := selectAlice()
	m.Drain(selectBob)
	m.Update(aliceResult)

	assert.Equal(t, "Bob", m.SelectedAgent)
	assert.Equal(t, []string{"bob"}, ids(m.Messages))
	assert.Equal(t, "tb", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
}

func TestStaleSendIsDiscarded(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "bob", Sender: "user", Recipient: "Bob", Metadata: withThread("tb")})
	m.Drain(m.SelectAgent("Alice"))

	send := m.SendMessage("to alice")
	selectBob := m.SelectAgent("Bob")

	sent := send()
	m.Drain(selectBob)
	assert.Nil(t, m.Update(sent), "stale send must not trigger a reconcile")

	assert.Equal(t, []string{"bob"}, ids(m.Messages))
	assert.Equal(t, "tb", m.CurrentThreadID)
	assert.False(t, m.IsLoading)
}

func TestStaleHistoryIsDiscarded(t *testing.T) {
	m, srv := newTestModel(t)
	srv.AddMessage(api.Message{ID: "alice", Sender: "user", Recipient: "Alice", Metadata: withThread("ta")})
	srv.AddMessage(api.Message{ID: "other", Sender: "user", Recipient: "Bob", Metadata: withThread("tb")})

	init := m.Init()
	m.Drain(m.SelectAgent("Alice"))
	m.Drain(init)

	assert.Equal(t, []string{"alice"}, ids(m.Messages), "initial history must not overwrite a selection made meanwhile")
	assert.Equal(t, "ta", m.CurrentThreadID)
}

func TestPendingIDsAreUnique(t *testing.T) {
	m := NewModel(nil, nil)
	m.Messages = []api.Message{{ID: "temp-1000"}, {ID: "temp-1000-1"}}

	assert.Equal(t, "temp-1000-2", m.newPendingID(1000))
	assert.Equal(t, "temp-1001", m.newPendingID(1001))
}

func TestLastAgentReply(t *testing.T) {
	m := NewModel(nil, nil)
	_, ok := m.LastAgentReply()
	assert.False(t, ok)

	m.Messages = []api.Message{
		{ID: "1", Sender: "Alice", Content: "first"},
		{ID: "2", Sender: "user", Content: "question"},
	}
	reply, ok := m.LastAgentReply()
	require.True(t, ok)
	assert.Equal(t, "first", reply.Content)
}
