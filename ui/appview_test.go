package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentteam/api"
	"agentteam/api/apitest"
	"agentteam/beacon"
	"agentteam/config"
	appmodel "agentteam/model"
)

func newTestView(t *testing.T, agents ...api.AgentInfo) (AppView, *apitest.Server, *beacon.Beacon) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetAgents(agents...)

	client, err := api.NewClient(srv.URL, nil)
	require.NoError(t, err)

	b := beacon.New(client, time.Second)
	a := NewAppView(appmodel.NewModel(config.DefaultConfig(), client), b)
	a = drive(a, a.Init())
	a = update(a, tea.WindowSizeMsg{Width: 120, Height: 40})
	return a, srv, b
}

func update(a AppView, msg tea.Msg) AppView {
	next, _ := a.Update(msg)
	return next.(AppView)
}

func press(a AppView, keys ...tea.KeyMsg) AppView {
	for _, k := range keys {
		next, cmd := a.Update(k)
		a = drive(next.(AppView), cmd)
	}
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

// drive runs cmd and its follow-ups like the bubbletea loop would, feeding
// results back through Update. Timers (spinner, cursor blink) are dropped.
func drive(a AppView, cmd tea.Cmd) AppView {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := runWithin(next, 2*time.Second)
		switch msg := msg.(type) {
		case nil, spinner.TickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		model, follow := a.Update(msg)
		a = model.(AppView)
		queue = append(queue, follow)
	}
	return a
}

func runWithin(cmd tea.Cmd, limit time.Duration) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(limit):
		return nil
	}
}

func TestFormatToolTags(t *testing.T) {
	tests := []struct {
		name  string
		tools []string
		want  string
	}{
		{name: "none", tools: nil, want: ""},
		{name: "under limit", tools: []string{"git", "shell"}, want: "[git] [shell]"},
		{name: "at limit", tools: []string{"a", "b", "c"}, want: "[a] [b] [c]"},
		{name: "over limit", tools: []string{"a", "b", "c", "d", "e"}, want: "[a] [b] [c] +2 more"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatToolTags(tt.tools, maxToolTags))
		})
	}
}

func TestAgentCountLabel(t *testing.T) {
	assert.Equal(t, "0 agents available", agentCountLabel(0))
	assert.Equal(t, "1 agent available", agentCountLabel(1))
	assert.Equal(t, "4 agents available", agentCountLabel(4))
}

func TestFormatMessageTime(t *testing.T) {
	now := time.Date(2025, 3, 3, 15, 4, 0, 0, time.Local)

	assert.Equal(t, "Mon, Mar 3 at 3:04 PM", formatMessageTime("not a date", now), "invalid timestamps show the current time")
	assert.Equal(t, "Mon, Mar 3 at 3:04 PM", formatMessageTime("", now))
	assert.Equal(t, "Sat, Mar 1 at 9:30 AM", formatMessageTime("2025-03-01T09:30:00", now), "zone-less timestamps are local")
}

func TestLastActivity(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []api.Message{
		{CreatedAt: "2025-03-01T11:57:00Z"},
		{CreatedAt: "garbage"},
		{CreatedAt: "2025-03-01T11:00:00Z"},
	}
	assert.Equal(t, "3 minutes ago", lastActivity(msgs, now))
	assert.Equal(t, "", lastActivity(msgs[1:2], now))
}

func TestFilterEntries(t *testing.T) {
	entries := agentEntries([]api.AgentInfo{{Name: "Developer"}, {Name: "Critic"}, {Name: "Manager"}})
	require.Equal(t, api.TeamName, entries[0].Name, "team is pinned first")

	got := filterEntries(entries, "dev")
	require.NotEmpty(t, got)
	assert.Equal(t, "Developer", got[0].Name)

	assert.Len(t, filterEntries(entries, ""), 4)
	assert.Empty(t, filterEntries(entries, "zzz"))
}

func TestRenderAgentListEmpty(t *testing.T) {
	out := renderAgentList(agentEntries(nil), 0, 0, "", "", false, 30, 20)
	assert.Contains(t, out, "No agents available")
	assert.Contains(t, out, "0 agents available")
	assert.Contains(t, out, api.TeamName, "team entry is always offered")
}

func TestRenderAgentListTruncates(t *testing.T) {
	entries := agentEntries([]api.AgentInfo{{
		Name:        "Developer",
		Description: strings.Repeat("writes code ", 20),
		Tools:       []string{"a", "b", "c", "d"},
	}})
	out := renderAgentList(entries, 1, 1, "Developer", "", false, 30, 20)
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "+1 more")
	assert.Contains(t, out, "1 agent available")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(stripANSI(line))), 30)
	}
}

func TestWelcomeScreen(t *testing.T) {
	a, _, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})
	view := a.View()
	assert.Contains(t, view, "Welcome to AgentTeam")
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "1 agent available")
}

func TestSelectAndSend(t *testing.T) {
	a, srv, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice", Description: "Helpful"})

	a = press(a, runes("j"), keyEnter)
	require.Equal(t, "Alice", a.Model().SelectedAgent)
	assert.Equal(t, focusInput, a.focus)
	assert.Contains(t, a.View(), "Start a conversation")

	a = press(a, runes("hi"), keyEnter)

	m := a.Model()
	assert.Equal(t, "thread-1", m.CurrentThreadID)
	require.Len(t, m.Messages, 2)
	assert.Equal(t, "hi", m.Messages[0].Content)
	assert.Equal(t, "ack: hi", m.Messages[1].Content)
	assert.False(t, m.IsLoading)
	assert.Equal(t, "", a.textarea.Value(), "input is cleared after sending")
	assert.Equal(t, 1, srv.Hits("POST /api/messages"))

	view := a.View()
	assert.Contains(t, view, "You")
	assert.Contains(t, view, "2 messages")
}

func TestEnterIgnoredWhileLoading(t *testing.T) {
	a, srv, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})
	a = press(a, runes("j"), keyEnter, runes("first"))

	// Apply the send locally but leave its command unrun.
	next, _ := a.Update(keyEnter)
	a = next.(AppView)
	require.True(t, a.Model().IsLoading)

	a = press(a, runes("second"), keyEnter)
	assert.Len(t, a.Model().Messages, 1)
	assert.Equal(t, 0, srv.Hits("POST /api/messages"))
}

func TestSendWithoutSelectionShowsError(t *testing.T) {
	a, srv, _ := newTestView(t)
	a = press(a, keyTab, runes("hello"), keyEnter)

	assert.ErrorIs(t, a.Model().LastError, appmodel.ErrNoAgentSelected)
	assert.Contains(t, a.statusBar(), "no agent selected")
	assert.Equal(t, 0, srv.Hits("POST /api/messages"))
}

func TestFuzzyFilterSelects(t *testing.T) {
	a, _, _ := newTestView(t,
		api.AgentInfo{ID: "1", Name: "Manager"},
		api.AgentInfo{ID: "2", Name: "Developer"},
		api.AgentInfo{ID: "3", Name: "Critic"},
	)

	a = press(a, runes("/"))
	require.True(t, a.filterMode)
	a = press(a, runes("d"), runes("e"), runes("v"))
	assert.Equal(t, "Developer", a.entries()[0].Name)

	a = press(a, keyEnter)
	assert.False(t, a.filterMode)
	assert.Equal(t, "Developer", a.Model().SelectedAgent)
}

func TestEscReturnsHome(t *testing.T) {
	a, _, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})
	a = press(a, keyEnter)
	require.Equal(t, api.TeamName, a.Model().SelectedAgent)

	a = press(a, keyEsc, keyEsc)
	assert.Equal(t, focusList, a.focus)
	assert.Equal(t, "", a.Model().SelectedAgent)
	assert.Contains(t, a.View(), "Welcome to AgentTeam")
}

func TestCopyLastReply(t *testing.T) {
	var copied string
	orig := clipboardWrite
	clipboardWrite = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { clipboardWrite = orig })

	a, _, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})
	a = press(a, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "Nothing to copy yet", a.notice)

	a = press(a, runes("j"), keyEnter, runes("ping"), keyEnter, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, "ack: ping", copied)
	assert.Contains(t, a.notice, "Alice")

	clipboardWrite = func(string) error { return errors.New("no clipboard") }
	a = press(a, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Contains(t, a.notice, "no clipboard")
}

func TestHelpToggle(t *testing.T) {
	a, _, _ := newTestView(t)
	a = press(a, runes("?"))
	assert.True(t, a.showHelp)
	assert.Contains(t, a.View(), "Keyboard Shortcuts")
	a = press(a, keyEsc)
	assert.False(t, a.showHelp)
}

func TestAboutBox(t *testing.T) {
	a, _, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})
	a = a.WithVersion("1.2.3")

	a = press(a, runes("i"))
	require.True(t, a.showAbout)
	view := stripANSI(a.View())
	assert.Contains(t, view, "1.2.3")
	assert.Contains(t, view, config.DefaultBaseURL)
	assert.Contains(t, view, "1 agent available")
	assert.Contains(t, view, beacon.SessionID())

	a = press(a, keyEsc)
	assert.False(t, a.showAbout)
}

func TestCustomKeybindings(t *testing.T) {
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.SetAgents(api.AgentInfo{ID: "1", Name: "Alice"})
	client, err := api.NewClient(srv.URL, nil)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Keybindings.Actions = map[string]string{"list_down": "n", "help": "h"}
	a := NewAppView(appmodel.NewModel(cfg, client), nil)
	a = drive(a, a.Init())
	a = update(a, tea.WindowSizeMsg{Width: 120, Height: 40})

	a = press(a, runes("j"))
	assert.Equal(t, 0, a.cursor, "default key no longer moves")
	a = press(a, runes("n"))
	assert.Equal(t, 1, a.cursor)

	a = press(a, runes("h"))
	assert.True(t, a.showHelp)
	assert.Contains(t, a.View(), "Press H or Esc")
}

func TestExitBeacon(t *testing.T) {
	a, srv, b := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"})

	a = update(a, tea.BlurMsg{})
	a = update(a, tea.BlurMsg{})
	b.Wait(time.Second)
	exits := srv.Exits()
	require.Len(t, exits, 1, "one beacon per loss of focus")
	assert.Equal(t, beacon.ReasonBlur, exits[0].Reason)
	assert.Equal(t, "agentteam://home", exits[0].Page)
	assert.Equal(t, beacon.SessionID(), exits[0].SessionID)

	a = update(a, tea.FocusMsg{})
	a = press(a, runes("j"), keyEnter)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlQ})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	exits = srv.Exits()
	require.Len(t, exits, 2, "quit waits for the beacon")
	assert.Equal(t, beacon.ReasonQuit, exits[1].Reason)
	assert.Equal(t, "agentteam://agent/Alice", exits[1].Page)
	assert.Equal(t, exits[0].SessionID, exits[1].SessionID)
}

func TestStaleResultDoesNotRedrawOldSelection(t *testing.T) {
	a, srv, _ := newTestView(t, api.AgentInfo{ID: "1", Name: "Alice"}, api.AgentInfo{ID: "2", Name: "Bob"})
	srv.AddMessage(api.Message{ID: "for-alice", Sender: "user", Recipient: "Alice", Metadata: map[string]any{"thread_id": "ta"}})
	srv.AddMessage(api.Message{ID: "for-bob", Sender: "user", Recipient: "Bob", Metadata: map[string]any{"thread_id": "tb"}})

	// Select Alice without running her fetch, then Bob.
	a = update(a, runes("j"))
	next, aliceCmd := a.Update(keyEnter)
	a = next.(AppView)
	a = press(a, keyEsc, runes("j"), keyEnter)
	require.Equal(t, "Bob", a.Model().SelectedAgent)

	a = drive(a, aliceCmd)
	require.Len(t, a.Model().Messages, 1)
	assert.Equal(t, "for-bob", a.Model().Messages[0].ID)
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
