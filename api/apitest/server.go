// Package apitest provides an in-memory AgentTeam backend for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"time"

	"agentteam/api"
)

// ReplyFunc produces the messages the backend stores after the user
// message in response to req. The last one is returned to the client.
type ReplyFunc func(req api.MessageRequest, threadID string) []api.Message

// Server is a fake Remote Message Store. Messages are returned newest
// first and capped at the requested limit, like the real backend.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	agents    []api.AgentInfo
	messages  []api.Message
	project   *api.Project
	clock     time.Time
	nextID    int
	nextTh    int
	failures  map[string]int
	hits      map[string]int
	exits     []api.ClientExitEvent
	reply     ReplyFunc
	sendGate  chan struct{}
	lastQuery map[string]string
}

func NewServer() *Server {
	s := &Server{
		clock:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		failures:  map[string]int{},
		hits:      map[string]int{},
		lastQuery: map[string]string{},
	}
	s.reply = s.echoReply

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/agents", s.handleAgents)
	mux.HandleFunc("GET /api/messages", s.handleListMessages)
	mux.HandleFunc("POST /api/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/projects", s.handleProject)
	mux.HandleFunc("POST /api/client-exit", s.handleClientExit)

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) SetAgents(agents ...api.AgentInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = agents
}

func (s *Server) SetProject(p *api.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
}

func (s *Server) SetReply(fn ReplyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reply = fn
}

// GateSends blocks POST /api/messages until the returned func is called.
func (s *Server) GateSends() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.sendGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// AddMessage stores msg, filling in ID and CreatedAt when empty. Each call
// advances the fake clock by one second.
func (s *Server) AddMessage(msg api.Message) api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(msg)
}

func (s *Server) addLocked(msg api.Message) api.Message {
	s.clock = s.clock.Add(time.Second)
	s.nextID++
	if msg.ID == "" {
		msg.ID = fmt.Sprintf("msg-%d", s.nextID)
	}
	if msg.CreatedAt == "" {
		msg.CreatedAt = api.FormatTimestamp(s.clock)
	}
	s.messages = append(s.messages, msg)
	return msg
}

// FailNext makes the next n requests to "METHOD /path" return 500.
func (s *Server) FailNext(route string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] += n
}

// Hits counts requests served for "METHOD /path", failures included.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func (s *Server) LastQuery(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery[key]
}

func (s *Server) Exits() []api.ClientExitEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.exits)
}

func (s *Server) Messages() []api.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

func (s *Server) echoReply(req api.MessageRequest, threadID string) []api.Message {
	return []api.Message{{
		Content:   "ack: " + req.Content,
		Sender:    req.AgentName,
		Recipient: api.UserName,
		Role:      api.RoleAssistant,
	}}
}

func (s *Server) track(w http.ResponseWriter, r *http.Request) bool {
	route := r.Method + " " + r.URL.Path
	s.mu.Lock()
	s.hits[route]++
	fail := s.failures[route] > 0
	if fail {
		s.failures[route]--
	}
	s.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "injected failure"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, api.HealthStatus{Status: "healthy", Service: "agent-team-api"})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	s.mu.Lock()
	agents := slices.Clone(s.agents)
	s.mu.Unlock()
	if agents == nil {
		agents = []api.AgentInfo{}
	}
	writeJSON(w, http.StatusOK, agents)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	threadID := r.URL.Query().Get("thread_id")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "limit must be an integer"})
			return
		}
		limit = n
	}

	s.mu.Lock()
	s.lastQuery["thread_id"] = threadID
	s.lastQuery["limit"] = r.URL.Query().Get("limit")
	out := []api.Message{}
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		msg := s.messages[i]
		if threadID != "" && msg.ThreadID() != threadID {
			continue
		}
		out = append(out, msg)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	var req api.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	gate := s.sendGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	threadID := req.ThreadID
	if threadID == "" {
		s.nextTh++
		threadID = fmt.Sprintf("thread-%d", s.nextTh)
	}

	s.addLocked(api.Message{
		Content:   req.Content,
		Sender:    api.UserName,
		Recipient: req.AgentName,
		Role:      api.RoleUser,
		Metadata:  map[string]any{"thread_id": threadID},
	})

	replies := s.reply(req, threadID)
	if len(replies) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "no reply"})
		return
	}
	var last api.Message
	for _, msg := range replies {
		if msg.Metadata == nil {
			msg.Metadata = map[string]any{}
		}
		msg.Metadata["thread_id"] = threadID
		last = s.addLocked(msg)
	}
	writeJSON(w, http.StatusOK, last)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	s.mu.Lock()
	project := s.project
	s.mu.Unlock()
	if project == nil {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No project found"})
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleClientExit(w http.ResponseWriter, r *http.Request) {
	if !s.track(w, r) {
		return
	}
	var ev api.ClientExitEvent
	_ = json.NewDecoder(r.Body).Decode(&ev)
	s.mu.Lock()
	s.exits = append(s.exits, ev)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
