package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8000"

// Client talks to the AgentTeam backend. It holds no conversation state.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
}

// StatusError is returned for any non-2xx response. Detail carries
// FastAPI's {"detail": "..."} body when the backend sent one.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func NewClient(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	parsedURL, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid AgentTeam URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid AgentTeam URL %q: scheme and host required", baseURL)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    parsedURL,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func newStatusError(method, path string, resp *http.Response) error {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != nil {
		switch d := payload.Detail.(type) {
		case string:
			se.Detail = d
		default:
			// FastAPI validation errors come back as a list
			if b, err := json.Marshal(d); err == nil {
				se.Detail = string(b)
			}
		}
	} else {
		se.Detail = strings.TrimSpace(string(raw))
	}
	return se
}

func (c *Client) ListAgents(ctx context.Context) ([]AgentInfo, error) {
	var agents []AgentInfo
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, nil, &agents); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	for i := range agents {
		if agents[i].Tools == nil {
			agents[i].Tools = []string{}
		}
	}
	return agents, nil
}

// ListMessages returns up to limit messages, newest first as the backend
// orders them. An empty threadID lists across all threads.
func (c *Client) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	query := url.Values{}
	if threadID != "" {
		query.Set("thread_id", threadID)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var messages []Message
	if err := c.do(ctx, http.MethodGet, "/api/messages", query, nil, &messages); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SendMessage posts a user message and returns the agent's reply.
func (c *Client) SendMessage(ctx context.Context, req MessageRequest) (*Message, error) {
	var msg Message
	if err := c.do(ctx, http.MethodPost, "/api/messages", nil, req, &msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return &msg, nil
}

// GetProject returns the workspace project, or nil when the backend has
// none configured.
func (c *Client) GetProject(ctx context.Context) (*Project, error) {
	var raw map[string]any
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	if _, ok := raw["id"]; !ok {
		return nil, nil
	}

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	var project Project
	if err := json.Unmarshal(buf, &project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &project, nil
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &status); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &status, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.Health(ctx)
	return err
}

// ClientExit posts the exit beacon. The response body is ignored.
func (c *Client) ClientExit(ctx context.Context, event ClientExitEvent) error {
	if err := c.do(ctx, http.MethodPost, "/api/client-exit", nil, event, nil); err != nil {
		return fmt.Errorf("failed to send client exit: %w", err)
	}
	return nil
}
