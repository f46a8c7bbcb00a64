// Package beacon notifies the backend when the client goes away: the
// terminal loses focus or the program quits. At most one beacon is sent per
// loss until the client is focused again.
package beacon

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"agentteam/api"
	"agentteam/config"
)

const (
	ReasonBlur = "blur"
	ReasonQuit = "quit"

	DefaultTimeout = 3 * time.Second
)

var (
	sessionOnce sync.Once
	sessionID   string
)

// SessionID identifies this client process. Created on first use, never
// cleared.
func SessionID() string {
	sessionOnce.Do(func() {
		sessionID = uuid.NewString()
	})
	return sessionID
}

// PageFor names the view being left, in place of a browser URL.
func PageFor(selection string) string {
	if selection == "" {
		return "agentteam://home"
	}
	return "agentteam://agent/" + url.PathEscape(selection)
}

type Sender interface {
	ClientExit(ctx context.Context, event api.ClientExitEvent) error
}

type Beacon struct {
	sender  Sender
	timeout time.Duration
	now     func() time.Time

	mu   sync.Mutex
	sent bool
	wg   sync.WaitGroup
}

func New(sender Sender, timeout time.Duration) *Beacon {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Beacon{
		sender:  sender,
		timeout: timeout,
		now:     time.Now,
	}
}

// Fire sends the exit event in the background unless one was already sent
// since the last Rearm. It never blocks. Reports whether a send started.
func (b *Beacon) Fire(page, reason string) bool {
	if b == nil || b.sender == nil {
		return false
	}

	b.mu.Lock()
	if b.sent {
		b.mu.Unlock()
		return false
	}
	b.sent = true
	b.mu.Unlock()

	event := api.ClientExitEvent{
		SessionID: SessionID(),
		Page:      page,
		Reason:    reason,
		Timestamp: api.FormatTimestamp(b.now()),
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.sender.ClientExit(ctx, event); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Beacon] %s beacon failed: %v", reason, err)
			}
			return
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Beacon] Sent %s beacon for %s", reason, page)
		}
	}()
	return true
}

// Rearm allows the next Fire to send again.
func (b *Beacon) Rearm() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.sent = false
	b.mu.Unlock()
}

// Wait blocks until in-flight sends finish or max elapses, whichever is
// first. Used on quit so the last beacon can leave before the process exits.
func (b *Beacon) Wait(max time.Duration) {
	if b == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(max):
	}
}
