package session

import (
	"sync"
	"time"
)

// DefaultRedirectWindow is the minimum spacing between forced login
// redirects from one browsing context.
const DefaultRedirectWindow = 5 * time.Second

// RedirectThrottler suppresses repeated login redirects. Even if the backend
// persistently rejects the session, the worst case is one redirect per
// window rather than a redirect loop.
type RedirectThrottler struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewRedirectThrottler creates a throttler. window <= 0 means
// DefaultRedirectWindow.
func NewRedirectThrottler(window time.Duration) *RedirectThrottler {
	if window <= 0 {
		window = DefaultRedirectWindow
	}
	return &RedirectThrottler{window: window, now: time.Now}
}

// ShouldRedirect returns false if a redirect happened within the window;
// otherwise it records now as the latest redirect and returns true.
func (t *RedirectThrottler) ShouldRedirect() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.window {
		return false
	}
	t.last = now
	return true
}

// Reset forgets the last redirect, re-arming the throttler. Called after a
// successful login so the next failure can redirect immediately.
func (t *RedirectThrottler) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = time.Time{}
}
