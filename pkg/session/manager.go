package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NavEvent is a navigation or visibility event observed by the host
// environment and dispatched into the Manager. Modeling events as an
// explicit type (instead of ambient listeners) keeps the observer testable
// without a real browser.
type NavEvent int

const (
	// EventInitialLoad fires on first page load.
	EventInitialLoad NavEvent = iota
	// EventHistoryNav fires on back/forward navigation.
	EventHistoryNav
	// EventCacheRestore fires when the page is restored from the
	// back/forward cache instead of reloading.
	EventCacheRestore
	// EventFocusRegained fires when the tab regains focus.
	EventFocusRegained
)

func (e NavEvent) String() string {
	switch e {
	case EventInitialLoad:
		return "initial-load"
	case EventHistoryNav:
		return "history-nav"
	case EventCacheRestore:
		return "cache-restore"
	case EventFocusRegained:
		return "focus-regained"
	}
	return "unknown"
}

// State is the session-level state machine:
// Authenticated → Refreshing → {Authenticated | LoggedOut}.
// LoggedOut is terminal until a fresh login stores a new pair.
type State int

const (
	StateLoggedOut State = iota
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	}
	return "unknown"
}

// Action describes what a navigation event caused.
type Action int

const (
	// ActionNone: public path, valid token, or throttled/transient outcome.
	ActionNone Action = iota
	// ActionRefreshed: the token pair was renewed.
	ActionRefreshed
	// ActionRedirect: the session is over; navigate to RedirectURL.
	ActionRedirect
)

// Outcome is the result of handling one navigation event. Errors never
// escape the manager as panics or unhandled failures; they surface here.
type Outcome struct {
	Action      Action
	RedirectURL string
	Err         error
}

// Options configures a Manager.
type Options struct {
	// LoginPath is the forced-navigation target, default "/login".
	LoginPath string
	// PublicPrefixes are path prefixes that short-circuit all session
	// logic. Defaults cover login, registration, password reset, and
	// static assets.
	PublicPrefixes []string
	// ExpiryBuffer for the validity checker. Zero means DefaultExpiryBuffer.
	ExpiryBuffer time.Duration
	// RedirectWindow for the throttler. Zero means DefaultRedirectWindow.
	RedirectWindow time.Duration
	// Now overrides the clock for tests.
	Now func() time.Time
}

var defaultPublicPrefixes = []string{
	"/login",
	"/register",
	"/password-reset",
	"/static/",
	"/assets/",
}

// Manager owns all session state for one browsing context: the token store,
// validity checker, refresh coordinator, and redirect throttler. It is the
// single entry point the host environment drives.
type Manager struct {
	store    Store
	checker  Checker
	coord    *Coordinator
	throttle *RedirectThrottler
	log      zerolog.Logger

	loginPath      string
	publicPrefixes []string
	now            func() time.Time

	mu    sync.Mutex
	state State
}

func NewManager(store Store, gateway Gateway, log zerolog.Logger, opts Options) *Manager {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.PublicPrefixes == nil {
		opts.PublicPrefixes = defaultPublicPrefixes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		store:          store,
		checker:        Checker{Buffer: opts.ExpiryBuffer, Now: opts.Now},
		coord:          NewCoordinator(store, gateway, log),
		throttle:       NewRedirectThrottler(opts.RedirectWindow),
		log:            log,
		loginPath:      opts.LoginPath,
		publicPrefixes: opts.PublicPrefixes,
		now:            opts.Now,
	}

	// Resume a persisted session if the store still holds tokens.
	if pair, err := store.TokenPair(); err == nil && pair != nil {
		m.state = StateAuthenticated
	}
	return m
}

// Coordinator exposes the refresh coordinator, mainly for tuning its
// timeout.
func (m *Manager) Coordinator() *Coordinator {
	return m.coord
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// IsPublicPath reports whether path bypasses all session logic.
func (m *Manager) IsPublicPath(path string) bool {
	for _, p := range m.publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Login stores a fresh token pair, entering Authenticated from any state.
func (m *Manager) Login(pair *TokenPair) error {
	if pair == nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		return ErrMalformedToken
	}
	if err := m.store.SaveTokenPair(pair); err != nil {
		return err
	}
	m.throttle.Reset()
	m.setState(StateAuthenticated)
	m.log.Info().Time("expires_at", pair.ExpiresAt).Msg("session established")
	return nil
}

// Logout clears the token store and enters LoggedOut.
func (m *Manager) Logout() error {
	err := m.store.ClearTokenPair()
	m.setState(StateLoggedOut)
	return err
}

// AccessToken returns the current access token, or "" when logged out.
func (m *Manager) AccessToken() string {
	pair, err := m.store.TokenPair()
	if err != nil || pair == nil {
		return ""
	}
	return pair.AccessToken
}

// HandleNavigation processes one navigation event for the given path.
// Public paths short-circuit everything. Otherwise the manager records
// activity, checks token validity, and refreshes when the token is
// expiring-soon or expired. A terminal refresh failure yields at most one
// throttled redirect to the login path carrying the return path.
func (m *Manager) HandleNavigation(ctx context.Context, event NavEvent, path string) Outcome {
	if m.IsPublicPath(path) {
		return Outcome{Action: ActionNone}
	}

	if err := m.store.SetLastActivity(m.now()); err != nil {
		m.log.Warn().Err(err).Msg("failed to record activity")
	}
	if err := m.store.SetLastPath(path); err != nil {
		m.log.Warn().Err(err).Msg("failed to record navigation state")
	}

	pair, err := m.store.TokenPair()
	if err != nil {
		return Outcome{Action: ActionNone, Err: err}
	}

	validity := m.checker.Check(pair)
	m.log.Debug().
		Stringer("event", event).
		Str("path", path).
		Stringer("validity", validity).
		Msg("navigation observed")

	if validity == ValidityAbsent {
		return m.terminalOutcome(path, ErrNoToken)
	}
	if !validity.NeedsRefresh() {
		return Outcome{Action: ActionNone}
	}

	m.setState(StateRefreshing)
	if _, err := m.coord.Refresh(ctx); err != nil {
		if IsTerminal(err) {
			return m.terminalOutcome(path, err)
		}
		// Transient: keep the session, the next event retries.
		m.setState(StateAuthenticated)
		return Outcome{Action: ActionNone, Err: err}
	}

	m.setState(StateAuthenticated)
	return Outcome{Action: ActionRefreshed}
}

// terminalOutcome ends the session and, throttle permitting, produces one
// redirect to the login path.
func (m *Manager) terminalOutcome(path string, cause error) Outcome {
	m.setState(StateLoggedOut)
	if !m.throttle.ShouldRedirect() {
		return Outcome{Action: ActionNone, Err: cause}
	}
	return Outcome{
		Action:      ActionRedirect,
		RedirectURL: m.loginURL(path),
		Err:         cause,
	}
}

// loginURL builds the forced-navigation target: the original path to return
// to, a token_expired marker, and a cache-busting timestamp.
func (m *Manager) loginURL(returnPath string) string {
	q := url.Values{}
	q.Set("redirect", returnPath)
	q.Set("token_expired", "true")
	q.Set("ts", fmt.Sprintf("%d", m.now().UnixMilli()))
	return m.loginPath + "?" + q.Encode()
}
