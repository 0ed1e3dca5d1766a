package session

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, st Store, gw Gateway, opts Options) *Manager {
	t.Helper()
	return NewManager(st, gw, zerolog.Nop(), opts)
}

func TestPublicPathShortCircuits(t *testing.T) {
	st := NewMemoryStore()
	gw := &fakeGateway{err: ErrRefreshTokenExpired}
	m := newTestManager(t, st, gw, Options{})

	for _, path := range []string{"/login", "/register", "/password-reset", "/static/app.css", "/assets/logo.png"} {
		out := m.HandleNavigation(context.Background(), EventInitialLoad, path)
		assert.Equal(t, ActionNone, out.Action, path)
		assert.NoError(t, out.Err, path)
	}
	assert.Equal(t, 0, gw.callCount())

	// Public paths must not even record navigation state.
	last, _ := st.LastPath()
	assert.Empty(t, last)
}

func TestValidTokenNoAction(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Hour))
	gw := &fakeGateway{}
	m := newTestManager(t, st, gw, Options{})

	out := m.HandleNavigation(context.Background(), EventFocusRegained, "/patients/42")
	assert.Equal(t, ActionNone, out.Action)
	assert.Equal(t, 0, gw.callCount())
	assert.Equal(t, StateAuthenticated, m.State())

	last, _ := st.LastPath()
	assert.Equal(t, "/patients/42", last)
	activity, _ := st.LastActivity()
	assert.False(t, activity.IsZero())
}

// Token expires in 60s, buffer 120s: one refresh, new expiry, no redirect.
func TestExpiringSoonRefreshScenario(t *testing.T) {
	now := time.Now()
	st := seededStore(t, now.Add(60*time.Second))
	gw := &fakeGateway{pair: &TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    now.Add(900 * time.Second),
	}}
	m := newTestManager(t, st, gw, Options{ExpiryBuffer: 120 * time.Second})

	out := m.HandleNavigation(context.Background(), EventCacheRestore, "/schedule")
	assert.Equal(t, ActionRefreshed, out.Action)
	assert.NoError(t, out.Err)
	assert.Equal(t, 1, gw.callCount())
	assert.Equal(t, StateAuthenticated, m.State())

	stored, err := st.TokenPair()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.WithinDuration(t, now.Add(900*time.Second), stored.ExpiresAt, time.Second)
}

func TestExpiredRefreshTokenRedirects(t *testing.T) {
	st := seededStore(t, time.Now().Add(-time.Minute))
	gw := &fakeGateway{err: ErrRefreshTokenExpired}
	m := newTestManager(t, st, gw, Options{})

	out := m.HandleNavigation(context.Background(), EventHistoryNav, "/patients/42/chart")
	assert.Equal(t, ActionRedirect, out.Action)
	assert.ErrorIs(t, out.Err, ErrRefreshTokenExpired)
	assert.Equal(t, StateLoggedOut, m.State())

	// Store cleared before the redirect is issued.
	stored, _ := st.TokenPair()
	assert.Nil(t, stored)

	u, err := url.Parse(out.RedirectURL)
	require.NoError(t, err)
	assert.Equal(t, "/login", u.Path)
	q := u.Query()
	assert.Equal(t, "/patients/42/chart", q.Get("redirect"))
	assert.Equal(t, "true", q.Get("token_expired"))
	assert.NotEmpty(t, q.Get("ts"))
}

func TestRedirectFloodThrottled(t *testing.T) {
	st := seededStore(t, time.Now().Add(-time.Minute))
	gw := &fakeGateway{err: ErrRefreshTokenExpired}
	m := newTestManager(t, st, gw, Options{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	redirects := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := m.HandleNavigation(context.Background(), EventFocusRegained, "/inbox")
			if out.Action == ActionRedirect {
				mu.Lock()
				redirects++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, redirects, "100 simultaneous triggers must yield exactly one redirect")
}

func TestTransientFailureKeepsSession(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Minute))
	gw := &fakeGateway{err: assertableTransientErr{}}
	m := newTestManager(t, st, gw, Options{})

	out := m.HandleNavigation(context.Background(), EventInitialLoad, "/dashboard")
	assert.Equal(t, ActionNone, out.Action)
	assert.Error(t, out.Err)
	assert.Equal(t, StateAuthenticated, m.State())

	stored, _ := st.TokenPair()
	assert.NotNil(t, stored)
}

type assertableTransientErr struct{}

func (assertableTransientErr) Error() string { return "dial tcp: connection refused" }

func TestAbsentTokenRedirectsOnProtectedPath(t *testing.T) {
	st := NewMemoryStore()
	gw := &fakeGateway{}
	m := newTestManager(t, st, gw, Options{})

	out := m.HandleNavigation(context.Background(), EventInitialLoad, "/dashboard")
	assert.Equal(t, ActionRedirect, out.Action)
	assert.ErrorIs(t, out.Err, ErrNoToken)
	assert.Equal(t, 0, gw.callCount())
}

func TestLoginReentersAuthenticated(t *testing.T) {
	st := NewMemoryStore()
	m := newTestManager(t, st, &fakeGateway{}, Options{})
	assert.Equal(t, StateLoggedOut, m.State())

	err := m.Login(&TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "a", m.AccessToken())

	require.NoError(t, m.Logout())
	assert.Equal(t, StateLoggedOut, m.State())
	assert.Empty(t, m.AccessToken())
}

func TestLoginRejectsIncompletePair(t *testing.T) {
	m := newTestManager(t, NewMemoryStore(), &fakeGateway{}, Options{})
	assert.ErrorIs(t, m.Login(&TokenPair{AccessToken: "a"}), ErrMalformedToken)
	assert.ErrorIs(t, m.Login(nil), ErrMalformedToken)
}

func TestManagerResumesPersistedSession(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Hour))
	m := newTestManager(t, st, &fakeGateway{}, Options{})
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestClassifyRefreshFailure(t *testing.T) {
	assert.ErrorIs(t, ClassifyRefreshFailure("Refresh token has expired"), ErrRefreshTokenExpired)
	assert.ErrorIs(t, ClassifyRefreshFailure("Device mismatch detected"), ErrDeviceMismatch)
	assert.ErrorIs(t, ClassifyRefreshFailure("malformed token"), ErrMalformedToken)

	other := ClassifyRefreshFailure("internal server error")
	assert.False(t, IsTerminal(other))
	assert.True(t, strings.Contains(other.Error(), "internal server error"))
}
