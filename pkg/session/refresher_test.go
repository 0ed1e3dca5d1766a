package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	pair  *TokenPair
	err   error
}

func (g *fakeGateway) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	cp := *g.pair
	return &cp, nil
}

func (g *fakeGateway) Verify(ctx context.Context, accessToken string) (bool, error) {
	return true, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func seededStore(t *testing.T, expiresAt time.Time) *MemoryStore {
	t.Helper()
	st := NewMemoryStore()
	require.NoError(t, st.SaveTokenPair(&TokenPair{
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		ExpiresAt:    expiresAt,
	}))
	return st
}

func TestRefreshSuccessUpdatesStore(t *testing.T) {
	oldExpiry := time.Now().Add(time.Minute)
	st := seededStore(t, oldExpiry)
	gw := &fakeGateway{pair: &TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	fresh, err := coord.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-access", fresh.AccessToken)

	stored, err := st.TokenPair()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	assert.True(t, stored.ExpiresAt.After(oldExpiry), "new expiry must be strictly later")
}

// Any number of concurrent triggers results in exactly one gateway call.
func TestRefreshSingleFlight(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Minute))
	gw := &fakeGateway{
		delay: 50 * time.Millisecond,
		pair: &TokenPair{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresAt:    time.Now().Add(15 * time.Minute),
		},
	}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make([]error, 25)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = coord.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, gw.callCount())
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.False(t, coord.InFlight())
}

func TestRefreshExpiredClearsStore(t *testing.T) {
	st := seededStore(t, time.Now().Add(-time.Minute))
	gw := &fakeGateway{err: ErrRefreshTokenExpired}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	_, err := coord.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)

	stored, serr := st.TokenPair()
	require.NoError(t, serr)
	assert.Nil(t, stored, "store must be fully cleared on expired refresh token")
}

func TestRefreshDeviceMismatchClearsStore(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Minute))
	gw := &fakeGateway{err: ErrDeviceMismatch}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	_, err := coord.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDeviceMismatch)

	stored, _ := st.TokenPair()
	assert.Nil(t, stored)
}

func TestRefreshTransientKeepsTokens(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Minute))
	gw := &fakeGateway{err: errors.New("connection refused")}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	_, err := coord.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, IsTerminal(err))

	stored, serr := st.TokenPair()
	require.NoError(t, serr)
	require.NotNil(t, stored, "transient failure must not destroy the session")
	assert.Equal(t, "old-refresh", stored.RefreshToken)
}

func TestRefreshNoTokenShortCircuits(t *testing.T) {
	st := NewMemoryStore()
	gw := &fakeGateway{}
	coord := NewCoordinator(st, gw, zerolog.Nop())

	_, err := coord.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, 0, gw.callCount(), "no gateway call without a refresh token")
}

// A hanging gateway must not wedge the in-flight guard: the timeout fires,
// the error is transient, and a later refresh can run.
func TestRefreshTimeoutReleasesGuard(t *testing.T) {
	st := seededStore(t, time.Now().Add(time.Minute))
	gw := &fakeGateway{
		delay: time.Hour,
		pair:  &TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)},
	}
	coord := NewCoordinator(st, gw, zerolog.Nop())
	coord.SetTimeout(20 * time.Millisecond)

	_, err := coord.Refresh(context.Background())
	require.Error(t, err)
	assert.False(t, IsTerminal(err))
	assert.False(t, coord.InFlight())

	gw.delay = 0
	_, err = coord.Refresh(context.Background())
	assert.NoError(t, err)
}
