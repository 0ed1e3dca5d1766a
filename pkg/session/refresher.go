package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds a single refresh call so the in-flight guard
// can never stick if the gateway hangs.
const DefaultRefreshTimeout = 10 * time.Second

// Coordinator performs at most one concurrent token refresh and propagates
// the single outcome to every waiting caller.
type Coordinator struct {
	store    Store
	gateway  Gateway
	timeout  time.Duration
	log      zerolog.Logger
	group    singleflight.Group
	inFlight atomic.Bool
}

func NewCoordinator(store Store, gateway Gateway, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		gateway: gateway,
		timeout: DefaultRefreshTimeout,
		log:     log,
	}
}

// SetTimeout overrides the per-refresh deadline. Values <= 0 are ignored.
func (c *Coordinator) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// InFlight reports whether a refresh call is currently outstanding.
func (c *Coordinator) InFlight() bool {
	return c.inFlight.Load()
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers join the in-flight attempt and all receive its outcome; exactly
// one gateway call is made per coordination cycle.
//
// On success the store holds the new pair. On a terminal failure (expired
// refresh token, device mismatch, malformed or missing token) the store is
// cleared and the sentinel error is returned. Transient failures leave the
// store untouched.
func (c *Coordinator) Refresh(ctx context.Context) (*TokenPair, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		c.inFlight.Store(true)
		defer c.inFlight.Store(false)
		return c.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TokenPair), nil
}

func (c *Coordinator) doRefresh(ctx context.Context) (*TokenPair, error) {
	pair, err := c.store.TokenPair()
	if err != nil {
		return nil, err
	}
	if pair == nil || pair.RefreshToken == "" {
		c.terminate(ErrNoToken)
		return nil, ErrNoToken
	}

	deviceID, err := c.store.DeviceID()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fresh, err := c.gateway.Refresh(callCtx, pair.RefreshToken, deviceID)
	if err != nil {
		if IsTerminal(err) {
			c.terminate(err)
			return nil, err
		}
		c.log.Warn().Err(err).Msg("token refresh failed, keeping current session")
		return nil, err
	}

	if err := c.store.SaveTokenPair(fresh); err != nil {
		return nil, err
	}
	c.log.Debug().Time("expires_at", fresh.ExpiresAt).Msg("token refreshed")
	return fresh, nil
}

// terminate clears all token state. The caller decides whether to redirect.
func (c *Coordinator) terminate(cause error) {
	if err := c.store.ClearTokenPair(); err != nil {
		c.log.Error().Err(err).Msg("failed to clear token store")
		return
	}
	c.log.Info().Err(cause).Msg("session terminated")
}
