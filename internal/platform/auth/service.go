package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sentinel errors the session service returns. Handlers map these to the
// wire-level error strings clients classify on.
var (
	ErrRefreshExpired     = errors.New("refresh token expired")
	ErrDeviceMismatch     = errors.New("device mismatch")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DefaultRefreshTokenTTL is the refresh token lifetime when none is
// configured. Each rotation re-arms the full TTL (sliding expiry).
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

// AuthEvent is handed to the audit sink for every notable auth outcome.
type AuthEvent struct {
	Type      string // login, refresh, logout, verify
	UserID    string
	Path      string
	UserAgent string
	IP        string
	Success   bool
	Detail    string
}

// AuditRecorder receives auth events. Implementations must not block the
// request path on failure; errors are logged, not propagated.
type AuditRecorder interface {
	RecordAuthEvent(ctx context.Context, e AuthEvent)
}

// TokenBundle is what login and refresh hand back.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionService issues token pairs, rotates refresh sessions, and enforces
// device binding. At most one refresh session exists per refresh token;
// rotation atomically retires the old token.
type SessionService struct {
	issuer     *TokenIssuer
	store      RefreshStore
	revoked    *TokenRevocationStore
	audit      AuditRecorder
	refreshTTL time.Duration
	log        zerolog.Logger
	now        func() time.Time
}

func NewSessionService(issuer *TokenIssuer, store RefreshStore, revoked *TokenRevocationStore, log zerolog.Logger) *SessionService {
	return &SessionService{
		issuer:     issuer,
		store:      store,
		revoked:    revoked,
		refreshTTL: DefaultRefreshTokenTTL,
		log:        log,
		now:        time.Now,
	}
}

// SetRefreshTTL overrides the refresh token lifetime. Values <= 0 are ignored.
func (s *SessionService) SetRefreshTTL(d time.Duration) {
	if d > 0 {
		s.refreshTTL = d
	}
}

// SetAuditRecorder attaches an optional audit sink.
func (s *SessionService) SetAuditRecorder(a AuditRecorder) {
	s.audit = a
}

func (s *SessionService) recordAudit(ctx context.Context, e AuthEvent) {
	if s.audit != nil {
		s.audit.RecordAuthEvent(ctx, e)
	}
}

// Login creates a refresh session and issues the first token pair. The
// device ID, when provided, binds the session: later refreshes must present
// the same ID.
func (s *SessionService) Login(ctx context.Context, userID string, roles []string, deviceID string) (*TokenBundle, error) {
	bundle, err := s.issueBundle(ctx, userID, roles, deviceID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Bool("device_bound", deviceID != "").Msg("session created")
	return bundle, nil
}

// Refresh validates and rotates a refresh session, returning a new token
// pair. The presented token is retired whether or not rotation succeeds;
// a token that fails validation is deleted so it cannot be probed again.
func (s *SessionService) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenBundle, error) {
	hash := HashRefreshToken(refreshToken)

	sess, err := s.store.Get(ctx, hash)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrRefreshExpired
	}
	if err != nil {
		return nil, err
	}

	if s.now().After(sess.ExpiresAt) {
		_ = s.store.Delete(ctx, hash)
		return nil, ErrRefreshExpired
	}

	// Device binding is opt-in at login: a bound session rejects refreshes
	// from any other (or no) device identifier.
	if sess.DeviceID != "" && deviceID != sess.DeviceID {
		_ = s.store.Delete(ctx, hash)
		s.log.Warn().Str("user_id", sess.UserID).Msg("refresh rejected: device mismatch")
		return nil, ErrDeviceMismatch
	}

	if err := s.store.Delete(ctx, hash); err != nil {
		return nil, err
	}

	bundle, err := s.issueBundle(ctx, sess.UserID, sess.Roles, sess.DeviceID)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", sess.UserID).Msg("refresh session rotated")
	return bundle, nil
}

func (s *SessionService) issueBundle(ctx context.Context, userID string, roles []string, deviceID string) (*TokenBundle, error) {
	access, _, expiresAt, err := s.issuer.Issue(userID, roles, deviceID)
	if err != nil {
		return nil, err
	}

	refresh, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &RefreshSession{
		UserID:    userID,
		Roles:     roles,
		DeviceID:  deviceID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.Save(ctx, HashRefreshToken(refresh), sess, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("persist refresh session: %w", err)
	}

	return &TokenBundle{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
	}, nil
}

// Verify parses an access token and checks it against the revocation list.
func (s *SessionService) Verify(tokenStr string) (*Claims, error) {
	claims, err := s.issuer.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if s.revoked != nil && claims.ID != "" && s.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout retires the refresh session and revokes the presented access token
// for the remainder of its lifetime.
func (s *SessionService) Logout(ctx context.Context, refreshToken, accessToken string) error {
	if refreshToken != "" {
		if err := s.store.Delete(ctx, HashRefreshToken(refreshToken)); err != nil {
			return err
		}
	}
	if accessToken != "" && s.revoked != nil {
		if claims, err := s.issuer.Parse(accessToken); err == nil && claims.ID != "" && claims.ExpiresAt != nil {
			s.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
		}
	}
	return nil
}
