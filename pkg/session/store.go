// Package session implements the client side of the token lifecycle:
// a token store, validity checking, coordinated refresh, navigation-driven
// revalidation, and redirect throttling. A Manager owns all session state
// for one browsing context; nothing in this package relies on globals.
package session

import (
	"sync"
	"time"
)

// TokenPair holds the credentials for an active session. The pair is
// created at login, replaced by the refresh coordinator, and destroyed on
// logout or terminal refresh failure.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Store persists session state between navigations. Implementations must be
// safe for concurrent use; the Manager may be driven from multiple
// goroutines in tests even though the original runtime is single-threaded.
type Store interface {
	// TokenPair returns the stored pair, or nil when no session exists.
	TokenPair() (*TokenPair, error)
	SaveTokenPair(p *TokenPair) error
	// ClearTokenPair removes access token, refresh token, and expiry.
	ClearTokenPair() error

	DeviceID() (string, error)
	SetDeviceID(id string) error

	// LastPath is the last authenticated path, used to return the user to
	// where they were after a forced re-login.
	LastPath() (string, error)
	SetLastPath(path string) error

	LastActivity() (time.Time, error)
	SetLastActivity(t time.Time) error
}

// MemoryStore keeps session state in process memory. It models per-tab
// storage: state disappears when the owning process exits.
type MemoryStore struct {
	mu           sync.RWMutex
	pair         *TokenPair
	deviceID     string
	lastPath     string
	lastActivity time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) TokenPair() (*TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pair == nil {
		return nil, nil
	}
	cp := *s.pair
	return &cp, nil
}

func (s *MemoryStore) SaveTokenPair(p *TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pair = &cp
	return nil
}

func (s *MemoryStore) ClearTokenPair() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = nil
	return nil
}

func (s *MemoryStore) DeviceID() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceID, nil
}

func (s *MemoryStore) SetDeviceID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = id
	return nil
}

func (s *MemoryStore) LastPath() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPath, nil
}

func (s *MemoryStore) SetLastPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPath = path
	return nil
}

func (s *MemoryStore) LastActivity() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity, nil
}

func (s *MemoryStore) SetLastActivity(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = t
	return nil
}
