package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no refresh session exists for a token
// hash. An expired or rotated-away token looks identical to one that never
// existed.
var ErrSessionNotFound = errors.New("refresh session not found")

// RefreshSession is the server-side record behind one refresh token.
type RefreshSession struct {
	UserID    string    `json:"user_id"`
	Roles     []string  `json:"roles,omitempty"`
	DeviceID  string    `json:"device_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RefreshStore persists refresh sessions keyed by token hash.
type RefreshStore interface {
	Save(ctx context.Context, tokenHash string, s *RefreshSession, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (*RefreshSession, error)
	Delete(ctx context.Context, tokenHash string) error
}

const refreshKeyPrefix = "refresh:"

// RedisRefreshStore keeps refresh sessions in Redis with a TTL matching the
// refresh token lifetime, so expired sessions disappear on their own and
// instances share one session space.
type RedisRefreshStore struct {
	client *redis.Client
}

func NewRedisRefreshStore(client *redis.Client) *RedisRefreshStore {
	return &RedisRefreshStore{client: client}
}

func (s *RedisRefreshStore) Save(ctx context.Context, tokenHash string, sess *RefreshSession, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode refresh session: %w", err)
	}
	if err := s.client.Set(ctx, refreshKeyPrefix+tokenHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *RedisRefreshStore) Get(ctx context.Context, tokenHash string) (*RefreshSession, error) {
	data, err := s.client.Get(ctx, refreshKeyPrefix+tokenHash).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load refresh session: %w", err)
	}
	var sess RefreshSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode refresh session: %w", err)
	}
	return &sess, nil
}

func (s *RedisRefreshStore) Delete(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, refreshKeyPrefix+tokenHash).Err(); err != nil {
		return fmt.Errorf("delete refresh session: %w", err)
	}
	return nil
}

// MemoryRefreshStore is the in-process fallback used when no Redis URL is
// configured, and in tests. Entries past their TTL are treated as missing
// and dropped lazily.
type MemoryRefreshStore struct {
	mu       sync.Mutex
	sessions map[string]memoryRefreshEntry
	now      func() time.Time
}

type memoryRefreshEntry struct {
	sess      RefreshSession
	expiresAt time.Time
}

func NewMemoryRefreshStore() *MemoryRefreshStore {
	return &MemoryRefreshStore{
		sessions: make(map[string]memoryRefreshEntry),
		now:      time.Now,
	}
}

func (s *MemoryRefreshStore) Save(_ context.Context, tokenHash string, sess *RefreshSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[tokenHash] = memoryRefreshEntry{sess: *sess, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) Get(_ context.Context, tokenHash string) (*RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[tokenHash]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, tokenHash)
		return nil, ErrSessionNotFound
	}
	sess := entry.sess
	return &sess, nil
}

func (s *MemoryRefreshStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

// Len reports the number of live sessions; test helper.
func (s *MemoryRefreshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
