package session

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var sessionBucket = []byte("session")

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyDeviceID     = "device_id"
	keyLastPath     = "last_path"
	keyLastActivity = "last_activity"
)

// BoltStore persists session state in a local bbolt file, surviving process
// restarts. It models durable storage: the refresh token and device ID live
// here so a returning user is not forced through login while the refresh
// token is still good.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (or creates) the session database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init session bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) get(key string) (string, error) {
	var val string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get([]byte(key)); v != nil {
			val = string(v)
		}
		return nil
	})
	return val, err
}

func (s *BoltStore) put(pairs map[string]string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		for k, v := range pairs {
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) delete(keys ...string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) TokenPair() (*TokenPair, error) {
	var p TokenPair
	var expires string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionBucket)
		if v := b.Get([]byte(keyAccessToken)); v != nil {
			p.AccessToken = string(v)
		}
		if v := b.Get([]byte(keyRefreshToken)); v != nil {
			p.RefreshToken = string(v)
		}
		if v := b.Get([]byte(keyExpiresAt)); v != nil {
			expires = string(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p.AccessToken == "" && p.RefreshToken == "" {
		return nil, nil
	}
	if expires != "" {
		t, err := time.Parse(time.RFC3339Nano, expires)
		if err != nil {
			return nil, fmt.Errorf("parse stored expiry: %w", err)
		}
		p.ExpiresAt = t
	}
	return &p, nil
}

func (s *BoltStore) SaveTokenPair(p *TokenPair) error {
	return s.put(map[string]string{
		keyAccessToken:  p.AccessToken,
		keyRefreshToken: p.RefreshToken,
		keyExpiresAt:    p.ExpiresAt.Format(time.RFC3339Nano),
	})
}

func (s *BoltStore) ClearTokenPair() error {
	return s.delete(keyAccessToken, keyRefreshToken, keyExpiresAt)
}

func (s *BoltStore) DeviceID() (string, error) {
	return s.get(keyDeviceID)
}

func (s *BoltStore) SetDeviceID(id string) error {
	return s.put(map[string]string{keyDeviceID: id})
}

func (s *BoltStore) LastPath() (string, error) {
	return s.get(keyLastPath)
}

func (s *BoltStore) SetLastPath(path string) error {
	return s.put(map[string]string{keyLastPath: path})
}

func (s *BoltStore) LastActivity() (time.Time, error) {
	v, err := s.get(keyLastActivity)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, v)
}

func (s *BoltStore) SetLastActivity(t time.Time) error {
	return s.put(map[string]string{keyLastActivity: t.Format(time.RFC3339Nano)})
}
