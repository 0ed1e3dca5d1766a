package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := OpenBoltStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestBoltStoreEmpty(t *testing.T) {
	st := openTestBoltStore(t)
	pair, err := st.TokenPair()
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestBoltStoreRoundTrip(t *testing.T) {
	st := openTestBoltStore(t)
	expires := time.Now().Add(15 * time.Minute).UTC()
	require.NoError(t, st.SaveTokenPair(&TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expires,
	}))

	pair, err := st.TokenPair()
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, "refresh", pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.Equal(expires))
}

func TestBoltStoreClear(t *testing.T) {
	st := openTestBoltStore(t)
	require.NoError(t, st.SaveTokenPair(&TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now()}))
	require.NoError(t, st.SetDeviceID("device-1"))

	require.NoError(t, st.ClearTokenPair())

	pair, err := st.TokenPair()
	require.NoError(t, err)
	assert.Nil(t, pair, "access token, refresh token, and expiry must all be gone")

	// Device ID survives a token clear; it identifies the installation, not
	// the session.
	id, err := st.DeviceID()
	require.NoError(t, err)
	assert.Equal(t, "device-1", id)
}

func TestBoltStoreNavigationState(t *testing.T) {
	st := openTestBoltStore(t)

	require.NoError(t, st.SetLastPath("/schedule"))
	path, err := st.LastPath()
	require.NoError(t, err)
	assert.Equal(t, "/schedule", path)

	when := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, st.SetLastActivity(when))
	got, err := st.LastActivity()
	require.NoError(t, err)
	assert.True(t, got.Equal(when))
}
