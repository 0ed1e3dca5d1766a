package session

import "time"

// Validity classifies a stored token pair against the wall clock.
type Validity int

const (
	// ValidityAbsent means no token pair is stored.
	ValidityAbsent Validity = iota
	// ValidityValid means the access token is good and not near expiry.
	ValidityValid
	// ValidityExpiringSoon means the access token expires within the buffer.
	ValidityExpiringSoon
	// ValidityExpired means the access token expiry has passed.
	ValidityExpired
)

func (v Validity) String() string {
	switch v {
	case ValidityAbsent:
		return "absent"
	case ValidityValid:
		return "valid"
	case ValidityExpiringSoon:
		return "expiring-soon"
	case ValidityExpired:
		return "expired"
	}
	return "unknown"
}

// NeedsRefresh reports whether the validity state should trigger a refresh.
func (v Validity) NeedsRefresh() bool {
	return v == ValidityExpiringSoon || v == ValidityExpired
}

// DefaultExpiryBuffer is how far ahead of expiry a token counts as
// expiring-soon.
const DefaultExpiryBuffer = 2 * time.Minute

// Checker computes token validity. It has no side effects; the result is a
// pure function of the pair and the clock.
type Checker struct {
	// Buffer ahead of expiry treated as expiring-soon. Zero means
	// DefaultExpiryBuffer.
	Buffer time.Duration
	// Now overrides the clock for tests. Nil means time.Now.
	Now func() time.Time
}

func (c Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Checker) buffer() time.Duration {
	if c.Buffer > 0 {
		return c.Buffer
	}
	return DefaultExpiryBuffer
}

// Check classifies the pair. A nil pair or one without an access token is
// absent. expiring-soon holds exactly when now >= expiresAt - buffer.
func (c Checker) Check(p *TokenPair) Validity {
	if p == nil || p.AccessToken == "" {
		return ValidityAbsent
	}
	now := c.now()
	if !now.Before(p.ExpiresAt) {
		return ValidityExpired
	}
	if !now.Before(p.ExpiresAt.Add(-c.buffer())) {
		return ValidityExpiringSoon
	}
	return ValidityValid
}
