package session

import (
	"errors"
	"strings"
)

// Sentinel errors for the refresh failure taxonomy. ErrRefreshTokenExpired,
// ErrDeviceMismatch, ErrMalformedToken, and ErrNoToken are terminal for the
// session; transient errors are anything else.
var (
	ErrNoToken             = errors.New("no token present")
	ErrMalformedToken      = errors.New("malformed token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrDeviceMismatch      = errors.New("device mismatch")
)

// IsTerminal reports whether err ends the session: the token store must be
// cleared and the user sent back through login. Network and other transient
// errors are not terminal; the caller may retry later.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrRefreshTokenExpired) ||
		errors.Is(err, ErrDeviceMismatch) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrNoToken)
}

// ClassifyRefreshFailure maps a gateway error body to the failure taxonomy.
// The gateway signals failures as a JSON body with an "error" string; the
// string content decides the class. This replaces the original's habit of
// sniffing log output for "expired".
func ClassifyRefreshFailure(errText string) error {
	lower := strings.ToLower(errText)
	switch {
	case strings.Contains(lower, "expired"):
		return ErrRefreshTokenExpired
	case strings.Contains(lower, "device"):
		return ErrDeviceMismatch
	case strings.Contains(lower, "malformed"), strings.Contains(lower, "invalid token"):
		return ErrMalformedToken
	default:
		return errors.New(errText)
	}
}
