package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: infrastructure
// endpoints (health checks) and the session endpoints themselves, which must
// be reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health":              true,
	"/health/db":           true,
	"/auth/login":          true,
	"/auth/refresh":        true,
	"/auth/verify-token":   true,
	"/auth/logout":         true,
	"/auth/password-reset": true,
}

// publicPrefixes covers path families that are public as a whole, such as
// static assets served next to the API.
var publicPrefixes = []string{
	"/static/",
	"/assets/",
}

// AuthSkipper returns true for requests whose path should skip
// authentication. Pass it as the Skipper on BearerMiddleware so health
// checks and the login flow stay reachable without credentials.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether the given path bypasses auth middleware.
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
