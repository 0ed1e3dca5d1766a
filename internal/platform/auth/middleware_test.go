package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedEcho(t *testing.T) (*echo.Echo, *SessionService) {
	t.Helper()
	svc, _ := newTestService(t)

	e := echo.New()
	e.Use(BearerMiddleware(BearerConfig{Service: svc, Skipper: AuthSkipper}))
	e.GET("/patients", func(c echo.Context) error {
		ctx := c.Request().Context()
		return c.JSON(http.StatusOK, map[string]any{
			"userId": UserIDFromContext(ctx),
			"roles":  RolesFromContext(ctx),
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return e, svc
}

func TestBearerMiddlewareValidToken(t *testing.T) {
	e, svc := newProtectedEcho(t)

	bundle, err := svc.Login(context.Background(), "user-1", []string{"admin"}, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+bundle.AccessToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userId":"user-1"`)
	assert.Contains(t, rec.Body.String(), `"admin"`)
}

func TestBearerMiddlewareMissingHeader(t *testing.T) {
	e, _ := newProtectedEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerMiddlewareMalformedHeader(t *testing.T) {
	e, _ := newProtectedEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerMiddlewareRevokedToken(t *testing.T) {
	e, svc := newProtectedEcho(t)

	bundle, err := svc.Login(context.Background(), "user-1", nil, "")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), bundle.RefreshToken, bundle.AccessToken))

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Authorization", "Bearer "+bundle.AccessToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerMiddlewareCookieFallback(t *testing.T) {
	e, svc := newProtectedEcho(t)

	bundle, err := svc.Login(context.Background(), "user-1", nil, "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: bundle.AccessToken})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerMiddlewareSkipsPublicPath(t *testing.T) {
	e, _ := newProtectedEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRevocationStoreCleanup(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()

	store.Revoke("jti-live", time.Now().Add(time.Hour))
	store.Revoke("jti-dead", time.Now().Add(-time.Hour))
	assert.Equal(t, 2, store.Count())

	store.cleanup()
	assert.Equal(t, 1, store.Count())
	assert.True(t, store.IsRevoked("jti-live"))
	assert.False(t, store.IsRevoked("jti-dead"))
}
