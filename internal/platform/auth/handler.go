package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CredentialChecker authenticates a user by email and password. Implemented
// by the staff domain; returns the user ID and role set on success.
type CredentialChecker interface {
	CheckCredentials(ctx context.Context, email, password string) (userID string, roles []string, err error)
}

// Handler exposes the session endpoints.
type Handler struct {
	service     *SessionService
	credentials CredentialChecker
}

func NewHandler(service *SessionService, credentials CredentialChecker) *Handler {
	return &Handler{service: service, credentials: credentials}
}

// Register mounts the session routes on the given group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.GET("/verify-token", h.VerifyToken)
	g.POST("/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	Status string       `json:"status"`
	Tokens tokenPayload `json:"tokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Login authenticates credentials and opens a new session. Supplying a
// deviceId binds the session to that device for all later refreshes.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "email and password are required"})
	}

	ctx := c.Request().Context()
	userID, roles, err := h.credentials.CheckCredentials(ctx, req.Email, req.Password)
	if err != nil {
		h.service.recordAudit(ctx, AuthEvent{Type: "login", Success: false, IP: c.RealIP(), Detail: req.Email})
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
	}

	bundle, err := h.service.Login(ctx, userID, roles, req.DeviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not create session"})
	}

	h.service.recordAudit(ctx, AuthEvent{Type: "login", UserID: userID, Success: true, IP: c.RealIP()})
	return c.JSON(http.StatusOK, tokenResponse{
		Status: "success",
		Tokens: tokenPayload{AccessToken: bundle.AccessToken, RefreshToken: bundle.RefreshToken},
	})
}

// Refresh rotates a refresh session and returns a fresh token pair. The
// error strings here are load-bearing: clients classify failures by them.
func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "refreshToken is required"})
	}

	ctx := c.Request().Context()
	bundle, err := h.service.Refresh(ctx, req.RefreshToken, req.DeviceID)
	switch {
	case errors.Is(err, ErrRefreshExpired):
		h.service.recordAudit(ctx, AuthEvent{Type: "refresh", Success: false, IP: c.RealIP(), Detail: "expired"})
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "Refresh token has expired"})
	case errors.Is(err, ErrDeviceMismatch):
		h.service.recordAudit(ctx, AuthEvent{Type: "refresh", Success: false, IP: c.RealIP(), Detail: "device mismatch"})
		return c.JSON(http.StatusForbidden, errorResponse{Error: "Device mismatch detected"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not refresh session"})
	}

	h.service.recordAudit(ctx, AuthEvent{Type: "refresh", Success: true, IP: c.RealIP()})
	return c.JSON(http.StatusOK, tokenResponse{
		Status: "success",
		Tokens: tokenPayload{AccessToken: bundle.AccessToken, RefreshToken: bundle.RefreshToken},
	})
}

// VerifyToken checks the presented access token without side effects.
// Clients poll it to decide whether a session is still usable.
func (h *Handler) VerifyToken(c echo.Context) error {
	tokenStr, err := bearerToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"status": "error", "valid": false})
	}

	claims, err := h.service.Verify(tokenStr)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"status": "error", "valid": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"valid":  true,
		"userId": claims.Subject,
	})
}

// Logout retires the refresh session and revokes the current access token.
// Always answers 200; logging out twice is not an error.
func (h *Handler) Logout(c echo.Context) error {
	var req logoutRequest
	_ = c.Bind(&req)

	accessToken := ""
	if tok, err := bearerToken(c); err == nil {
		accessToken = tok
	}

	ctx := c.Request().Context()
	if err := h.service.Logout(ctx, req.RefreshToken, accessToken); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "could not end session"})
	}

	h.service.recordAudit(ctx, AuthEvent{Type: "logout", UserID: UserIDFromContext(ctx), Success: true, IP: c.RealIP()})
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
