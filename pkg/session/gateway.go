package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Gateway is the backend endpoint pair that validates refresh tokens and
// issues new ones. The session logic treats it as an opaque service.
type Gateway interface {
	// Refresh exchanges a refresh token for a new token pair. Failures are
	// returned classified per the taxonomy in errors.go.
	Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error)
	// Verify checks whether an access token is currently accepted.
	Verify(ctx context.Context, accessToken string) (bool, error)
}

// HTTPGateway talks to the session gateway over HTTP.
type HTTPGateway struct {
	// BaseURL is the gateway root, e.g. "https://api.example.com/auth".
	BaseURL string
	// Client defaults to a client with a 10s timeout.
	Client *http.Client
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGateway) client() *http.Client {
	if g.Client != nil {
		return g.Client
	}
	return http.DefaultClient
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
	DeviceID     string `json:"deviceId,omitempty"`
}

type refreshResponse struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (g *HTTPGateway) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	body, err := json.Marshal(refreshRequest{RefreshToken: refreshToken, DeviceID: deviceID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			return nil, ClassifyRefreshFailure(er.Error)
		}
		return nil, fmt.Errorf("refresh failed with status %d", resp.StatusCode)
	}

	var rr refreshResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if rr.Tokens.AccessToken == "" || rr.Tokens.RefreshToken == "" {
		return nil, ErrMalformedToken
	}

	expiresAt, err := accessTokenExpiry(rr.Tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  rr.Tokens.AccessToken,
		RefreshToken: rr.Tokens.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (g *HTTPGateway) Verify(ctx context.Context, accessToken string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/verify-token", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.client().Do(req)
	if err != nil {
		return false, fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("verify failed with status %d", resp.StatusCode)
	}
}

// accessTokenExpiry reads the exp claim without verifying the signature.
// The client cannot verify (it has no key material); it only needs the
// expiry for scheduling, and the server re-checks everything anyway.
func accessTokenExpiry(tokenStr string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return time.Time{}, ErrMalformedToken
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMalformedToken
	}
	return claims.ExpiresAt.Time, nil
}
