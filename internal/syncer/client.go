// Package syncer keeps a console session store consistent with the platform
// API. The client wraps the thin HTTP surface the console consumes; the
// synchronizer reconciles /auth/me responses into the store.
package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meridian-fin/meridian/internal/session"
)

// ErrUnauthenticated is the exclusive signal that the bearer credential is
// missing, expired or revoked. Callers redirect to the login boundary and do
// not retry.
var ErrUnauthenticated = errors.New("syncer: unauthenticated")

// TokenPair carries the bearer and refresh credentials issued by the platform.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is the platform's response to login, register and OTP verify.
type AuthResult struct {
	TokenPair
	User session.User `json:"user"`
}

// Client is the HTTP client for the platform API's auth surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the platform API at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Login exchanges phone/password credentials for a token pair and the seeded
// user record.
func (c *Client) Login(ctx context.Context, phone, password string) (AuthResult, error) {
	var out AuthResult
	err := c.post(ctx, "/auth/login", "", map[string]string{"phone": phone, "password": password}, &out)
	return out, err
}

// Refresh rotates the refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	var out AuthResult
	err := c.post(ctx, "/auth/refresh", "", map[string]string{"refreshToken": refreshToken}, &out)
	return out, err
}

// Me fetches the canonical current-user record, including the
// server-flattened permission union.
func (c *Client) Me(ctx context.Context, accessToken string) (session.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return session.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	res, err := c.http.Do(req)
	if err != nil {
		return session.User{}, fmt.Errorf("syncer: fetch current user: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		return session.User{}, ErrUnauthenticated
	}
	if res.StatusCode != http.StatusOK {
		return session.User{}, fmt.Errorf("syncer: fetch current user: status %d", res.StatusCode)
	}
	var user session.User
	if err := json.NewDecoder(res.Body).Decode(&user); err != nil {
		return session.User{}, fmt.Errorf("syncer: decode current user: %w", err)
	}
	return user, nil
}

// Logout revokes the refresh token server side.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return c.post(ctx, "/auth/logout", accessToken, map[string]string{"refreshToken": refreshToken}, nil)
}

func (c *Client) post(ctx context.Context, path, accessToken string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("syncer: %s: %w", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		var problem struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(res.Body).Decode(&problem)
		if problem.Detail != "" {
			return fmt.Errorf("syncer: %s: %s", path, problem.Detail)
		}
		return fmt.Errorf("syncer: %s: status %d", path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
