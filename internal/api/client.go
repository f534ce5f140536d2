// Package api implements the HTTP client for the remote authentication
// endpoints. The wire shapes are fixed for compatibility with deployed
// backends and must not drift.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobseekr/sessionkit/internal/logging"
	"github.com/jobseekr/sessionkit/internal/securestore"
)

// Client talks to the auth backend. All calls are bounded by the underlying
// http.Client timeout so a hung endpoint cannot block callers indefinitely.
type Client struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// tokenEnvelope is the canonical success payload. Some deployments nest the
// same fields under "data"; flatten() accepts both, top level winning.
type tokenEnvelope struct {
	AccessToken  string                    `json:"accessToken"`
	RefreshToken string                    `json:"refreshToken"`
	ExpiresIn    int64                     `json:"expiresIn"`
	User         *securestore.UserSnapshot `json:"user"`

	Data *tokenEnvelope `json:"data"`
}

func (e *tokenEnvelope) flatten() *tokenEnvelope {
	if e.AccessToken == "" && e.Data != nil {
		return e.Data
	}
	return e
}

// RefreshResult is the outcome of a successful token refresh. RefreshToken
// is empty when the server did not rotate it.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	RefreshResult
	User *securestore.UserSnapshot
}

// Login exchanges credentials for a token pair and profile snapshot.
// 401 and 403 map to ErrInvalidCredentials; other non-2xx to ErrServer.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.post(ctx, "/auth/login", body, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidCredentials
	case !is2xx(resp.StatusCode):
		return nil, fmt.Errorf("%w: login returned status %d", ErrServer, resp.StatusCode)
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}
	if env.RefreshToken == "" {
		return nil, fmt.Errorf("%w: login response missing refreshToken", ErrMalformedResponse)
	}

	return &LoginResult{
		RefreshResult: RefreshResult{
			AccessToken:  env.AccessToken,
			RefreshToken: env.RefreshToken,
			ExpiresIn:    env.ExpiresIn,
		},
		User: env.User,
	}, nil
}

// Refresh exchanges the refresh token for a new access token. Any non-2xx
// response is a refresh failure (ErrServer).
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	body := map[string]string{"refreshToken": refreshToken}

	resp, err := c.post(ctx, "/auth/refresh", body, "")
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if !is2xx(resp.StatusCode) {
		return nil, fmt.Errorf("%w: refresh returned status %d", ErrServer, resp.StatusCode)
	}

	env, err := decodeEnvelope(resp.Body)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		AccessToken:  env.AccessToken,
		RefreshToken: env.RefreshToken,
		ExpiresIn:    env.ExpiresIn,
	}, nil
}

// Logout asks the server to invalidate the refresh token. The bearer header
// is attached only when an access token is still held. The response body is
// not interpreted; callers treat any outcome as best-effort.
func (c *Client) Logout(ctx context.Context, refreshToken, accessToken string) error {
	body := map[string]string{"refreshToken": refreshToken}

	resp, err := c.post(ctx, "/auth/logout", body, accessToken)
	if err != nil {
		return err
	}
	defer drain(resp)

	if !is2xx(resp.StatusCode) {
		return fmt.Errorf("%w: logout returned status %d", ErrServer, resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

// decodeEnvelope parses a 2xx body. A success response without an access
// token is treated as a failure.
func decodeEnvelope(r io.Reader) (*tokenEnvelope, error) {
	var env tokenEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	flat := env.flatten()
	if flat.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing accessToken", ErrMalformedResponse)
	}
	return flat, nil
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
