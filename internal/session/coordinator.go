package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jobseekr/sessionkit/internal/api"
	"github.com/jobseekr/sessionkit/internal/events"
	"github.com/jobseekr/sessionkit/internal/logging"
	"github.com/jobseekr/sessionkit/internal/securestore"
	"github.com/jobseekr/sessionkit/internal/token"
)

// AuthAPI is the remote authentication surface the session layer depends on.
// *api.Client satisfies it; tests substitute fakes.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*api.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*api.RefreshResult, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
}

const refreshKey = "refresh"

// Coordinator serializes token refreshes. However many callers discover a
// missing or expired access token concurrently, at most one request hits the
// refresh endpoint and every caller observes that request's outcome. Without
// the dedup, a server that rotates refresh tokens on each use would accept
// the first request and spuriously reject the rest.
type Coordinator struct {
	group singleflight.Group

	api   AuthAPI
	cache *token.Cache
	creds *securestore.CredentialStore
	bus   *events.Bus
	log   logging.Logger
}

func NewCoordinator(authAPI AuthAPI, cache *token.Cache, creds *securestore.CredentialStore, bus *events.Bus, log logging.Logger) *Coordinator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Coordinator{api: authAPI, cache: cache, creds: creds, bus: bus, log: log}
}

// Refresh materializes a new access token from the persisted refresh token
// and returns it. Concurrent calls while one is in flight attach to that
// flight and receive its result.
//
// Outcomes:
//   - ErrNoSession when no refresh token is persisted; no request is sent.
//   - On any other failure the access token cache is cleared, sessionExpired
//     is emitted exactly once per flight, and the persisted refresh token is
//     left untouched (the server never acknowledged a rotation).
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	v, err, _ := c.group.Do(refreshKey, func() (any, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Coordinator) doRefresh(ctx context.Context) (string, error) {
	refreshToken, ok := c.creds.GetRefreshToken(ctx)
	if !ok {
		return "", ErrNoSession
	}

	res, err := c.api.Refresh(ctx, refreshToken)
	if err != nil {
		c.expire(ctx, err)
		return "", err
	}

	// Rotation and access-token install are one logical unit: the rotated
	// refresh token must be durable before the access token becomes visible.
	// A crash after the rotation write merely re-derives an access token from
	// the already-rotated refresh token on the next attempt.
	if res.RefreshToken != "" && res.RefreshToken != refreshToken {
		if err := c.creds.SetRefreshToken(ctx, res.RefreshToken); err != nil {
			err = fmt.Errorf("failed to persist rotated refresh token: %w", err)
			c.expire(ctx, err)
			return "", err
		}
	}

	c.cache.Set(res.AccessToken, res.ExpiresIn)
	return res.AccessToken, nil
}

func (c *Coordinator) expire(ctx context.Context, cause error) {
	c.log.Warn(ctx, "token refresh failed", "error", cause)
	c.cache.Clear()
	c.bus.Emit(events.Event{Type: events.SessionExpired})
}
