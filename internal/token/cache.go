// Package token implements the in-memory access token cache. The token is
// never persisted; it lives for the process lifetime at most, bounded by the
// expiry reported by the server.
package token

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobseekr/sessionkit/internal/events"
)

// ExpirySkew is subtracted from the reported lifetime so the token is
// treated as expired slightly before the server starts rejecting it.
const ExpirySkew = 30 * time.Second

// Cache holds the current access token and its expiry instant.
//
// Contract:
//   - Set stores the token and emits tokenRefreshed when non-empty.
//   - Get is the sole read path: an expired token is cleared on read and
//     reported as absent. There is no separate expiry query to race with.
//   - Clear unconditionally drops the token and emits tokenCleared.
type Cache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time // zero means no computed expiry

	bus *events.Bus
	now func() time.Time
}

func NewCache(bus *events.Bus) *Cache {
	return &Cache{bus: bus, now: time.Now}
}

// Set stores token. expiresIn is the server-reported lifetime in seconds;
// when zero, the expiry falls back to the token's own exp claim if it parses
// as a JWT, and otherwise the token is retained until explicitly cleared.
func (c *Cache) Set(token string, expiresIn int64) {
	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Time{}
	if token != "" {
		if expiresIn > 0 {
			c.expiresAt = c.now().Add(time.Duration(expiresIn)*time.Second - ExpirySkew)
		} else if exp, ok := jwtExpiry(token); ok {
			c.expiresAt = exp.Add(-ExpirySkew)
		}
	}
	c.mu.Unlock()

	if token != "" {
		c.bus.Emit(events.Event{Type: events.TokenRefreshed, Token: token})
	}
}

// Get returns the current token if it has not expired. An expired token is
// cleared and reported as absent.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" {
		return "", false
	}
	if !c.expiresAt.IsZero() && !c.now().Before(c.expiresAt) {
		c.token = ""
		c.expiresAt = time.Time{}
		return "", false
	}
	return c.token, true
}

// Clear drops the token and emits tokenCleared.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()

	c.bus.Emit(events.Event{Type: events.TokenCleared})
}

// jwtExpiry extracts the exp claim without verifying the signature. The
// client is not a party to signature verification; it only needs a hint of
// when the server will stop accepting the token.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
