// Package securestore persists the long-lived session credentials: the
// refresh token and a minimal user snapshot. Values are held by an injected
// Storage capability, namespaced per credential type so clearing one never
// touches the other.
package securestore

import (
	"context"
	"errors"
)

// ErrNotFound reports that no value is stored under the given service/key.
var ErrNotFound = errors.New("credential not found")

// Storage is the secure-storage capability consumed by the credential store.
// Implementations back it with the OS keychain, an encrypted local database,
// or plain memory (tests).
//
// Contract:
//   - Get returns ErrNotFound when the value is absent.
//   - Remove is a no-op when the value is absent.
//   - service acts as a namespace; keys in different services never collide.
type Storage interface {
	Get(ctx context.Context, service, key string) (string, error)
	Set(ctx context.Context, service, key, value string) error
	Remove(ctx context.Context, service, key string) error
}
