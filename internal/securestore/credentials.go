package securestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jobseekr/sessionkit/internal/logging"
)

// Distinct service namespaces so clearing one credential type never affects
// the other.
const (
	serviceRefreshToken = "com.jobseekr.sessionkit.refresh-token"
	serviceUserSnapshot = "com.jobseekr.sessionkit.user-snapshot"

	keyCurrent = "current"
)

// UserSnapshot is the minimal profile cached alongside the refresh token for
// instant availability on cold start. It is always re-derivable from the
// backend: a cache, not a source of truth.
type UserSnapshot struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CredentialStore persists the refresh token and user snapshot through a
// Storage capability.
//
// Failure policy: write failures propagate to the caller; read failures
// degrade to "absent" (logged) so a corrupted or inaccessible store behaves
// like a logged-out session instead of crashing the client.
type CredentialStore struct {
	storage Storage
	log     logging.Logger
}

func NewCredentialStore(storage Storage, log logging.Logger) *CredentialStore {
	if log == nil {
		log = logging.NewNop()
	}
	return &CredentialStore{storage: storage, log: log}
}

func (s *CredentialStore) SetRefreshToken(ctx context.Context, value string) error {
	if err := s.storage.Set(ctx, serviceRefreshToken, keyCurrent, value); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken returns the persisted refresh token, or ok=false when it is
// absent or unreadable.
func (s *CredentialStore) GetRefreshToken(ctx context.Context) (string, bool) {
	return s.read(ctx, serviceRefreshToken)
}

func (s *CredentialStore) ClearRefreshToken(ctx context.Context) error {
	return s.storage.Remove(ctx, serviceRefreshToken, keyCurrent)
}

func (s *CredentialStore) SetUserSnapshot(ctx context.Context, u *UserSnapshot) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user snapshot: %w", err)
	}
	if err := s.storage.Set(ctx, serviceUserSnapshot, keyCurrent, string(data)); err != nil {
		return fmt.Errorf("failed to save user snapshot: %w", err)
	}
	return nil
}

// GetUserSnapshot returns the cached profile, or ok=false when it is absent
// or unreadable.
func (s *CredentialStore) GetUserSnapshot(ctx context.Context) (*UserSnapshot, bool) {
	raw, ok := s.read(ctx, serviceUserSnapshot)
	if !ok {
		return nil, false
	}
	var u UserSnapshot
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn(ctx, "discarding undecodable user snapshot", "error", err)
		return nil, false
	}
	return &u, true
}

func (s *CredentialStore) ClearUserSnapshot(ctx context.Context) error {
	return s.storage.Remove(ctx, serviceUserSnapshot, keyCurrent)
}

// ClearAll best-effort clears both namespaces. Individual failures are
// logged, not escalated: logout must never fail to a user-visible error.
func (s *CredentialStore) ClearAll(ctx context.Context) {
	if err := s.ClearRefreshToken(ctx); err != nil {
		s.log.Warn(ctx, "failed to clear refresh token", "error", err)
	}
	if err := s.ClearUserSnapshot(ctx); err != nil {
		s.log.Warn(ctx, "failed to clear user snapshot", "error", err)
	}
}

func (s *CredentialStore) read(ctx context.Context, service string) (string, bool) {
	v, err := s.storage.Get(ctx, service, keyCurrent)
	if errors.Is(err, ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.log.Warn(ctx, "secure storage read failed, treating as absent", "service", service, "error", err)
		return "", false
	}
	return v, true
}
