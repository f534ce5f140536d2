// Package session owns the client-side session lifecycle: login, logout,
// startup bootstrap, and the single-flight refresh coordination that keeps
// concurrent API callers from stampeding the auth backend.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jobseekr/sessionkit/internal/events"
	"github.com/jobseekr/sessionkit/internal/logging"
	"github.com/jobseekr/sessionkit/internal/securestore"
	"github.com/jobseekr/sessionkit/internal/token"
)

const defaultLogoutTimeout = 3 * time.Second

// Deps are the collaborators a Manager composes.
type Deps struct {
	API         AuthAPI
	Cache       *token.Cache
	Creds       *securestore.CredentialStore
	Coordinator *Coordinator
	Bus         *events.Bus
	Legacy      *LegacyStore
	Log         logging.Logger

	// LogoutTimeout bounds the best-effort remote invalidation call.
	LogoutTimeout time.Duration
}

// Manager is the public-facing session orchestrator.
//
// Contract:
//   - Login installs the token pair and user snapshot as one logical unit.
//   - Logout is unconditionally effective locally, whatever the network does.
//   - Bootstrap scrubs legacy storage, then revives a persisted session.
//   - A sessionExpired event (from a failed background refresh anywhere in
//     the process) forces a local logout, so call sites never need to check.
type Manager struct {
	api    AuthAPI
	cache  *token.Cache
	creds  *securestore.CredentialStore
	coord  *Coordinator
	bus    *events.Bus
	legacy *LegacyStore
	log    logging.Logger

	logoutTimeout time.Duration

	mu   sync.Mutex
	user *securestore.UserSnapshot
}

func NewManager(d Deps) *Manager {
	log := d.Log
	if log == nil {
		log = logging.NewNop()
	}
	timeout := d.LogoutTimeout
	if timeout <= 0 {
		timeout = defaultLogoutTimeout
	}

	m := &Manager{
		api:           d.API,
		cache:         d.Cache,
		creds:         d.Creds,
		coord:         d.Coordinator,
		bus:           d.Bus,
		legacy:        d.Legacy,
		log:           log,
		logoutTimeout: timeout,
	}

	m.bus.Subscribe(events.SessionExpired, func(events.Event) {
		m.log.Info(context.Background(), "session expired, clearing local credentials")
		m.clearLocal(context.Background())
	})

	return m
}

// Login authenticates against the backend and installs the session. The
// access token becomes visible only after the durable writes succeed; a
// failed write rolls the partial install back and surfaces ErrStorage.
func (m *Manager) Login(ctx context.Context, email, password string) (*securestore.UserSnapshot, error) {
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := m.creds.SetRefreshToken(ctx, res.RefreshToken); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if res.User != nil {
		if err := m.creds.SetUserSnapshot(ctx, res.User); err != nil {
			m.creds.ClearAll(ctx)
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	m.cache.Set(res.AccessToken, res.ExpiresIn)
	m.setUser(res.User)

	m.log.Info(ctx, "logged in", "email", email)
	return res.User, nil
}

// Logout invalidates the session remotely (best effort, bounded timeout) and
// always clears local state before returning. It never fails user-visibly.
func (m *Manager) Logout(ctx context.Context) {
	// local clearing must run even when the caller's context is already gone
	defer m.clearLocal(context.WithoutCancel(ctx))

	refreshToken, ok := m.creds.GetRefreshToken(ctx)
	if !ok {
		return
	}
	accessToken, _ := m.cache.Get()

	callCtx, cancel := context.WithTimeout(ctx, m.logoutTimeout)
	defer cancel()

	if err := m.api.Logout(callCtx, refreshToken, accessToken); err != nil {
		m.log.Warn(ctx, "remote logout failed, clearing locally anyway", "error", err)
	}
}

// Bootstrap runs once at process start. It scrubs any credentials left in
// legacy storage, then, if a refresh token is persisted, materializes an
// access token and hydrates the cached user snapshot. Reports whether a
// valid session was established.
func (m *Manager) Bootstrap(ctx context.Context) bool {
	if m.legacy != nil {
		m.legacy.Purge(ctx)
	}

	if _, ok := m.creds.GetRefreshToken(ctx); !ok {
		return false
	}

	if _, err := m.coord.Refresh(ctx); err != nil {
		// a failed startup refresh downgrades to logged-out silently;
		// the sessionExpired reaction has already cleared local state
		m.log.Warn(ctx, "startup refresh failed", "error", err)
		return false
	}

	user, _ := m.creds.GetUserSnapshot(ctx)
	m.setUser(user)
	return true
}

// Refresh forces a token refresh through the coordinator.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	return m.coord.Refresh(ctx)
}

// CurrentUser returns the hydrated profile snapshot, or nil when signed out.
func (m *Manager) CurrentUser() *securestore.UserSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *Manager) setUser(u *securestore.UserSnapshot) {
	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
}

func (m *Manager) clearLocal(ctx context.Context) {
	m.cache.Clear()
	m.creds.ClearAll(ctx)
	m.setUser(nil)
}
