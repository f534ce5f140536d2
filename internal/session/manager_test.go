package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobseekr/sessionkit/internal/api"
	"github.com/jobseekr/sessionkit/internal/events"
	"github.com/jobseekr/sessionkit/internal/logging"
	"github.com/jobseekr/sessionkit/internal/securestore"
	"github.com/jobseekr/sessionkit/internal/token"
)

// ---- fake auth API ----

type fakeAuthAPI struct {
	LoginRet *api.LoginResult
	LoginErr error

	RefreshRet *api.RefreshResult
	RefreshErr error

	LogoutErr error

	RefreshCalls int
	LogoutCalls  int

	LastLoginEmail    string
	LastLoginPassword string
	LastLogoutRefresh string
	LastLogoutAccess  string
}

func (f *fakeAuthAPI) Login(ctx context.Context, email, password string) (*api.LoginResult, error) {
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeAuthAPI) Refresh(ctx context.Context, refreshToken string) (*api.RefreshResult, error) {
	f.RefreshCalls++
	return f.RefreshRet, f.RefreshErr
}

func (f *fakeAuthAPI) Logout(ctx context.Context, refreshToken, accessToken string) error {
	f.LogoutCalls++
	f.LastLogoutRefresh = refreshToken
	f.LastLogoutAccess = accessToken
	return f.LogoutErr
}

// failing set wrapper over the memory storage, to exercise the login
// rollback path

type setFailStorage struct {
	securestore.Storage
	failService string
}

func (s *setFailStorage) Set(ctx context.Context, service, key, value string) error {
	if service == s.failService {
		return errors.New("keychain write denied")
	}
	return s.Storage.Set(ctx, service, key, value)
}

// ---- fixture ----

type managerFixture struct {
	mgr   *Manager
	api   *fakeAuthAPI
	cache *token.Cache
	creds *securestore.CredentialStore
	bus   *events.Bus
}

func newManagerFixture(t *testing.T, storage securestore.Storage, legacy *LegacyStore) *managerFixture {
	t.Helper()
	log := logging.NewNop()
	bus := events.NewBus(log)
	cache := token.NewCache(bus)
	if storage == nil {
		storage = securestore.NewMemory()
	}
	creds := securestore.NewCredentialStore(storage, log)
	fake := &fakeAuthAPI{}
	coord := NewCoordinator(fake, cache, creds, bus, log)

	mgr := NewManager(Deps{
		API:         fake,
		Cache:       cache,
		Creds:       creds,
		Coordinator: coord,
		Bus:         bus,
		Legacy:      legacy,
		Log:         log,
	})
	return &managerFixture{mgr: mgr, api: fake, cache: cache, creds: creds, bus: bus}
}

func loginOK() *api.LoginResult {
	return &api.LoginResult{
		RefreshResult: api.RefreshResult{AccessToken: "a1", RefreshToken: "rt-1", ExpiresIn: 3600},
		User:          &securestore.UserSnapshot{ID: "u1", Email: "user@example.com", Name: "User"},
	}
}

// ---- tests ----

func TestLogin_InstallsSession(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)
	f.api.LoginRet = loginOK()

	user, err := f.mgr.Login(ctx, "user@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "user@example.com", f.api.LastLoginEmail)

	cached, ok := f.cache.Get()
	require.True(t, ok)
	require.Equal(t, "a1", cached)

	rt, ok := f.creds.GetRefreshToken(ctx)
	require.True(t, ok)
	require.Equal(t, "rt-1", rt)

	snap, ok := f.creds.GetUserSnapshot(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", snap.ID)

	require.NotNil(t, f.mgr.CurrentUser())
}

func TestLogin_InvalidCredentialsPassThrough(t *testing.T) {
	f := newManagerFixture(t, nil, nil)
	f.api.LoginErr = api.ErrInvalidCredentials

	_, err := f.mgr.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, api.ErrInvalidCredentials)

	_, ok := f.cache.Get()
	require.False(t, ok)
}

func TestLogin_SnapshotWriteFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	storage := &setFailStorage{
		Storage:     securestore.NewMemory(),
		failService: "com.jobseekr.sessionkit.user-snapshot",
	}
	f := newManagerFixture(t, storage, nil)
	f.api.LoginRet = loginOK()

	_, err := f.mgr.Login(ctx, "user@example.com", "hunter2")
	require.ErrorIs(t, err, ErrStorage)

	// no half-installed session: the refresh token write was rolled back
	// and the access token was never made visible
	_, ok := f.creds.GetRefreshToken(ctx)
	require.False(t, ok)
	_, ok = f.cache.Get()
	require.False(t, ok)
}

func TestLogout_RemoteFailureStillClearsLocally(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)
	f.api.LoginRet = loginOK()
	_, err := f.mgr.Login(ctx, "user@example.com", "hunter2")
	require.NoError(t, err)

	f.api.LogoutErr = api.ErrNetwork
	f.mgr.Logout(ctx)

	require.Equal(t, 1, f.api.LogoutCalls)
	_, ok := f.creds.GetRefreshToken(ctx)
	require.False(t, ok)
	_, ok = f.cache.Get()
	require.False(t, ok)
	require.Nil(t, f.mgr.CurrentUser())
}

func TestLogout_SendsCurrentCredentials(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)
	f.api.LoginRet = loginOK()
	_, err := f.mgr.Login(ctx, "user@example.com", "hunter2")
	require.NoError(t, err)

	f.mgr.Logout(ctx)

	require.Equal(t, "rt-1", f.api.LastLogoutRefresh)
	require.Equal(t, "a1", f.api.LastLogoutAccess)
}

func TestLogout_WithoutSessionSkipsRemoteCall(t *testing.T) {
	f := newManagerFixture(t, nil, nil)

	f.mgr.Logout(context.Background())
	require.Zero(t, f.api.LogoutCalls)
}

func TestBootstrap_NoPersistedToken(t *testing.T) {
	f := newManagerFixture(t, nil, nil)

	require.False(t, f.mgr.Bootstrap(context.Background()))
	require.Zero(t, f.api.RefreshCalls, "no refresh attempt without a persisted token")
}

func TestBootstrap_RevivesSession(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)

	require.NoError(t, f.creds.SetRefreshToken(ctx, "rt-1"))
	require.NoError(t, f.creds.SetUserSnapshot(ctx, &securestore.UserSnapshot{ID: "u1", Name: "User"}))
	f.api.RefreshRet = &api.RefreshResult{AccessToken: "a1", ExpiresIn: 3600}

	require.True(t, f.mgr.Bootstrap(ctx))

	cached, ok := f.cache.Get()
	require.True(t, ok)
	require.Equal(t, "a1", cached)

	user := f.mgr.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "u1", user.ID)
}

func TestBootstrap_RefreshFailureDowngradesSilently(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)

	require.NoError(t, f.creds.SetRefreshToken(ctx, "rt-1"))
	f.api.RefreshErr = api.ErrNetwork

	require.False(t, f.mgr.Bootstrap(ctx))

	// the sessionExpired reaction forced a local logout
	_, ok := f.creds.GetRefreshToken(ctx)
	require.False(t, ok)
	require.Nil(t, f.mgr.CurrentUser())
}

func TestSessionExpired_ForcesLocalLogout(t *testing.T) {
	ctx := context.Background()
	f := newManagerFixture(t, nil, nil)
	f.api.LoginRet = loginOK()
	_, err := f.mgr.Login(ctx, "user@example.com", "hunter2")
	require.NoError(t, err)

	// a failed background refresh deep inside the HTTP layer emits this
	f.bus.Emit(events.Event{Type: events.SessionExpired})

	_, ok := f.cache.Get()
	require.False(t, ok)
	_, ok = f.creds.GetRefreshToken(ctx)
	require.False(t, ok)
	require.Nil(t, f.mgr.CurrentUser())
}
