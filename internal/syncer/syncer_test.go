package syncer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-fin/meridian/internal/rbac"
	"github.com/meridian-fin/meridian/internal/session"
	"github.com/meridian-fin/meridian/internal/syncer"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return session.NewStore(session.NewRedisVault(client, "console:sess:sync"))
}

type stubFetcher struct {
	calls   atomic.Int64
	delay   time.Duration
	err     error
	user    session.User
	release chan struct{}
}

func (f *stubFetcher) Me(ctx context.Context, accessToken string) (session.User, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return session.User{}, f.err
	}
	return f.user, nil
}

func seededStore(t *testing.T) *session.Store {
	t.Helper()
	store := newStore(t)
	user := session.User{ID: "u-1", Roles: []string{rbac.RoleCustomer}, Permissions: []string{rbac.PermApplicationView}}
	require.NoError(t, store.SetAuth(context.Background(), user, "access", "refresh"))
	return store
}

func TestSyncGatedOnAccessToken(t *testing.T) {
	store := newStore(t)
	fetcher := &stubFetcher{}
	s := syncer.New(store, fetcher)

	err := s.Sync(context.Background())
	require.ErrorIs(t, err, syncer.ErrNoAccessToken)
	assert.Zero(t, fetcher.calls.Load(), "must not hit the network without a token")
}

func TestSyncOverwritesLocalState(t *testing.T) {
	store := seededStore(t)
	fetcher := &stubFetcher{user: session.User{
		ID:          "u-1",
		Roles:       []string{rbac.RoleCustomer, rbac.RoleCollaborator},
		Permissions: []string{rbac.PermApplicationView, rbac.PermCommissionView},
	}}
	s := syncer.New(store, fetcher)

	require.NoError(t, s.Sync(context.Background()))
	assert.True(t, store.HasRole(rbac.RoleCollaborator))
	assert.True(t, store.HasPermission(rbac.PermCommissionView))
	assert.Equal(t, "access", store.AccessToken(), "sync keeps the existing credentials")
}

func TestSyncHonorsStalenessWindow(t *testing.T) {
	store := seededStore(t)
	fetcher := &stubFetcher{user: session.User{ID: "u-1", Roles: []string{rbac.RoleCustomer}}}
	s := syncer.New(store, fetcher)

	require.NoError(t, s.Sync(context.Background()))
	require.NoError(t, s.Sync(context.Background()))
	assert.Equal(t, int64(1), fetcher.calls.Load(), "second sync inside the window is served from cache")

	require.NoError(t, s.SyncNow(context.Background()))
	assert.Equal(t, int64(2), fetcher.calls.Load(), "explicit bypass refetches")
}

func TestSyncSurfacesUnauthenticatedOnce(t *testing.T) {
	store := seededStore(t)
	fetcher := &stubFetcher{err: syncer.ErrUnauthenticated}
	s := syncer.New(store, fetcher).WithWindow(0)

	err := s.Sync(context.Background())
	require.ErrorIs(t, err, syncer.ErrUnauthenticated)
	assert.Equal(t, int64(1), fetcher.calls.Load(), "no silent retry")
	// The caller decides the redirect; the local session is left to the guard.
	assert.True(t, store.IsAuthenticated())
}

func TestStaleFetchAfterLogoutIsSuppressed(t *testing.T) {
	store := seededStore(t)
	fetcher := &stubFetcher{
		user:    session.User{ID: "u-1", Roles: []string{rbac.RoleCustomer}},
		release: make(chan struct{}),
	}
	s := syncer.New(store, fetcher).WithWindow(0)

	done := make(chan error, 1)
	go func() { done <- s.Sync(context.Background()) }()

	// Logout wins the race while the fetch is in flight.
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, store.Logout(context.Background()))
	close(fetcher.release)

	err := <-done
	require.ErrorIs(t, err, session.ErrStaleEpoch)
	assert.False(t, store.IsAuthenticated(), "late fetch must not resurrect the session")
	assert.Empty(t, store.AccessToken())
}

func TestClientMe(t *testing.T) {
	user := session.User{ID: "u-9", Phone: "+84900000009", Roles: []string{rbac.RoleAdmin}, Permissions: []string{rbac.PermUserManage}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/me", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(user)
	}))
	defer srv.Close()

	client := syncer.NewClient(srv.URL, srv.Client())
	got, err := client.Me(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Permissions, got.Permissions)

	_, err = client.Me(context.Background(), "bad")
	require.ErrorIs(t, err, syncer.ErrUnauthenticated)
}

func TestClientLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(syncer.AuthResult{
			TokenPair: syncer.TokenPair{AccessToken: "a", RefreshToken: "r"},
			User:      session.User{ID: "u-1", Phone: body["phone"]},
		})
	}))
	defer srv.Close()

	client := syncer.NewClient(srv.URL, srv.Client())
	res, err := client.Login(context.Background(), "+84900000001", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a", res.AccessToken)
	assert.Equal(t, "+84900000001", res.User.Phone)

	_, err = client.Login(context.Background(), "+84900000001", "wrong")
	require.ErrorIs(t, err, syncer.ErrUnauthenticated)
}
