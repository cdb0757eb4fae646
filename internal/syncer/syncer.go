package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-fin/meridian/internal/session"
)

// ErrNoAccessToken reports that a sync was requested without a locally held
// bearer credential. The fetch is gated on the token so a signed-out console
// never enters a 401 loop.
var ErrNoAccessToken = errors.New("syncer: no access token")

// DefaultStaleness is the reference window inside which a previous
// successful sync is considered fresh enough.
const DefaultStaleness = 5 * time.Minute

// Fetcher fetches the canonical current-user record.
type Fetcher interface {
	Me(ctx context.Context, accessToken string) (session.User, error)
}

// Synchronizer reconciles the persisted session against the server's view.
// The server response is authoritative and overwrites local state through
// the store's epoch-guarded full-replace path; a fetch that loses against a
// logout or re-login is dropped.
type Synchronizer struct {
	store   *session.Store
	fetcher Fetcher
	window  time.Duration

	group singleflight.Group

	mu       sync.Mutex
	lastSync time.Time
}

// New builds a synchronizer with the default staleness window.
func New(store *session.Store, fetcher Fetcher) *Synchronizer {
	return &Synchronizer{store: store, fetcher: fetcher, window: DefaultStaleness}
}

// WithWindow overrides the staleness window. Zero disables caching.
func (s *Synchronizer) WithWindow(window time.Duration) *Synchronizer {
	s.window = window
	return s
}

// Sync refreshes the session unless the last successful sync is still within
// the staleness window.
func (s *Synchronizer) Sync(ctx context.Context) error {
	return s.sync(ctx, false)
}

// SyncNow bypasses the staleness window for callers needing fresher data.
func (s *Synchronizer) SyncNow(ctx context.Context) error {
	return s.sync(ctx, true)
}

func (s *Synchronizer) sync(ctx context.Context, force bool) error {
	token := s.store.AccessToken()
	if token == "" {
		return ErrNoAccessToken
	}
	if !force && s.fresh() {
		return nil
	}

	// Concurrent identical fetches coalesce onto one network call.
	_, err, _ := s.group.Do("me", func() (any, error) {
		epoch := s.store.Epoch()
		refresh := s.store.RefreshToken()
		user, err := s.fetcher.Me(ctx, token)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetAuthIfEpoch(ctx, epoch, user, token, refresh); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.lastSync = time.Now()
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

func (s *Synchronizer) fresh() bool {
	if s.window <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastSync.IsZero() && time.Since(s.lastSync) < s.window
}
