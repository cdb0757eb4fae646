// Package console is the browser-facing gateway. It keeps one session
// store per browser session, synchronizes each against the platform API
// and answers capability and navigation queries for the UI.
package console

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meridian-fin/meridian/internal/capabilities"
	"github.com/meridian-fin/meridian/internal/session"
	"github.com/meridian-fin/meridian/internal/syncer"
)

// Session bundles everything the gateway tracks for one browser session.
type Session struct {
	ID    string
	Store *session.Store
	Sync  *syncer.Synchronizer
	Caps  *capabilities.Cache
}

// Manager owns the sid to Session mapping. Stores persist through Redis,
// so a gateway restart only loses the in-process cache, not the sessions.
type Manager struct {
	mu       sync.Mutex
	client   *redis.Client
	api      *syncer.Client
	window   time.Duration
	sessions map[string]*Session
}

// NewManager builds the session manager. window is the staleness window
// applied to every synchronizer; zero means the default.
func NewManager(client *redis.Client, api *syncer.Client, window time.Duration) *Manager {
	return &Manager{
		client:   client,
		api:      api,
		window:   window,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for sid, materialising it from Redis on first
// touch after a restart.
func (m *Manager) Get(ctx context.Context, sid string) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[sid]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	vault := session.NewRedisVault(m.client, "console:sess:"+sid)
	store := session.NewStore(vault)
	if err := store.Restore(ctx); err != nil {
		return nil, err
	}
	sync := syncer.New(store, m.api)
	if m.window > 0 {
		sync = sync.WithWindow(m.window)
	}
	sess := &Session{ID: sid, Store: store, Sync: sync, Caps: capabilities.NewCache()}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sid]; ok {
		return existing, nil
	}
	m.sessions[sid] = sess
	return sess, nil
}

// Drop forgets the in-process session. The vault is cleared separately by
// Store.Logout.
func (m *Manager) Drop(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
}

// NewSID returns a fresh random session identifier.
func NewSID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
