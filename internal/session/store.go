package session

import (
	"context"
	"errors"
	"sync"
)

// ErrStaleEpoch reports that a guarded write lost against a newer session
// generation and was dropped.
var ErrStaleEpoch = errors.New("session: stale epoch")

// Store is the authoritative holder of one console session. Mutations
// replace the session wholesale and persist to the vault before they become
// visible; queries are pure reads and never touch the network. The epoch
// counter increments on every SetAuth and Logout so a slow fetch finishing
// after a logout cannot resurrect the session it raced against.
type Store struct {
	mu    sync.RWMutex
	vault Vault

	user          *User
	accessToken   string
	refreshToken  string
	authenticated bool
	epoch         uint64
}

// NewStore builds an empty, signed-out store backed by vault.
func NewStore(vault Vault) *Store {
	return &Store{vault: vault}
}

// Restore rebuilds the session from durable storage, typically once at
// bootstrap. A vault without a record leaves the store signed out.
func (s *Store) Restore(ctx context.Context) error {
	rec, ok, err := s.vault.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = rec.User.clone()
	s.accessToken = rec.AccessToken
	s.refreshToken = rec.RefreshToken
	s.authenticated = rec.IsAuthenticated && rec.User != nil
	s.epoch++
	return nil
}

// SetAuth replaces the whole session. There is no partial path for roles or
// permissions: the two arrays always arrive together from the server.
func (s *Store) SetAuth(ctx context.Context, user User, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(ctx, user, accessToken, refreshToken)
}

// SetAuthIfEpoch applies a full replace only when the store is still at the
// generation the caller observed when it started its fetch. A mismatch
// returns ErrStaleEpoch and leaves the store untouched.
func (s *Store) SetAuthIfEpoch(ctx context.Context, epoch uint64, user User, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return ErrStaleEpoch
	}
	return s.applyLocked(ctx, user, accessToken, refreshToken)
}

func (s *Store) applyLocked(ctx context.Context, user User, accessToken, refreshToken string) error {
	u := user.clone()
	rec := Record{User: u, AccessToken: accessToken, RefreshToken: refreshToken, IsAuthenticated: true}
	// Durable storage first: a reload right after SetAuth returns must
	// observe the new state.
	if err := s.vault.Save(ctx, rec); err != nil {
		return err
	}
	s.user = u
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.authenticated = true
	s.epoch++
	return nil
}

// UpdateUser shallow-merges profile fields without touching tokens, roles or
// permissions. Calling it while signed out is a no-op.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := s.user.clone()
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	if patch.PhoneVerified != nil {
		u.PhoneVerified = *patch.PhoneVerified
	}
	if patch.Customer != nil {
		c := *patch.Customer
		u.Customer = &c
	}
	if patch.Collaborator != nil {
		c := *patch.Collaborator
		u.Collaborator = &c
	}
	rec := Record{User: u, AccessToken: s.accessToken, RefreshToken: s.refreshToken, IsAuthenticated: s.authenticated}
	if err := s.vault.Save(ctx, rec); err != nil {
		return err
	}
	s.user = u
	return nil
}

// Logout clears every field and erases the persisted copy. It is idempotent:
// a second call observes and produces the same cleared state.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.vault.Clear(ctx); err != nil {
		return err
	}
	s.user = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.authenticated = false
	s.epoch++
	return nil
}

// Epoch returns the current session generation.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// IsAuthenticated reports whether a signed-in user is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.user != nil
}

// AccessToken returns the bearer credential, "" when signed out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh credential, "" when signed out.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Snapshot copies the live session for facades and handlers.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		User:            s.user.clone(),
		AccessToken:     s.accessToken,
		RefreshToken:    s.refreshToken,
		IsAuthenticated: s.authenticated && s.user != nil,
		Epoch:           s.epoch,
	}
}

// HasRole reports a case-sensitive exact match against the assigned roles.
func (s *Store) HasRole(role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.roleSetLocked(), role)
}

// HasAnyRole is true when at least one of the codes is assigned. An empty
// list imposes no restriction and is true even while signed out.
func (s *Store) HasAnyRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return anyIn(s.roleSetLocked(), roles)
}

// HasAllRoles is true when every code is assigned; an empty list is true.
func (s *Store) HasAllRoles(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allIn(s.roleSetLocked(), roles)
}

// HasPermission reports membership in the flattened permission union.
func (s *Store) HasPermission(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contains(s.permSetLocked(), code)
}

// HasAnyPermission is true when the union intersects codes; empty is true.
func (s *Store) HasAnyPermission(codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return anyIn(s.permSetLocked(), codes)
}

// HasAllPermissions is true when the union covers codes; empty is true.
func (s *Store) HasAllPermissions(codes []string) bool {
	if len(codes) == 0 {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return allIn(s.permSetLocked(), codes)
}

func (s *Store) roleSetLocked() []string {
	if s.user == nil {
		return nil
	}
	return s.user.Roles
}

func (s *Store) permSetLocked() []string {
	if s.user == nil {
		return nil
	}
	return s.user.Permissions
}

func contains(held []string, want string) bool {
	for _, h := range held {
		if h == want {
			return true
		}
	}
	return false
}

func anyIn(held, wanted []string) bool {
	for _, w := range wanted {
		if contains(held, w) {
			return true
		}
	}
	return false
}

func allIn(held, wanted []string) bool {
	for _, w := range wanted {
		if !contains(held, w) {
			return false
		}
	}
	return true
}
