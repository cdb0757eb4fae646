package capabilities

import (
	"sync"

	"github.com/meridian-fin/meridian/internal/session"
)

// Cache memoizes the derived set per session generation, so the mapping runs
// once per session change instead of once per read.
type Cache struct {
	mu    sync.Mutex
	epoch uint64
	valid bool
	set   Set
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// For returns the capability set for the store's current session, deriving
// it only when the session epoch moved since the last call.
func (c *Cache) For(store *session.Store) Set {
	snap := store.Snapshot()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.epoch == snap.Epoch {
		return c.set
	}
	c.set = Derive(snap)
	c.epoch = snap.Epoch
	c.valid = true
	return c.set
}
