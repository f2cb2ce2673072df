package display

import (
	"sync"
	"time"

	"github.com/safa0/radiantctl/preset"
)

// Cache keeps the latest State per display. Entries are replaced wholesale;
// ordering is decided by Token alone.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]State
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]State), now: time.Now}
}

// Apply stores st for id if its token is newer than the cached one. It
// returns false, leaving the entry alone, for stale or repeated tokens.
func (c *Cache) Apply(id string, st State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[id]; ok && st.Token <= cur.Token {
		return false
	}
	st = st.clone()
	if st.Values == nil {
		st.Values = preset.Values{}
	}
	st.UpdatedAt = c.now()
	c.entries[id] = st
	return true
}

// Get returns a copy of the cached state.
func (c *Cache) Get(id string) (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[id]
	if !ok {
		return State{}, false
	}
	return st.clone(), true
}

// Values returns a copy of the cached values for id.
func (c *Cache) Values(id string) (preset.Values, bool) {
	st, ok := c.Get(id)
	if !ok {
		return nil, false
	}
	return st.Values, true
}

// Token returns the cached token for id, or 0 if nothing is cached.
func (c *Cache) Token(id string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id].Token
}

// ChangedSince reports whether id has a newer state than token.
func (c *Cache) ChangedSince(id string, token uint64) bool {
	return c.Token(id) > token
}
