package anim

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cache is a concurrency-safe animation cache over an Index. Assets the
// index does not know are unresolved; callers are expected to retry later.
type Cache struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Animation
	index *Index
	log   zerolog.Logger
}

// NewCache creates a cache backed by the given index.
func NewCache(index *Index, log zerolog.Logger) *Cache {
	return &Cache{
		items: make(map[uuid.UUID]*Animation),
		index: index,
		log:   log,
	}
}

// Put stores an already-decoded animation.
func (c *Cache) Put(id uuid.UUID, a *Animation) {
	c.mu.Lock()
	c.items[id] = a
	c.mu.Unlock()
}

// Clip loads and caches an animation by asset id.
func (c *Cache) Clip(id uuid.UUID) (*Animation, bool) {
	// Fast path: read lock
	c.mu.RLock()
	if a, exists := c.items[id]; exists {
		c.mu.RUnlock()
		return a, true
	}
	c.mu.RUnlock()

	path, ok := c.index.ResolvePath(id)
	if !ok {
		return nil, false
	}

	// Slow path: load from disk
	a, err := Parse(path)
	if err != nil {
		c.log.Warn().Err(err).Str("asset", id.String()).Msg("animation unreadable")
		return nil, false
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, exists := c.items[id]; exists {
		return existing, true
	}
	c.items[id] = a
	return a, true
}
