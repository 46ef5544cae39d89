package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/Dev-Dami/Weather-App/internal/models"
)

type entry struct {
	data      models.Snapshot
	expiresAt time.Time
}

// Cache holds recent snapshots keyed by city name, case-insensitively.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
}

func New(ttl time.Duration) *Cache {
	return &Cache{items: make(map[string]entry), ttl: ttl, now: time.Now}
}

func cacheKey(city string) string { return strings.ToLower(strings.TrimSpace(city)) }

func (c *Cache) Get(city string) (models.Snapshot, bool) {
	if c == nil || c.ttl <= 0 {
		return models.Snapshot{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[cacheKey(city)]
	if !ok || c.now().After(e.expiresAt) {
		return models.Snapshot{}, false
	}
	return *e.data.Clone(), true
}

func (c *Cache) Set(city string, data models.Snapshot) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
	c.items[cacheKey(city)] = entry{data: *data.Clone(), expiresAt: now.Add(c.ttl)}
}
