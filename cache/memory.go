package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is the single instance fallback used when no Redis address
// is configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) lookup(key string) (memoryEntry, bool) {
	e, ok := c.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (c *MemoryCache) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		e = memoryEntry{value: "0", expiresAt: c.now().Add(ttl)}
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, err
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.entries[key] = e
	return n, nil
}

func (c *MemoryCache) Count(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookup(key)
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(e.value, 10, 64)
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	return e.value, ok, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
