package service

import (
	"sync"
	"time"
)

// configCache holds the last server-supplied widget config so repeated
// initialization does not refetch the optional config endpoint.
type configCache struct {
	mu        sync.RWMutex
	value     map[string]any
	expiresAt time.Time
	ttl       time.Duration
}

func newConfigCache(ttl time.Duration) *configCache {
	return &configCache{ttl: ttl}
}

func (c *configCache) Get() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil || time.Now().After(c.expiresAt) {
		return nil
	}
	return c.value
}

func (c *configCache) Set(value map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.value = value
	c.expiresAt = time.Now().Add(c.ttl)
}
