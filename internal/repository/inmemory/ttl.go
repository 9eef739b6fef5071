package inmemory

import (
	"strings"
	"sync"
	"time"
)

// ttlCache is a map whose entries expire; expired entries are dropped on read.
type ttlCache[V any] struct {
	mu    sync.RWMutex
	items map[string]ttlItem[V]
	now   func() time.Time
}

type ttlItem[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLCache[V any]() *ttlCache[V] {
	return &ttlCache[V]{
		items: make(map[string]ttlItem[V]),
		now:   time.Now,
	}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[key]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	return item.value, true
}

func (c *ttlCache[V]) set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		c.delete(key)
		return
	}

	c.mu.Lock()
	c.items[key] = ttlItem[V]{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ttlCache[V]) delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *ttlCache[V]) deletePrefix(prefix string) {
	c.mu.Lock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	c.mu.Unlock()
}

func (c *ttlCache[V]) clear() {
	c.mu.Lock()
	c.items = make(map[string]ttlItem[V])
	c.mu.Unlock()
}
