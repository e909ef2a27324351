// ABOUTME: Seen-message cache guarding against at-least-once channel redelivery
// ABOUTME: TTL-bounded and size-bounded; checked before any store or stream mutation

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// Cache tracks recently seen message ids so a redelivered newMessage push is
// dropped before it can double-append or double-bump a conversation. Entries
// expire after the TTL; when the cache is full the oldest entry is evicted.
type Cache struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
}

type entry struct {
	key      string
	markedAt time.Time
}

// New creates a cache. The redelivery window of the channel collaborator
// bounds how long ids need to be remembered; a few minutes is plenty.
func New(ttl time.Duration, maxSize int) *Cache {
	return &Cache{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Seen atomically reports whether key was already marked within the TTL, and
// marks it if not. Expired entries are pruned opportunistically on the way.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.pruneLocked(now)

	if el, ok := c.seen[key]; ok {
		if now.Sub(el.Value.(*entry).markedAt) < c.ttl {
			return true
		}
		c.removeLocked(el)
	}

	if len(c.seen) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			c.removeLocked(front)
		}
	}
	c.seen[key] = c.order.PushBack(&entry{key: key, markedAt: now})
	return false
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// pruneLocked drops expired entries from the front of the order list.
// Must be called with mu held.
func (c *Cache) pruneLocked(now time.Time) {
	for {
		front := c.order.Front()
		if front == nil || now.Sub(front.Value.(*entry).markedAt) < c.ttl {
			return
		}
		c.removeLocked(front)
	}
}

func (c *Cache) removeLocked(el *list.Element) {
	delete(c.seen, el.Value.(*entry).key)
	c.order.Remove(el)
}
