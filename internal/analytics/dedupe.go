// ABOUTME: Thread-safe TTL cache for suppressing duplicate view beacons
// ABOUTME: Entries expire lazily; the key space is tiny (one per page view)

package analytics

import (
	"sync"
	"time"
)

type dedupeCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
}

func newDedupeCache(ttl time.Duration) *dedupeCache {
	return &dedupeCache{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// checkAndMark atomically checks whether the key was seen inside the TTL
// window and marks it if not. Returns true for duplicates. Expired entries
// are pruned on the way through, which is enough for a cache this small.
func (c *dedupeCache) checkAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, t := range c.seen {
		if now.Sub(t) >= c.ttl {
			delete(c.seen, k)
		}
	}

	if t, ok := c.seen[key]; ok && now.Sub(t) < c.ttl {
		return true
	}
	c.seen[key] = now
	return false
}
