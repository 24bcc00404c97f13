// Package cache memoizes prompt-construction results by a
// content-derived key. Entries expire after a TTL and are removed by a
// background sweep; values are deep-copied on every read so callers
// can never mutate cached state.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"promptsmith/internal/logging"
)

// KeyInput carries the fields the cache key is derived from. The key
// is stable for identical logical inputs and changes whenever any
// field changes.
type KeyInput struct {
	SystemPreview   string
	UserPreview     string
	LastTurnPreview string
	ToolIDs         []string
	ModelID         string
	TemplateName    string
	PersonaID       string
	Mood            string
	TaskHint        string
}

// PreviewLimit is how many characters of each content field feed the
// key derivation.
const PreviewLimit = 64

// Preview truncates s to PreviewLimit characters.
func Preview(s string) string {
	if len(s) <= PreviewLimit {
		return s
	}
	return s[:PreviewLimit]
}

// BuildKey derives a stable digest from the key input. Not a security
// boundary; sha256 is used only for stability and spread.
func BuildKey(in KeyInput) string {
	h := sha256.New()
	write := func(field string) {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}

	write(Preview(in.SystemPreview))
	write(Preview(in.UserPreview))
	write(Preview(in.LastTurnPreview))
	for _, id := range in.ToolIDs {
		write(id)
	}
	write(in.ModelID)
	write(in.TemplateName)
	write(in.PersonaID)
	write(in.Mood)
	write(in.TaskHint)

	return hex.EncodeToString(h.Sum(nil))
}

// Label builds the human-readable entry label used by pattern clears.
func (in KeyInput) Label() string {
	return in.PersonaID + "/" + in.ModelID + "/" + in.TemplateName
}

// Stats are the cache's aggregate counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// HitRatio returns hits / (hits + misses), or 0 with no lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

type entry[V any] struct {
	value       V
	label       string
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
	size        int
}

// Cache is a TTL-expiring memoization map. V is the cached value type;
// clone must return a deep copy so cached state never aliases values
// handed to callers.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]

	ttl   time.Duration
	clone func(V) V

	hits      int64
	misses    int64
	evictions int64

	done   chan struct{}
	closed bool
}

// MinSweepInterval is the sweep interval floor.
const MinSweepInterval = time.Second

// New creates a cache and starts its background sweeper. The sweep
// runs every ttl/2, floored at MinSweepInterval. Call Close to stop
// the sweeper.
func New[V any](ttl time.Duration, clone func(V) V) *Cache[V] {
	c := &Cache[V]{
		entries: make(map[string]*entry[V]),
		ttl:     ttl,
		clone:   clone,
		done:    make(chan struct{}),
	}

	interval := ttl / 2
	if interval < MinSweepInterval {
		interval = MinSweepInterval
	}

	go c.sweepLoop(interval)
	return c
}

func (c *Cache[V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := c.EvictExpired()
			if removed > 0 {
				logging.Get(logging.CategoryCache).Debug("Sweep evicted %d entries", removed)
			}
		case <-c.done:
			return
		}
	}
}

// Close stops the background sweeper. Safe to call more than once.
func (c *Cache[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// Get returns a deep copy of the cached value for key. A hit bumps
// the entry's access counter.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Since(e.createdAt) > c.ttl {
		if ok {
			delete(c.entries, key)
			c.evictions++
		}
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	e.accessCount++
	e.lastAccess = time.Now()
	return c.clone(e.value), true
}

// Put stores a deep copy of value under key.
func (c *Cache[V]) Put(key string, label string, value V, sizeEstimate int) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry[V]{
		value:      c.clone(value),
		label:      label,
		createdAt:  now,
		lastAccess: now,
		size:       sizeEstimate,
	}
}

// EvictExpired removes entries older than the TTL. Returns the number
// removed.
func (c *Cache[V]) EvictExpired() int {
	cutoff := time.Now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.createdAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	c.evictions += int64(removed)
	return removed
}

// Clear removes entries whose label contains pattern. An empty
// pattern clears everything. Returns the number removed.
func (c *Cache[V]) Clear(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pattern == "" {
		removed := len(c.entries)
		c.entries = make(map[string]*entry[V])
		return removed
	}

	removed := 0
	for key, e := range c.entries {
		if strings.Contains(e.label, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Entries:   len(c.entries),
	}
}
