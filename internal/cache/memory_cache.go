package cache

import (
	"sync"
	"time"

	"admiral/internal/yahoo"
)

// QuoteCache is an in-memory cache for batched quote fetches, keyed by the
// joined symbol list. It keeps rapid successive syncs from hammering the
// provider; positions changing between syncs changes the key, so a stale
// symbol set never matches.
type QuoteCache struct {
	mu      sync.RWMutex
	entries map[string]quoteEntry
	ttl     time.Duration
}

type quoteEntry struct {
	quotes    map[string]yahoo.BatchQuote
	fetchedAt time.Time
}

// NewQuoteCache creates a new cache. A zero TTL disables caching entirely.
func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		entries: make(map[string]quoteEntry),
		ttl:     ttl,
	}
}

// Get retrieves a cached batch if one is present and still fresh.
func (c *QuoteCache) Get(key string) (map[string]yahoo.BatchQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Since(entry.fetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.quotes, true
}

// Set stores a batch result.
func (c *QuoteCache) Set(key string, quotes map[string]yahoo.BatchQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = quoteEntry{
		quotes:    quotes,
		fetchedAt: time.Now(),
	}
}
