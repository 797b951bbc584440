package research

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/store"
)

// Cache stores fetched search results so repeated queries skip the provider
// round trips. Get returns store.ErrCacheMiss when the key is absent or
// expired.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.RawItem, error)
	Set(ctx context.Context, key string, items []domain.RawItem, ttl time.Duration) error
}

// CacheKey derives the cache key for a query. The key covers the query text
// and the requested source set so the same text against different sources
// does not collide. Sources are sorted so ordering in the request does not
// fragment the cache.
func CacheKey(query string, sources []domain.SourceType) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("search:")
	b.WriteString(query)
	b.WriteString(":")
	b.WriteString(strings.Join(names, ","))
	return b.String()
}

type memoryCacheEntry struct {
	items     []domain.RawItem
	expiresAt time.Time
}

// MemoryCache is an in-process Cache with per-entry TTL expiry. Entries are
// reaped lazily on Get.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached items for key, or store.ErrCacheMiss if the entry
// is absent or past its TTL.
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.RawItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, store.ErrCacheMiss
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, store.ErrCacheMiss
	}

	items := make([]domain.RawItem, len(entry.items))
	copy(items, entry.items)
	return items, nil
}

// Set stores items under key for the given TTL, replacing any prior entry.
func (c *MemoryCache) Set(_ context.Context, key string, items []domain.RawItem, ttl time.Duration) error {
	stored := make([]domain.RawItem, len(items))
	copy(stored, items)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCacheEntry{
		items:     stored,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}
