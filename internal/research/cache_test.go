package research

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/store"
)

func TestCacheKeyIgnoresSourceOrder(t *testing.T) {
	a := CacheKey("quantum computing", []domain.SourceType{domain.SourceWeb, domain.SourceNews})
	b := CacheKey("quantum computing", []domain.SourceType{domain.SourceNews, domain.SourceWeb})
	assert.Equal(t, a, b)
}

func TestCacheKeySeparatesSourceSets(t *testing.T) {
	a := CacheKey("quantum computing", []domain.SourceType{domain.SourceWeb})
	b := CacheKey("quantum computing", []domain.SourceType{domain.SourceNews})
	assert.NotEqual(t, a, b, "same text against different sources must not collide")
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	items := rawItems(domain.SourceWeb, "hello")

	require.NoError(t, cache.Set(ctx, "k", items, time.Minute))

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	cache := NewMemoryCache()

	_, err := cache.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, store.ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "k", rawItems(domain.SourceWeb, "x"), time.Hour))

	// Still valid just before the deadline.
	now = now.Add(time.Hour - time.Second)
	_, err := cache.Get(ctx, "k")
	require.NoError(t, err)

	// Expired after it.
	now = now.Add(2 * time.Second)
	_, err = cache.Get(ctx, "k")
	assert.ErrorIs(t, err, store.ErrCacheMiss)
}

func TestMemoryCacheCopiesOnRead(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", rawItems(domain.SourceWeb, "original"), time.Minute))

	first, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	first[0].Content = "mutated"

	second, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", second[0].Content)
}
