package research

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/provider"
	"github.com/0xM4sk/researcher/internal/store"
)

// FetchConfig holds the tunables for the fetch stage.
type FetchConfig struct {
	// TopN caps how many raw items survive the fetch stage.
	TopN int

	// CacheTTL is how long fetched results stay valid in the cache.
	CacheTTL time.Duration
}

// FetchStage gathers raw content from the registered providers. Provider
// calls run concurrently, bounded by a shared semaphore, and results are
// concatenated in provider registration order so output is deterministic.
// A failing provider contributes nothing; it never fails the stage.
type FetchStage struct {
	providers []provider.Provider
	cache     Cache
	sem       *semaphore.Weighted
	config    FetchConfig
	logger    *slog.Logger
}

// NewFetchStage creates a fetch stage over the given providers. The
// semaphore is shared with the rest of the pipeline so total outbound
// concurrency stays bounded process-wide.
func NewFetchStage(
	providers []provider.Provider,
	cache Cache,
	sem *semaphore.Weighted,
	config FetchConfig,
	logger *slog.Logger,
) *FetchStage {
	return &FetchStage{
		providers: providers,
		cache:     cache,
		sem:       sem,
		config:    config,
		logger:    logger.With(slog.String("component", "fetch_stage")),
	}
}

// Fetch returns up to TopN raw items for the query. A cache hit short
// circuits all provider calls; a miss fans out to every provider whose
// source the query requested, then writes the truncated result back to the
// cache.
func (f *FetchStage) Fetch(ctx context.Context, query domain.ResearchQuery) ([]domain.RawItem, error) {
	key := CacheKey(query.Query, query.Sources)

	cached, err := f.cache.Get(ctx, key)
	if err == nil {
		f.logger.DebugContext(ctx, "cache hit", slog.String("key", key), slog.Int("items", len(cached)))
		return cached, nil
	}
	if !store.IsNotFoundError(err) {
		f.logger.WarnContext(ctx, "cache read failed, fetching fresh", slog.String("error", err.Error()))
	}

	selected := f.selectProviders(query.Sources)
	results := make([][]domain.RawItem, len(selected))

	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()

			if err := f.sem.Acquire(ctx, 1); err != nil {
				f.logger.WarnContext(ctx, "provider fetch aborted",
					slog.String("provider", p.Name()),
					slog.String("error", err.Error()))
				return
			}
			defer f.sem.Release(1)

			items, err := p.Fetch(ctx, query.Query, query.MaxResults)
			if err != nil {
				f.logger.WarnContext(ctx, "provider fetch failed",
					slog.String("provider", p.Name()),
					slog.String("error", err.Error()))
				return
			}
			results[i] = items
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var merged []domain.RawItem
	for _, items := range results {
		merged = append(merged, items...)
	}
	if f.config.TopN > 0 && len(merged) > f.config.TopN {
		merged = merged[:f.config.TopN]
	}

	if err := f.cache.Set(ctx, key, merged, f.config.CacheTTL); err != nil {
		f.logger.WarnContext(ctx, "cache write failed", slog.String("error", err.Error()))
	}

	f.logger.InfoContext(ctx, "fetch complete",
		slog.Int("providers", len(selected)),
		slog.Int("items", len(merged)))
	return merged, nil
}

// selectProviders returns the providers whose source the query asked for,
// preserving registration order.
func (f *FetchStage) selectProviders(sources []domain.SourceType) []provider.Provider {
	wanted := make(map[domain.SourceType]struct{}, len(sources))
	for _, s := range sources {
		wanted[s] = struct{}{}
	}

	var out []provider.Provider
	for _, p := range f.providers {
		if _, ok := wanted[p.Source()]; ok {
			out = append(out, p)
		}
	}
	return out
}
