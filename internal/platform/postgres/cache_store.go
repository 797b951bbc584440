package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/0xM4sk/researcher/internal/domain"
	"github.com/0xM4sk/researcher/internal/platform/logger"
	"github.com/0xM4sk/researcher/internal/store"
)

// CacheStore implements the research.Cache interface using PostgreSQL,
// giving cached search results durability across process restarts. Expired
// rows are treated as absent on read and reaped opportunistically on write.
type CacheStore struct {
	db store.DBTX
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(db store.DBTX) *CacheStore {
	return &CacheStore{
		db: db,
	}
}

// Get returns the unexpired cached items for key, or store.ErrCacheMiss.
func (s *CacheStore) Get(ctx context.Context, key string) ([]domain.RawItem, error) {
	log := logger.FromContext(ctx)

	query := `
		SELECT items
		FROM search_cache
		WHERE cache_key = $1 AND expires_at > NOW()
	`

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrCacheMiss
		}
		log.Error("failed to read search cache",
			"cache_key", key,
			"error", err)
		return nil, fmt.Errorf("failed to read search cache: %w", MapError(err))
	}

	var items []domain.RawItem
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, fmt.Errorf("%w: decoding cached items: %v", store.ErrSerialization, err)
	}

	return items, nil
}

// Set stores items under key for the given TTL, replacing any prior entry.
// Each write also clears rows that expired before it, keeping the table
// from accumulating dead entries without a separate sweeper.
func (s *CacheStore) Set(ctx context.Context, key string, items []domain.RawItem, ttl time.Duration) error {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encoding cached items: %v", store.ErrSerialization, err)
	}

	query := `
		INSERT INTO search_cache (cache_key, items, created_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + $3::interval)
		ON CONFLICT (cache_key) DO UPDATE SET
			items = EXCLUDED.items,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`

	interval := fmt.Sprintf("%d seconds", int(ttl.Seconds()))
	if _, err := s.db.ExecContext(ctx, query, key, payload, interval); err != nil {
		log.Error("failed to write search cache",
			"cache_key", key,
			"error", err)
		return fmt.Errorf("failed to write search cache: %w", MapError(err))
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_cache WHERE expires_at <= NOW()`); err != nil {
		// Reaping is best effort; the entry itself was written.
		log.Warn("failed to reap expired cache entries", "error", err)
	}

	return nil
}
