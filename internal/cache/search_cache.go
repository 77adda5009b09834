// Package cache holds the Redis-backed cache for user search results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/account-service/internal/domain"
)

const (
	generationKey = "users:search:generation"
	entryPrefix   = "users:search:"
)

// SearchCache stores search projections keyed by filter. Entries are scoped
// to a generation counter; Invalidate bumps it so older entries are never read
// again and expire on their own.
type SearchCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSearchCache builds a cache over client.
func NewSearchCache(client redis.UniversalClient, ttl time.Duration) *SearchCache {
	return &SearchCache{client: client, ttl: ttl}
}

// Get returns the cached result for filter and the generation it was looked
// up under. ok is false on a miss; the generation is still valid and should be
// handed back to Set.
func (c *SearchCache) Get(ctx context.Context, filter string) ([]domain.UserProjection, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.client.Get(ctx, entryKey(gen, filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("cache get: %w", err)
	}

	var users []domain.UserProjection
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, gen, false, fmt.Errorf("cache decode: %w", err)
	}
	return users, gen, true, nil
}

// Set stores users for filter under gen, the generation returned by the Get
// that missed. Results read before an invalidation land in the old generation
// and are never served.
func (c *SearchCache) Set(ctx context.Context, gen int64, filter string, users []domain.UserProjection) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(gen, filter), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate makes every previously cached result unreachable.
func (c *SearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

func (c *SearchCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

func entryKey(gen int64, filter string) string {
	return fmt.Sprintf("%s%d:%s", entryPrefix, gen, filter)
}
