package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/catshelter/internal/core/domain"
	"github.com/vietddude/catshelter/internal/infra/services"
)

// Key helpers
func breedKey(name string) string {
	return fmt.Sprintf("breed:%s", strings.ToLower(name))
}

func pricesKey(breedID uuid.UUID) string {
	return fmt.Sprintf("prices:%s", breedID)
}

// CachedCatalog wraps a Catalog with read-through caching of breed lookups.
// Cache failures degrade to the underlying client and are never surfaced.
type CachedCatalog struct {
	inner services.Catalog
	cache *Client
	ttl   time.Duration
}

// NewCachedCatalog creates a caching decorator around inner.
func NewCachedCatalog(inner services.Catalog, cache *Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{inner: inner, cache: cache, ttl: ttl}
}

// FindBreedByName serves from cache when possible; misses fall through and
// populate the cache. Absent breeds are not cached.
func (c *CachedCatalog) FindBreedByName(
	ctx context.Context,
	name string,
) (*domain.BreedInfo, error) {
	key := breedKey(name)
	if data, err := c.cache.rdb.Get(ctx, key).Bytes(); err == nil {
		var breed domain.BreedInfo
		if err := json.Unmarshal(data, &breed); err == nil {
			return &breed, nil
		}
	} else if err != redis.Nil {
		slog.Debug("breed cache read failed", "name", name, "error", err)
	}

	breed, err := c.inner.FindBreedByName(ctx, name)
	if err != nil || breed == nil {
		return breed, err
	}

	if data, err := json.Marshal(breed); err == nil {
		if err := c.cache.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("breed cache write failed", "name", name, "error", err)
		}
	}
	return breed, nil
}

// CachedExchange wraps an Exchange with read-through caching of price
// history per breed.
type CachedExchange struct {
	inner services.Exchange
	cache *Client
	ttl   time.Duration
}

// NewCachedExchange creates a caching decorator around inner.
func NewCachedExchange(inner services.Exchange, cache *Client, ttl time.Duration) *CachedExchange {
	return &CachedExchange{inner: inner, cache: cache, ttl: ttl}
}

// GetPriceHistory serves from cache when possible; misses fall through and
// populate the cache.
func (c *CachedExchange) GetPriceHistory(
	ctx context.Context,
	breedID uuid.UUID,
) ([]domain.PricePoint, error) {
	key := pricesKey(breedID)
	if data, err := c.cache.rdb.Get(ctx, key).Bytes(); err == nil {
		var points []domain.PricePoint
		if err := json.Unmarshal(data, &points); err == nil {
			return points, nil
		}
	} else if err != redis.Nil {
		slog.Debug("price cache read failed", "breed_id", breedID, "error", err)
	}

	points, err := c.inner.GetPriceHistory(ctx, breedID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(points); err == nil {
		if err := c.cache.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("price cache write failed", "breed_id", breedID, "error", err)
		}
	}
	return points, nil
}
