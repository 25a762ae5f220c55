// Package matrixcache caches built distance/time matrices keyed by a hash
// of the location-id set, so that repeated requests over the same stop set
// skip Haversine recomputation or another round-trip to the routing API.
package matrixcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/routingcore/routingcore/internal/cache"
	"github.com/routingcore/routingcore/internal/domain"
)

// Cache wraps a generic cache.Cache to store DistanceMatrixCacheEntry values
// under keys derived from the location-id set.
type Cache struct {
	backend    cache.Cache
	defaultTTL time.Duration
}

// New creates a matrix cache backed by the given generic cache.
func New(backend cache.Cache, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL}
}

// LocationSetHash computes a deterministic hash of a sorted location-id list,
// used as the cache key for a given stop set.
func LocationSetHash(locationIDs []string) string {
	sorted := append([]string(nil), locationIDs...)
	sort.Strings(sorted)

	var buf []byte
	for _, id := range sorted {
		buf = append(buf, []byte(fmt.Sprintf("%s;", id))...)
	}

	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}

func buildKey(hash string) string {
	return fmt.Sprintf("matrix:%s", hash)
}

// Get returns the cached matrix entry for a location-id set, if present and
// not expired under ttl.
func (c *Cache) Get(ctx context.Context, locationIDs []string, ttl time.Duration) (*domain.DistanceMatrixCacheEntry, bool, error) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	hash := LocationSetHash(locationIDs)
	data, err := c.backend.Get(ctx, buildKey(hash))
	if err != nil {
		if err == cache.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var entry domain.DistanceMatrixCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = c.backend.Delete(ctx, buildKey(hash))
		return nil, false, nil
	}

	if entry.Expired(time.Now(), ttl) {
		return nil, false, nil
	}

	return &entry, true, nil
}

// Set upserts a matrix entry for the given location-id set.
func (c *Cache) Set(ctx context.Context, locationIDs []string, distance, timeMatrix [][]float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	hash := LocationSetHash(locationIDs)
	entry := domain.DistanceMatrixCacheEntry{
		CacheKey:    hash,
		LocationIDs: append([]string(nil), locationIDs...),
		MatrixData:  distance,
		TimeMatrix:  timeMatrix,
		CreatedAt:   time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.backend.Set(ctx, buildKey(hash), data, ttl)
}

// Invalidate removes the cached entry for a location-id set.
func (c *Cache) Invalidate(ctx context.Context, locationIDs []string) error {
	hash := LocationSetHash(locationIDs)
	return c.backend.Delete(ctx, buildKey(hash))
}
