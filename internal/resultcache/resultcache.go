// Package resultcache caches full OptimizationResult values keyed by a
// deterministic fingerprint of a request's inputs, so an identical optimize
// call can be served without re-running the solver.
package resultcache

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

// Cache wraps a generic cache.Cache to store OptimizationResult values under
// a request-fingerprint key.
type Cache struct {
	backend    cache.Cache
	defaultTTL time.Duration
}

// New creates a result cache backed by the given generic cache.
func New(backend cache.Cache, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &Cache{backend: backend, defaultTTL: defaultTTL}
}

// Fingerprint is the stable set of request inputs that determine an
// optimize call's result: the hash is computed over sorted, JSON-canonical
// representations of locations, vehicles, deliveries, option flags, and a
// normalized traffic-factor map.
type Fingerprint struct {
	Locations           []domain.Location  `json:"locations"`
	Vehicles            []domain.Vehicle   `json:"vehicles"`
	Deliveries          []domain.Delivery  `json:"deliveries"`
	ConsiderTraffic     bool               `json:"consider_traffic"`
	ConsiderTimeWindows bool               `json:"consider_time_windows"`
	UseAPI              bool               `json:"use_api"`
	TrafficFactors      map[string]float64 `json:"traffic_factors,omitempty"`
}

// Key computes the deterministic fingerprint key for a request. The
// caller's slices are copied before sorting so a key computation never
// reorders pipeline inputs.
func Key(fp Fingerprint) string {
	fp.Locations = append([]domain.Location(nil), fp.Locations...)
	fp.Vehicles = append([]domain.Vehicle(nil), fp.Vehicles...)
	fp.Deliveries = append([]domain.Delivery(nil), fp.Deliveries...)
	sortLocations(fp.Locations)
	sortVehicles(fp.Vehicles)
	sortDeliveries(fp.Deliveries)

	data, err := json.Marshal(fp)
	if err != nil {
		// Marshal of plain structs/maps of primitives cannot fail; this
		// branch exists only to satisfy the error return contract.
		data = []byte(fmt.Sprintf("%v", fp))
	}

	sum := sha256.Sum256(data)
	return "optimize:" + hex.EncodeToString(sum[:16])
}

func sortLocations(locs []domain.Location) {
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })
}

func sortVehicles(vehicles []domain.Vehicle) {
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
}

func sortDeliveries(deliveries []domain.Delivery) {
	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].ID < deliveries[j].ID })
}

// Get returns the cached OptimizationResult for a fingerprint, if present.
func (c *Cache) Get(ctx context.Context, fp Fingerprint) (*domain.OptimizationResult, bool, error) {
	key := Key(fp)

	data, err := c.backend.Get(ctx, key)
	if err != nil {
		if err == cache.ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result domain.OptimizationResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = c.backend.Delete(ctx, key)
		return nil, false, nil
	}

	return &result, true, nil
}

// Set upserts an OptimizationResult for a fingerprint.
func (c *Cache) Set(ctx context.Context, fp Fingerprint, result *domain.OptimizationResult, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return c.backend.Set(ctx, Key(fp), data, ttl)
}
