package matrix

import (
	"context"

	"github.com/routingcore/routingcore/internal/config"
	"github.com/routingcore/routingcore/internal/domain"
	logger "github.com/routingcore/routingcore/internal/logging"
	"github.com/routingcore/routingcore/internal/matrixcache"
	"github.com/routingcore/routingcore/internal/shortestpath"
)

// Source names accepted by Builder.Build / config.MatrixConfig.Source.
const (
	SourceHaversine = "haversine"
	SourceEuclidean = "euclidean"
	SourceAPI       = "api"
)

// TrafficFactorKey joins two location IDs into the map key BuildOptions
// expects for a directed traffic-factor override.
func TrafficFactorKey(fromID, toID string) string {
	return fromID + ">" + toID
}

// BuildOptions controls a single Build call, layered on top of the
// Builder's static configuration.
type BuildOptions struct {
	Source          string // haversine, euclidean, api; empty uses the builder's configured default
	AverageSpeedKMH float64
	UseCache        bool
	TrafficFactors  map[string]float64 // TrafficFactorKey(from,to) -> multiplier
}

// Builder constructs distance/time matrices from coordinates or an external
// routing API, with sanitization, traffic-factor overlay and persistent
// caching of the built matrices.
type Builder struct {
	matrixCfg  config.MatrixConfig
	routingCfg config.RoutingAPIConfig
	apiClient  *APIClient
	cache      *matrixcache.Cache
}

// NewBuilder constructs a Builder. cache may be nil to disable persistent
// caching entirely.
func NewBuilder(matrixCfg config.MatrixConfig, routingCfg config.RoutingAPIConfig, retryCfg config.RetryConfig, cache *matrixcache.Cache) *Builder {
	apiClient := NewAPIClient(&APIClientConfig{
		BaseURL:           routingCfg.BaseURL,
		APIKey:            routingCfg.APIKey,
		Timeout:           routingCfg.Timeout,
		MaxRetries:        routingCfg.MaxRetries,
		InitialBackoff:    retryCfg.InitialBackoff,
		MaxBackoff:        retryCfg.MaxBackoff,
		BackoffMultiplier: retryCfg.BackoffMultiplier,
	})

	return &Builder{
		matrixCfg:  matrixCfg,
		routingCfg: routingCfg,
		apiClient:  apiClient,
		cache:      cache,
	}
}

// Build computes the distance and, where possible, time matrix across
// locations, applying persistent caching, sanitization and traffic-factor
// overlay in that order.
func (b *Builder) Build(ctx context.Context, locations []domain.Location, opts BuildOptions) (*domain.DistanceMatrix, error) {
	if len(locations) == 0 {
		return &domain.DistanceMatrix{LocationIDs: []string{}, Distance: [][]float64{}}, nil
	}

	source := opts.Source
	if source == "" {
		source = b.matrixCfg.Source
	}
	if source == "" {
		source = SourceHaversine
	}

	locationIDs := make([]string, len(locations))
	for i, loc := range locations {
		locationIDs[i] = loc.ID
	}

	useCache := opts.UseCache && b.cache != nil && b.matrixCfg.CacheEnabled

	if useCache {
		if entry, ok, err := b.cache.Get(ctx, locationIDs, b.matrixCfg.CacheTTL); err == nil && ok {
			dm := &domain.DistanceMatrix{LocationIDs: locationIDs, Distance: entry.MatrixData, Time: entry.TimeMatrix}
			b.applyTrafficFactors(dm, opts.TrafficFactors)
			return dm, nil
		}
	}

	var distance, timeMat [][]float64
	var err error

	if source == SourceAPI && b.routingCfg.Enabled && b.routingCfg.APIKey != "" {
		distance, timeMat, err = b.apiClient.FetchMatrices(ctx, locations)
		if err != nil {
			logger.Warn("routing API matrix build failed, falling back to haversine", "error", err)
			distance, timeMat = b.buildLocal(locations, SourceHaversine, opts.AverageSpeedKMH)
		}
	} else {
		distance, timeMat = b.buildLocal(locations, source, opts.AverageSpeedKMH)
	}

	sanitize(distance, timeMat)

	if useCache {
		if err := b.cache.Set(ctx, locationIDs, distance, timeMat, b.matrixCfg.CacheTTL); err != nil {
			logger.Warn("failed to persist built matrix to cache", "error", err)
		}
	}

	dm := &domain.DistanceMatrix{LocationIDs: locationIDs, Distance: distance, Time: timeMat}
	b.applyTrafficFactors(dm, opts.TrafficFactors)
	return dm, nil
}

func (b *Builder) buildLocal(locations []domain.Location, source string, averageSpeedKMH float64) (distance, timeMat [][]float64) {
	n := len(locations)
	distance = make([][]float64, n)

	speed := averageSpeedKMH
	if speed <= 0 {
		speed = b.matrixCfg.AverageSpeedKMH
	}
	if speed > 0 {
		timeMat = make([][]float64, n)
	}

	for i := 0; i < n; i++ {
		distance[i] = make([]float64, n)
		if timeMat != nil {
			timeMat[i] = make([]float64, n)
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			var d float64
			if source == SourceEuclidean {
				d = EuclideanDistance(locations[i].Latitude, locations[i].Longitude, locations[j].Latitude, locations[j].Longitude)
			} else {
				d = HaversineDistance(locations[i].Latitude, locations[i].Longitude, locations[j].Latitude, locations[j].Longitude)
			}
			distance[i][j] = d
			if timeMat != nil {
				timeMat[i][j] = EstimateTime(d, speed)
			}
		}
	}
	return distance, timeMat
}

// applyTrafficFactors multiplies each named edge's distance and time by its
// clamped traffic factor. Unnamed edges are left untouched.
func (b *Builder) applyTrafficFactors(dm *domain.DistanceMatrix, factors map[string]float64) {
	if len(factors) == 0 {
		return
	}
	index := make(map[string]int, len(dm.LocationIDs))
	for i, id := range dm.LocationIDs {
		index[id] = i
	}

	for key, factor := range factors {
		fromID, toID, ok := splitTrafficKey(key)
		if !ok {
			continue
		}
		i, iok := index[fromID]
		j, jok := index[toID]
		if !iok || !jok {
			continue
		}
		f := domain.ClampTrafficFactor(factor)
		dm.Distance[i][j] = domain.SanitizeDistance(dm.Distance[i][j] * f)
		if dm.HasTime() {
			dm.Time[i][j] = domain.SanitizeTime(dm.Time[i][j] * f)
		}
	}
}

func splitTrafficKey(key string) (from, to string, ok bool) {
	for i := 0; i < len(key)-1; i++ {
		if key[i] == '>' {
			return key[:i], key[i+1:], true
		}
	}
	return "", "", false
}

func sanitize(distance, timeMat [][]float64) {
	for i := range distance {
		for j := range distance[i] {
			if i == j {
				distance[i][j] = 0
				if timeMat != nil && timeMat[i] != nil {
					timeMat[i][j] = 0
				}
				continue
			}
			distance[i][j] = domain.SanitizeDistance(distance[i][j])
			if timeMat != nil && timeMat[i] != nil {
				timeMat[i][j] = domain.SanitizeTime(timeMat[i][j])
			}
		}
	}
}

// ToGraph converts a built DistanceMatrix into the adjacency map the
// shortest-path kernel operates on, using distance as edge weight.
func ToGraph(dm *domain.DistanceMatrix) shortestpath.Graph {
	g := make(shortestpath.Graph, len(dm.LocationIDs))
	for i, fromID := range dm.LocationIDs {
		neighbors := make(map[string]float64, len(dm.LocationIDs)-1)
		for j, toID := range dm.LocationIDs {
			if i == j {
				continue
			}
			neighbors[toID] = dm.Distance[i][j]
		}
		g[fromID] = neighbors
	}
	return g
}
