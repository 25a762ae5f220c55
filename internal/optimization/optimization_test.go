package optimization

import (
	"context"
	"testing"
	"time"

	"github.com/routingcore/routingcore/internal/cache"
	"github.com/routingcore/routingcore/internal/config"
	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/matrixcache"
	"github.com/routingcore/routingcore/internal/resultcache"
	"github.com/routingcore/routingcore/internal/vrpsolver"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	backend, err := cache.New(&cache.Options{Backend: cache.BackendMemory, DefaultTTL: time.Minute, MaxEntries: 100})
	if err != nil {
		t.Fatalf("failed to create memory cache: %v", err)
	}
	mc := matrixcache.New(backend, time.Minute)
	builder := matrix.NewBuilder(
		config.MatrixConfig{Source: matrix.SourceHaversine, CacheEnabled: true, CacheTTL: time.Minute},
		config.RoutingAPIConfig{},
		config.RetryConfig{},
		mc,
	)
	rc := resultcache.New(backend, time.Minute)
	return NewService(builder, rc, vrpsolver.DefaultOptions(), time.Minute)
}

func TestDepotIndex_PrefersFlaggedDepot(t *testing.T) {
	locations := []domain.Location{
		{ID: "a"},
		{ID: "b", IsDepot: true},
		{ID: "c"},
	}
	if got := DepotIndex(locations); got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
}

func TestDepotIndex_DefaultsToZero(t *testing.T) {
	locations := []domain.Location{{ID: "a"}, {ID: "b"}}
	if got := DepotIndex(locations); got != 0 {
		t.Fatalf("expected index 0, got %d", got)
	}
}

func TestOptimize_ValidationFailure_ReturnsErrorStatus(t *testing.T) {
	svc := newTestService(t)
	req := Request{
		Deliveries: []domain.Delivery{{ID: "d1", LocationID: "nowhere", Demand: 1}},
	}

	result := svc.Optimize(context.Background(), req)

	if result.Status != domain.StatusError {
		t.Fatalf("expected error status, got %s", result.Status)
	}
	if len(result.UnassignedDeliveries) != 1 || result.UnassignedDeliveries[0] != "d1" {
		t.Fatalf("expected d1 marked unassigned, got %v", result.UnassignedDeliveries)
	}
}

func TestOptimize_EmptyDeliveries_ReturnsSuccess(t *testing.T) {
	svc := newTestService(t)
	req := Request{
		Locations: []domain.Location{
			{ID: "depot", Latitude: 40.0, Longitude: -74.0, IsDepot: true},
		},
		Vehicles: []domain.Vehicle{
			{ID: "v1", Capacity: 10, StartLocationID: "depot", EndLocationID: "depot"},
		},
	}

	result := svc.Optimize(context.Background(), req)

	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected success status, got %s (%v)", result.Status, result.Statistics)
	}
	if len(result.Routes) != 1 {
		t.Fatalf("expected one trivial route, got %v", result.Routes)
	}
}
