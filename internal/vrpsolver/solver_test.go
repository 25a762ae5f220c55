package vrpsolver

import (
	"context"
	"testing"

	"github.com/routingcore/routingcore/internal/domain"
)

func sampleLocationsAndVehicles() ([]domain.Location, []domain.Vehicle) {
	locations := []domain.Location{
		{ID: "depot", Latitude: 40.0, Longitude: -74.0, IsDepot: true},
		{ID: "stop1", Latitude: 40.1, Longitude: -74.1},
		{ID: "stop2", Latitude: 40.2, Longitude: -74.2},
	}
	vehicles := []domain.Vehicle{
		{ID: "v1", Capacity: 100, StartLocationID: "depot", EndLocationID: "depot", CostPerKM: 1.0},
	}
	return locations, vehicles
}

func TestRun_UnresolvedVehicleLocation_Fails(t *testing.T) {
	locations, vehicles := sampleLocationsAndVehicles()
	vehicles[0].StartLocationID = "missing-depot"
	deliveries := []domain.Delivery{{ID: "d1", LocationID: "stop1", Demand: 1}}

	result := Solve(context.Background(), &domain.DistanceMatrix{}, locations, vehicles, deliveries, DefaultOptions())

	if result.Status != domain.StatusFailed {
		t.Fatalf("expected status failed, got %s", result.Status)
	}
	if len(result.UnassignedDeliveries) != 1 || result.UnassignedDeliveries[0] != "d1" {
		t.Fatalf("expected delivery d1 unassigned, got %v", result.UnassignedDeliveries)
	}
}

func TestRun_EmptyDeliveries_ReturnsTrivialRoutes(t *testing.T) {
	locations, vehicles := sampleLocationsAndVehicles()

	result := Solve(context.Background(), &domain.DistanceMatrix{}, locations, vehicles, nil, DefaultOptions())

	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected status success, got %s", result.Status)
	}
	if len(result.Routes) != 1 || len(result.Routes[0]) != 2 {
		t.Fatalf("expected one trivial start->end route, got %v", result.Routes)
	}
	if result.Routes[0][0] != "depot" || result.Routes[0][1] != "depot" {
		t.Fatalf("expected depot->depot route, got %v", result.Routes[0])
	}
	if info, _ := result.Statistics["info"].(string); info == "" {
		t.Fatal("expected statistics.info to describe the empty-problem case")
	}
}

func TestUnresolvedVehicle_AllKnown(t *testing.T) {
	locations, vehicles := sampleLocationsAndVehicles()
	if got := unresolvedVehicle(locations, vehicles); got != "" {
		t.Fatalf("expected no unresolved vehicle, got %q", got)
	}
}

func TestUnresolvedVehicle_UnknownEnd(t *testing.T) {
	locations, vehicles := sampleLocationsAndVehicles()
	vehicles[0].EndLocationID = "nowhere"
	if got := unresolvedVehicle(locations, vehicles); got != "nowhere" {
		t.Fatalf("expected nowhere, got %q", got)
	}
}

func buildSampleProblem() *problem {
	locations, vehicles := sampleLocationsAndVehicles()
	deliveries := []domain.Delivery{
		{ID: "d1", LocationID: "stop1", Demand: 1},
		{ID: "d2", LocationID: "stop2", Demand: 2},
	}
	dm := &domain.DistanceMatrix{
		LocationIDs: []string{"depot", "stop1", "stop2"},
		Distance: [][]float64{
			{0, 10, 20},
			{10, 0, 15},
			{20, 15, 0},
		},
	}
	return buildProblem(locations, vehicles, deliveries, dm, DefaultOptions(), false)
}

func TestBuildProblem_GlobalIDsLayout(t *testing.T) {
	p := buildSampleProblem()
	// stops, then per-vehicle start/end.
	want := []string{"stop1", "stop2", "depot", "depot"}
	if len(p.globalIDs) != len(want) {
		t.Fatalf("expected %d global ids, got %d (%v)", len(want), len(p.globalIDs), p.globalIDs)
	}
	for i, id := range want {
		if p.globalIDs[i] != id {
			t.Fatalf("globalIDs[%d] = %q, want %q", i, p.globalIDs[i], id)
		}
	}
}

func TestBuildProblem_DemandsScaled(t *testing.T) {
	p := buildSampleProblem()
	if p.stopDemands[0] != int(1*float64(domain.CapacityScalingFactor)) {
		t.Fatalf("unexpected scaled demand for stop1: %d", p.stopDemands[0])
	}
	if p.stopDemands[1] != int(2*float64(domain.CapacityScalingFactor)) {
		t.Fatalf("unexpected scaled demand for stop2: %d", p.stopDemands[1])
	}
}

func TestRouteDistanceKM_SumsConsecutiveArcs(t *testing.T) {
	p := buildSampleProblem()
	got := routeDistanceKM(p, []string{"depot", "stop1", "stop2", "depot"}, DefaultOptions())
	want := 10.0 + 15.0 + 20.0
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAssembleResult_MarksUnvisitedDeliveriesUnassigned(t *testing.T) {
	p := buildSampleProblem()
	vehicles := p.vehicles
	deliveries := []domain.Delivery{
		{ID: "d1", LocationID: "stop1", Demand: 1},
		{ID: "d2", LocationID: "stop2", Demand: 2},
	}
	raw := &solveResult{
		routes: [][]string{{"depot", "stop1", "depot"}},
		found:  true,
	}

	result := assembleResult(p, raw, deliveries, vehicles, DefaultOptions())

	if result.Status != domain.StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if len(result.UnassignedDeliveries) != 1 || result.UnassignedDeliveries[0] != "d2" {
		t.Fatalf("expected d2 unassigned, got %v", result.UnassignedDeliveries)
	}
	if len(result.DetailedRoutes) != 1 || result.DetailedRoutes[0].VehicleID != "v1" {
		t.Fatalf("unexpected detailed routes: %v", result.DetailedRoutes)
	}
}

func TestAssembleResult_SkipsTrivialRoutes(t *testing.T) {
	p := buildSampleProblem()
	raw := &solveResult{
		routes: [][]string{{"depot", "depot"}},
		found:  true,
	}
	deliveries := []domain.Delivery{{ID: "d1", LocationID: "stop1", Demand: 1}}

	result := assembleResult(p, raw, deliveries, p.vehicles, DefaultOptions())

	if len(result.Routes) != 0 {
		t.Fatalf("expected trivial route to be dropped, got %v", result.Routes)
	}
	if len(result.UnassignedDeliveries) != 1 {
		t.Fatalf("expected d1 unassigned, got %v", result.UnassignedDeliveries)
	}
}
