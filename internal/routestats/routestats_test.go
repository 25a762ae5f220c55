package routestats

import (
	"testing"

	"github.com/routingcore/routingcore/internal/domain"
)

func TestCompute_AggregatesCostAndSummary(t *testing.T) {
	result := &domain.OptimizationResult{
		DetailedRoutes: []domain.DetailedRoute{
			{
				VehicleID: "v1",
				Stops:     []string{"depot", "stop1", "depot"},
				Segments: []domain.RouteSegment{
					{Distance: 10},
					{Distance: 10},
				},
			},
		},
	}
	vehicles := []domain.Vehicle{
		{ID: "v1", Capacity: 100, CostPerKM: 2.0, FixedCost: 5.0},
	}
	demand := map[string]float64{"stop1": 20}

	Compute(result, vehicles, demand)

	if result.TotalCost != 45.0 {
		t.Fatalf("expected total cost 45 (5 fixed + 40 variable), got %v", result.TotalCost)
	}
	vc, ok := result.Statistics["vehicle_costs"].(map[string]VehicleCost)
	if !ok {
		t.Fatalf("expected vehicle_costs map, got %T", result.Statistics["vehicle_costs"])
	}
	if vc["v1"].Cost != 45.0 {
		t.Fatalf("expected v1 cost 45, got %v", vc["v1"].Cost)
	}
	summary, ok := result.Statistics["summary"].(Summary)
	if !ok {
		t.Fatalf("expected Summary, got %T", result.Statistics["summary"])
	}
	if summary.TotalDistance != 20 {
		t.Fatalf("expected total distance 20, got %v", summary.TotalDistance)
	}
	if summary.TotalStops != 3 {
		t.Fatalf("expected 3 total stops, got %d", summary.TotalStops)
	}
}

func TestCompute_UnmatchedVehicleContributesDistanceNotCost(t *testing.T) {
	result := &domain.OptimizationResult{
		DetailedRoutes: []domain.DetailedRoute{
			{
				VehicleID: "ghost",
				Stops:     []string{"depot", "stop1"},
				Segments:  []domain.RouteSegment{{Distance: 15}},
			},
		},
	}

	Compute(result, nil, nil)

	if result.TotalCost != 0 {
		t.Fatalf("expected zero cost for unmatched vehicle, got %v", result.TotalCost)
	}
	summary := result.Statistics["summary"].(Summary)
	if summary.TotalDistance != 15 {
		t.Fatalf("expected distance 15 to still be counted, got %v", summary.TotalDistance)
	}
	vc := result.Statistics["vehicle_costs"].(map[string]VehicleCost)
	if _, ok := vc["ghost"]; ok {
		t.Fatal("expected unmatched vehicle to have no cost entry")
	}
}

func TestCompute_CapacityUtilizationClampedAtOne(t *testing.T) {
	result := &domain.OptimizationResult{
		DetailedRoutes: []domain.DetailedRoute{
			{VehicleID: "v1", Stops: []string{"stop1"}, Segments: []domain.RouteSegment{}},
		},
	}
	vehicles := []domain.Vehicle{{ID: "v1", Capacity: 10}}
	demand := map[string]float64{"stop1": 50}

	Compute(result, vehicles, demand)

	if result.DetailedRoutes[0].CapacityUtilization != 1.0 {
		t.Fatalf("expected utilization clamped to 1.0, got %v", result.DetailedRoutes[0].CapacityUtilization)
	}
}

func TestGradeForUtilization_Bands(t *testing.T) {
	cases := map[float64]EfficiencyGrade{
		0.9: GradeA,
		0.7: GradeB,
		0.5: GradeC,
		0.3: GradeD,
		0.1: GradeF,
	}
	for util, want := range cases {
		if got := gradeForUtilization(util); got != want {
			t.Fatalf("utilization %v: expected %v, got %v", util, want, got)
		}
	}
}
