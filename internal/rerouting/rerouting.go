// Package rerouting re-plans an in-progress fleet assignment after traffic,
// a reported delay, or a roadblock, by advancing each vehicle's effective
// start point past its already-completed stops and re-invoking the
// optimization pipeline over what remains.
package rerouting

import (
	"context"

	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/optimization"
)

// Optimizer is the subset of optimization.Service rerouting depends on,
// kept as an interface so tests can substitute a fake.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.Request) *domain.OptimizationResult
}

// Service re-plans a current assignment against one of three causes.
type Service struct {
	optimizer Optimizer
}

// NewService builds a rerouting Service over an Optimizer.
func NewService(optimizer Optimizer) *Service {
	return &Service{optimizer: optimizer}
}

// RerouteForTraffic re-solves the remaining deliveries with the supplied
// traffic factors applied.
func (s *Service) RerouteForTraffic(
	ctx context.Context,
	current *domain.OptimizationResult,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	originalDeliveries []domain.Delivery,
	completedDeliveries []domain.Delivery,
	trafficFactors map[string]float64,
) *domain.OptimizationResult {
	remaining, vehiclesFromHere := preamble(current, vehicles, originalDeliveries, completedDeliveries)

	result := s.optimize(ctx, locations, vehiclesFromHere, remaining, optimization.Request{
		ConsiderTraffic: true,
		TrafficFactors:  trafficFactors,
	})

	return withReport(result, domain.ReroutingInfo{
		Reason:              "traffic",
		TrafficFactors:      len(trafficFactors),
		CompletedDeliveries: len(completedDeliveries),
		RemainingDeliveries: len(remaining),
	})
}

// RerouteForDelay re-solves with added service time at the delayed
// locations and the time-window dimension enabled.
func (s *Service) RerouteForDelay(
	ctx context.Context,
	current *domain.OptimizationResult,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	originalDeliveries []domain.Delivery,
	completedDeliveries []domain.Delivery,
	delayedLocationIDs []string,
	delayMinutes map[string]int,
) *domain.OptimizationResult {
	remaining, vehiclesFromHere := preamble(current, vehicles, originalDeliveries, completedDeliveries)

	adjusted := applyDelays(locations, delayMinutes)

	result := s.optimize(ctx, adjusted, vehiclesFromHere, remaining, optimization.Request{
		ConsiderTimeWindows: true,
	})

	return withReport(result, domain.ReroutingInfo{
		Reason:              "delay",
		CompletedDeliveries: len(completedDeliveries),
		RemainingDeliveries: len(remaining),
		DelayLocations:      append([]string{}, delayedLocationIDs...),
	})
}

// RerouteForRoadblock re-solves after giving each blocked (from, to) pair, in
// both directions, the largest traffic factor the matrix builder accepts
// (domain.MaxSafeTrafficFactor, 5.0). A blocked segment then costs five
// times its normal distance and time; it is penalised, not removed, so the
// solver can still route over it.
func (s *Service) RerouteForRoadblock(
	ctx context.Context,
	current *domain.OptimizationResult,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	originalDeliveries []domain.Delivery,
	completedDeliveries []domain.Delivery,
	blockedSegments [][2]string,
) *domain.OptimizationResult {
	remaining, vehiclesFromHere := preamble(current, vehicles, originalDeliveries, completedDeliveries)

	factors := make(map[string]float64, len(blockedSegments)*2)
	for _, pair := range blockedSegments {
		from, to := pair[0], pair[1]
		factors[matrix.TrafficFactorKey(from, to)] = domain.MaxSafeTrafficFactor
		factors[matrix.TrafficFactorKey(to, from)] = domain.MaxSafeTrafficFactor
	}

	result := s.optimize(ctx, locations, vehiclesFromHere, remaining, optimization.Request{
		ConsiderTraffic: true,
		TrafficFactors:  factors,
	})

	return withReport(result, domain.ReroutingInfo{
		Reason:              "roadblock",
		CompletedDeliveries: len(completedDeliveries),
		RemainingDeliveries: len(remaining),
		BlockedSegments:     append([][2]string{}, blockedSegments...),
	})
}

// optimize calls the optimizer and guarantees exceptions never escape:
// the optimization.Service's own Optimize already reports failures inline,
// so this exists only to fill in the shared Request fields.
func (s *Service) optimize(ctx context.Context, locations []domain.Location, vehicles []domain.Vehicle, deliveries []domain.Delivery, partial optimization.Request) *domain.OptimizationResult {
	req := partial
	req.Locations = locations
	req.Vehicles = vehicles
	req.Deliveries = deliveries
	return s.optimizer.Optimize(ctx, req)
}

// preamble computes the remaining deliveries and a copy of vehicles whose
// StartLocationID has been advanced past each one's last completed stop.
// Input slices are never mutated.
func preamble(
	current *domain.OptimizationResult,
	vehicles []domain.Vehicle,
	originalDeliveries []domain.Delivery,
	completedDeliveries []domain.Delivery,
) ([]domain.Delivery, []domain.Vehicle) {
	completedIDs := make(map[string]bool, len(completedDeliveries))
	completedLocations := make(map[string]bool, len(completedDeliveries))
	for _, d := range completedDeliveries {
		completedIDs[d.ID] = true
		completedLocations[d.LocationID] = true
	}

	remaining := make([]domain.Delivery, 0, len(originalDeliveries))
	for _, d := range originalDeliveries {
		if !completedIDs[d.ID] {
			remaining = append(remaining, d)
		}
	}

	routeByVehicle := make(map[string][]string, len(current.DetailedRoutes))
	for _, r := range current.DetailedRoutes {
		routeByVehicle[r.VehicleID] = r.Stops
	}

	advanced := make([]domain.Vehicle, len(vehicles))
	copy(advanced, vehicles)
	for i, v := range advanced {
		stops := routeByVehicle[v.ID]
		lastCompleted := -1
		for idx, stopID := range stops {
			if completedLocations[stopID] {
				lastCompleted = idx
			}
		}
		if lastCompleted >= 0 && lastCompleted+1 < len(stops) {
			advanced[i].StartLocationID = stops[lastCompleted+1]
		}
	}

	return remaining, advanced
}

// applyDelays returns a copy of locations with ServiceTime increased at
// the ids present in delayMinutes. Locations not mentioned are untouched.
func applyDelays(locations []domain.Location, delayMinutes map[string]int) []domain.Location {
	out := make([]domain.Location, len(locations))
	copy(out, locations)
	for i, loc := range out {
		if delay, ok := delayMinutes[loc.ID]; ok {
			out[i].ServiceTime += delay
		}
	}
	return out
}

// withReport merges a ReroutingInfo into result.Statistics under the
// "rerouting" key. result is never nil: optimization.Service.Optimize
// always returns a non-nil result, even on failure.
func withReport(result *domain.OptimizationResult, info domain.ReroutingInfo) *domain.OptimizationResult {
	if result.Statistics == nil {
		result.Statistics = map[string]any{}
	}
	result.Statistics["rerouting"] = info
	return result
}
