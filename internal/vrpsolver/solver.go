// Package vrpsolver wraps the nextmv constraint-programming router behind
// the fixed encoding rules the rest of the pipeline depends on: integer
// scaling, capacity as a cumulative dimension, skills as a vehicle
// constraint, and an optional time-window dimension.
package vrpsolver

import (
	"context"
	"math"

	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/domain"
)

// Solve runs the plain (no time-window) variant of the VRP over a prebuilt
// distance matrix, optionally paired with a time matrix.
func Solve(
	ctx context.Context,
	dm *domain.DistanceMatrix,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	deliveries []domain.Delivery,
	opts Options,
) *domain.OptimizationResult {
	return run(ctx, dm, locations, vehicles, deliveries, opts, false)
}

// SolveWithTimeWindows runs the VRP with the time-window dimension enabled,
// using locations' TimeWindowStart/TimeWindowEnd/ServiceTime fields and the
// given average speed to estimate travel time where no time matrix exists.
func SolveWithTimeWindows(
	ctx context.Context,
	dm *domain.DistanceMatrix,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	deliveries []domain.Delivery,
	speedKMPerHour float64,
	opts Options,
) *domain.OptimizationResult {
	opts.AverageSpeedKMH = speedKMPerHour
	return run(ctx, dm, locations, vehicles, deliveries, opts, true)
}

func run(
	ctx context.Context,
	dm *domain.DistanceMatrix,
	locations []domain.Location,
	vehicles []domain.Vehicle,
	deliveries []domain.Delivery,
	opts Options,
	considerTimeWindows bool,
) *domain.OptimizationResult {
	deliveryIDs := deliveryIDs(deliveries)

	if missing := unresolvedVehicle(locations, vehicles); missing != "" {
		return domain.NewFailedResult(deliveryIDs, "vehicle references unknown location id: "+missing)
	}

	if len(deliveries) == 0 {
		return emptyProblemResult(locations, vehicles)
	}

	p := buildProblem(locations, vehicles, deliveries, dm, opts, considerTimeWindows)

	result, err := solve(ctx, p, opts)
	if err != nil {
		return domain.NewFailedResult(deliveryIDs, err.Error())
	}
	if !result.found {
		return domain.NewFailedResult(deliveryIDs, apperror.New(apperror.CodeSolverNoSolution, "solver found no feasible solution").Error())
	}

	return assembleResult(p, result, deliveries, vehicles, opts)
}

// unresolvedVehicle returns the first location id referenced by a vehicle's
// start or end that does not resolve against locations, or "" if all do.
func unresolvedVehicle(locations []domain.Location, vehicles []domain.Vehicle) string {
	known := make(map[string]bool, len(locations))
	for _, loc := range locations {
		known[loc.ID] = true
	}
	for _, v := range vehicles {
		if !known[v.StartLocationID] {
			return v.StartLocationID
		}
		if end := v.EffectiveEndLocationID(); !known[end] {
			return end
		}
	}
	return ""
}

// emptyProblemResult handles the empty-delivery special case: one trivial
// start->end route per vehicle, no cost, success status.
func emptyProblemResult(locations []domain.Location, vehicles []domain.Vehicle) *domain.OptimizationResult {
	routes := make([][]string, len(vehicles))
	detailed := make([]domain.DetailedRoute, len(vehicles))
	assigned := make(map[string]int, len(vehicles))
	for i, v := range vehicles {
		stops := []string{v.StartLocationID, v.EffectiveEndLocationID()}
		routes[i] = stops
		assigned[v.ID] = 0
		detailed[i] = domain.DetailedRoute{
			VehicleID:           v.ID,
			Stops:               stops,
			Segments:            []domain.RouteSegment{},
			TotalDistance:       0,
			TotalTime:           0,
			CapacityUtilization: 0,
		}
	}
	_ = locations
	return &domain.OptimizationResult{
		Status:               domain.StatusSuccess,
		Routes:               routes,
		TotalDistance:        0,
		TotalCost:            0,
		AssignedVehicles:     assigned,
		UnassignedDeliveries: []string{},
		DetailedRoutes:       detailed,
		Statistics:           map[string]any{"info": "Empty problem: direct depot-to-depot routes created"},
	}
}

// assembleResult converts the raw solver output into the pipeline's
// OptimizationResult shape: per-vehicle routes, accumulated km cost, and
// unassigned-delivery detection.
func assembleResult(p *problem, raw *solveResult, deliveries []domain.Delivery, vehicles []domain.Vehicle, opts Options) *domain.OptimizationResult {
	visited := make(map[string]bool)
	routes := make([][]string, 0, len(raw.routes))
	detailed := make([]domain.DetailedRoute, 0, len(raw.routes))
	assigned := make(map[string]int, len(vehicles))
	totalDistance := 0.0

	for i, stopIDs := range raw.routes {
		if i >= len(vehicles) {
			break
		}
		v := vehicles[i]

		isTrivial := len(stopIDs) <= 2
		for _, id := range stopIDs {
			if id != v.StartLocationID && id != v.EffectiveEndLocationID() {
				visited[id] = true
			}
		}

		if isTrivial {
			continue
		}

		routeDistance := routeDistanceKM(p, stopIDs, opts)
		routes = append(routes, stopIDs)
		assigned[v.ID] = len(stopIDs)
		totalDistance += routeDistance

		detailed = append(detailed, domain.DetailedRoute{
			VehicleID:           v.ID,
			Stops:               stopIDs,
			Segments:            []domain.RouteSegment{},
			TotalDistance:       routeDistance,
			TotalTime:           0,
			CapacityUtilization: 0,
		})
	}

	var unassigned []string
	for _, d := range deliveries {
		if !visited[d.LocationID] {
			unassigned = append(unassigned, d.ID)
		}
	}
	if unassigned == nil {
		unassigned = []string{}
	}

	return &domain.OptimizationResult{
		Status:               domain.StatusSuccess,
		Routes:               routes,
		TotalDistance:        totalDistance,
		TotalCost:            0,
		AssignedVehicles:     assigned,
		UnassignedDeliveries: unassigned,
		DetailedRoutes:       detailed,
		Statistics:           map[string]any{},
	}
}

// routeDistanceKM sums the raw (unscaled) distance along consecutive stop
// ids in the router's global index space.
func routeDistanceKM(p *problem, stopIDs []string, opts Options) float64 {
	idx := make(map[string]int, len(p.globalIDs))
	for i, id := range p.globalIDs {
		idx[id] = i
	}
	total := 0.0
	for i := 0; i+1 < len(stopIDs); i++ {
		a, aok := idx[stopIDs[i]]
		b, bok := idx[stopIDs[i+1]]
		if !aok || !bok {
			continue
		}
		total += p.rawDistanceMatrix[a][b]
	}
	return math.Round(total*1000) / 1000
}

func deliveryIDs(deliveries []domain.Delivery) []string {
	out := make([]string, len(deliveries))
	for i, d := range deliveries {
		out[i] = d.ID
	}
	return out
}
