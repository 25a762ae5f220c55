// Package routestats computes per-vehicle and fleet-level cost and
// efficiency statistics over an annotated OptimizationResult.
package routestats

import "github.com/routingcore/routingcore/internal/domain"

// VehicleCost is the per-vehicle cost breakdown recorded under
// statistics.vehicle_costs[vehicle_id].
type VehicleCost struct {
	FixedCost   float64 `json:"fixed_cost"`
	VariableCost float64 `json:"variable_cost"`
	Cost        float64 `json:"cost"`
	TotalCost   float64 `json:"total_cost"`
	Distance    float64 `json:"distance"`
}

// Summary is recorded under statistics.summary.
type Summary struct {
	TotalStops    int     `json:"total_stops"`
	TotalDistance float64 `json:"total_distance"`
	TotalVehicles int     `json:"total_vehicles"`
	TotalCost     float64 `json:"total_cost"`
}

// EfficiencyGrade bands the fleet's average capacity utilization the same
// way the network-graph efficiency report does.
type EfficiencyGrade string

const (
	GradeA EfficiencyGrade = "A"
	GradeB EfficiencyGrade = "B"
	GradeC EfficiencyGrade = "C"
	GradeD EfficiencyGrade = "D"
	GradeF EfficiencyGrade = "F"
)

// gradeForUtilization applies the same thresholds the network-statistics
// efficiency report uses for consistency across the codebase.
func gradeForUtilization(u float64) EfficiencyGrade {
	switch {
	case u >= 0.8:
		return GradeA
	case u >= 0.6:
		return GradeB
	case u >= 0.4:
		return GradeC
	case u >= 0.2:
		return GradeD
	default:
		return GradeF
	}
}

// Compute mutates result in place: fills each detailed route's
// TotalDistance/CapacityUtilization from its segments and the matching
// vehicle, aggregates TotalCost on the result, and populates
// statistics.vehicle_costs, statistics.summary and
// statistics.fleet_efficiency_grade. Routes whose vehicle_id has no match
// in vehicles still contribute to stop/distance totals, but not to cost.
func Compute(result *domain.OptimizationResult, vehicles []domain.Vehicle, deliveryDemand map[string]float64) {
	vehicleByID := make(map[string]domain.Vehicle, len(vehicles))
	for _, v := range vehicles {
		vehicleByID[v.ID] = v
	}

	vehicleCosts := make(map[string]VehicleCost)
	summary := Summary{TotalVehicles: len(vehicles)}

	var totalCost float64
	var totalUtilization float64
	var utilizationCount int

	for i := range result.DetailedRoutes {
		route := &result.DetailedRoutes[i]

		routeDistance := 0.0
		for _, seg := range route.Segments {
			routeDistance += seg.Distance
		}
		route.TotalDistance = routeDistance

		summary.TotalStops += len(route.Stops)
		summary.TotalDistance += routeDistance

		v, ok := vehicleByID[route.VehicleID]
		if !ok {
			continue
		}

		variable := routeDistance * v.CostPerKM
		cost := v.FixedCost + variable
		totalCost += cost

		vehicleCosts[route.VehicleID] = VehicleCost{
			FixedCost:    v.FixedCost,
			VariableCost: variable,
			Cost:         cost,
			TotalCost:    cost,
			Distance:     routeDistance,
		}

		if v.Capacity > 0 {
			demand := routeDemand(route.Stops, deliveryDemand)
			util := demand / v.Capacity
			if util > 1 {
				util = 1
			}
			route.CapacityUtilization = util
			totalUtilization += util
			utilizationCount++
		}
	}

	summary.TotalCost = totalCost

	result.TotalCost = totalCost
	if result.Statistics == nil {
		result.Statistics = map[string]any{}
	}
	result.Statistics["vehicle_costs"] = vehicleCosts
	result.Statistics["summary"] = summary

	if utilizationCount > 0 {
		result.Statistics["fleet_efficiency_grade"] = gradeForUtilization(totalUtilization / float64(utilizationCount))
	} else {
		result.Statistics["fleet_efficiency_grade"] = gradeForUtilization(0)
	}
}

// routeDemand sums the demand delivered at each stop on a route, using an
// id->demand lookup built by the caller from the original delivery list.
func routeDemand(stops []string, deliveryDemand map[string]float64) float64 {
	var total float64
	for _, id := range stops {
		total += deliveryDemand[id]
	}
	return total
}
