package vrpsolver

import "github.com/nextmv-io/sdk/route"

// vehicleUpdater is a no-op route.VehicleUpdater. Per-vehicle cost is
// already captured by the router's value-function measures; this updater
// exists only so fleetSpanUpdater can be installed via route.Update, which
// requires both halves of the pair.
type vehicleUpdater struct{}

// Update implements route.VehicleUpdater.
func (u vehicleUpdater) Update(route.PartialVehicle) (route.VehicleUpdater, int, bool) {
	return u, 0, false
}

// fleetSpanUpdater approximates GlobalSpanCostCoefficient load balancing:
// nextmv's v1 router does not expose OR-Tools' span dimension directly, so
// the fleet-level value function is biased by spanCoefficient times the
// spread between the most- and least-loaded vehicle, plus a per-unassigned
// penalty, reproducing the same "spread work evenly, prefer everything
// assigned" pressure on the search.
type fleetSpanUpdater struct {
	vehicleValues     map[string]int
	fleetValue        int
	minValue          int
	maxValue          int
	unassignedCount   int
	spanCoefficient   int
	unassignedPenalty int
}

// newFleetSpanUpdater seeds a fleetSpanUpdater with the given span
// coefficient and per-unassigned-stop penalty.
func newFleetSpanUpdater(spanCoefficient, unassignedPenalty int) fleetSpanUpdater {
	return fleetSpanUpdater{
		vehicleValues:     make(map[string]int),
		spanCoefficient:   spanCoefficient,
		unassignedPenalty: unassignedPenalty,
	}
}

// Update implements route.PlanUpdater, folding span and unassigned-count
// pressure into the plan's aggregate value.
func (f fleetSpanUpdater) Update(p route.PartialPlan, vehicles []route.PartialVehicle) (route.PlanUpdater, int, bool) {
	oldSpan := f.maxValue - f.minValue

	for _, v := range vehicles {
		id := v.ID()
		value := v.Value()

		if old, ok := f.vehicleValues[id]; ok {
			f.fleetValue -= old
		}
		f.vehicleValues[id] = value
		f.fleetValue += value

		if value > f.maxValue {
			f.maxValue = value
		}
		if value < f.minValue || f.minValue == 0 {
			f.minValue = value
		}
	}

	newSpan := f.maxValue - f.minValue
	f.fleetValue -= oldSpan * f.spanCoefficient
	f.fleetValue += newSpan * f.spanCoefficient

	f.fleetValue -= f.unassignedCount * f.unassignedPenalty
	f.unassignedCount = p.Unassigned().Len()
	f.fleetValue += f.unassignedCount * f.unassignedPenalty

	return f, f.fleetValue, true
}
