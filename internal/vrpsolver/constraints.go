package vrpsolver

import (
	"github.com/nextmv-io/sdk/route"
)

// skillsConstraint rejects a vehicle's route if any stop on it requires a
// skill the vehicle does not have. Depot start/end positions carry no
// requirement and are always satisfied.
type skillsConstraint struct {
	// requiredSkills[stopIndex] is the set of skills that stop's deliveries
	// require; nil/empty means no requirement.
	requiredSkills [][]string
	// vehicleSkills[vehicleIndex] is the set of skills that vehicle offers.
	vehicleSkills [][]string
	vehicleIndex  map[string]int
}

// newSkillsConstraint builds a skillsConstraint from per-stop requirements
// and per-vehicle offerings, both keyed by the same index space used by the
// router (stop position in the stops slice, vehicle position in the
// vehicles slice).
func newSkillsConstraint(requiredSkills [][]string, vehicleIDs []string, vehicleSkills [][]string) skillsConstraint {
	index := make(map[string]int, len(vehicleIDs))
	for i, id := range vehicleIDs {
		index[id] = i
	}
	return skillsConstraint{
		requiredSkills: requiredSkills,
		vehicleSkills:  vehicleSkills,
		vehicleIndex:   index,
	}
}

// Violated implements route.VehicleConstraint. It is checked for every
// vehicle whose partial route changed since the last check.
func (c skillsConstraint) Violated(vehicle route.PartialVehicle) (route.VehicleConstraint, bool) {
	idx, ok := c.vehicleIndex[vehicle.ID()]
	if !ok {
		return c, false
	}
	offered := skillSet(c.vehicleSkills[idx])

	stops := vehicle.Route()
	// stops[0] and stops[len-1] are the vehicle's start/end positions, not
	// real stops with delivery requirements.
	for i := 1; i < len(stops)-1; i++ {
		stopIdx := stops[i]
		if stopIdx < 0 || stopIdx >= len(c.requiredSkills) {
			continue
		}
		for _, skill := range c.requiredSkills[stopIdx] {
			if !offered[skill] {
				return c, true
			}
		}
	}
	return c, false
}

func skillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[s] = true
	}
	return set
}
