package vrpsolver

import "github.com/nextmv-io/sdk/route"

// windowConstraint checks time-window feasibility along a vehicle's route
// by simulating arrival times with the problem's travel-time matrix (or a
// distance/average-speed estimate when no time matrix was built), the
// same slack-for-waiting and cumulative-bound semantics a CP time
// dimension would enforce, implemented as a route.VehicleConstraint
// predicate since nextmv's v1 router does not expose a raw per-node
// cumulative-variable API to set bounds on directly.
type windowConstraint struct {
	globalIDs    []string
	locationByID map[string]domainLocationLookup
	timeMatrix   [][]float64
	costMatrix   [][]float64
	avgSpeedKMH  float64
	slackMinutes int
}

// domainLocationLookup holds only the fields windowConstraint needs,
// avoiding an import cycle concern with the domain package's fuller type.
type domainLocationLookup struct {
	hasWindow   bool
	windowStart int
	windowEnd   int
	serviceTime int
}

func newWindowConstraint(p *problem) windowConstraint {
	lookup := make(map[string]domainLocationLookup, len(p.locationByID))
	for id, loc := range p.locationByID {
		l := domainLocationLookup{serviceTime: loc.ServiceTime}
		if loc.HasTimeWindow() {
			l.hasWindow = true
			l.windowStart = *loc.TimeWindowStart
			l.windowEnd = *loc.TimeWindowEnd
		}
		lookup[id] = l
	}

	return windowConstraint{
		globalIDs:    p.globalIDs,
		locationByID: lookup,
		timeMatrix:   p.timeMatrix,
		costMatrix:   p.rawDistanceMatrix,
		avgSpeedKMH:  p.avgSpeedKMH,
		slackMinutes: p.slackMinutes,
	}
}

// Violated implements route.VehicleConstraint.
func (w windowConstraint) Violated(vehicle route.PartialVehicle) (route.VehicleConstraint, bool) {
	stopIdx := vehicle.Route()
	if len(stopIdx) < 2 {
		return w, false
	}

	clock := 0.0
	for i := 0; i < len(stopIdx); i++ {
		idx := stopIdx[i]
		if idx < 0 || idx >= len(w.globalIDs) {
			continue
		}
		id := w.globalIDs[idx]

		if i > 0 {
			prevIdx := stopIdx[i-1]
			clock += w.travelMinutes(prevIdx, idx)
		}

		loc, ok := w.locationByID[id]
		if !ok {
			continue
		}
		if loc.hasWindow {
			if clock < float64(loc.windowStart) {
				if float64(loc.windowStart)-clock > float64(w.slackMinutes) {
					return w, true
				}
				clock = float64(loc.windowStart)
			}
			if clock > float64(loc.windowEnd) {
				return w, true
			}
		}
		clock += float64(loc.serviceTime)
	}
	return w, false
}

// travelMinutes returns the travel time between two global-index stops,
// using the precomputed time matrix when available, else deriving it from
// the distance matrix and the configured average speed.
func (w windowConstraint) travelMinutes(from, to int) float64 {
	if w.timeMatrix != nil && from >= 0 && from < len(w.timeMatrix) && to >= 0 && to < len(w.timeMatrix[from]) {
		return w.timeMatrix[from][to]
	}
	if w.costMatrix == nil || w.avgSpeedKMH <= 0 {
		return 0
	}
	if from < 0 || from >= len(w.costMatrix) || to < 0 || to >= len(w.costMatrix[from]) {
		return 0
	}
	return w.costMatrix[from][to] / w.avgSpeedKMH * 60.0
}
