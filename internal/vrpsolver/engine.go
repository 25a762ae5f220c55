package vrpsolver

import (
	"context"
	"math"

	"github.com/nextmv-io/sdk/measure"
	"github.com/nextmv-io/sdk/route"
	"github.com/nextmv-io/sdk/store"

	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/domain"
)

// problem is the fully-resolved, index-aligned input to the nextmv router:
// scaled demands and capacities, the global index space, and the aligned
// cost/time matrices, already validated.
type problem struct {
	stopLocationIDs []string   // one per unique delivered-to location
	stopDemands     []int      // scaled signed demand per stop
	requiredSkills  [][]string // skills required at each stop, aligned to stopLocationIDs
	vehicles        []domain.Vehicle
	capacities      []int // scaled, per vehicle
	penalties       []int // per-stop unassigned penalty

	// globalIDs is the full index space the router operates on: stops,
	// followed by each vehicle's start then end location, in vehicle
	// order -- matching how nextmv's router appends vehicle endpoints
	// after stops when building point/measure index spaces.
	globalIDs         []string
	costMatrix        [][]float64 // scaled distance, aligned to globalIDs, fed to the solver's measures
	rawDistanceMatrix [][]float64 // unscaled km, aligned to globalIDs, used for time-window estimation
	timeMatrix        [][]float64 // minutes, aligned to globalIDs (may be nil)
	locationByID      map[string]domain.Location

	considerTimeWindows bool
	slackMinutes        int
	avgSpeedKMH         float64
}

// buildProblem assembles the index-aligned problem from the pipeline's
// domain-level inputs. It does not validate vehicle start/end resolution --
// that is the caller's job (Solve / SolveWithTimeWindows), since a missing
// id is a fast-failure case handled before engine construction.
func buildProblem(
	locations []domain.Location,
	vehicles []domain.Vehicle,
	deliveries []domain.Delivery,
	dm *domain.DistanceMatrix,
	opts Options,
	considerTimeWindows bool,
) *problem {
	locationByID := make(map[string]domain.Location, len(locations))
	for _, loc := range locations {
		locationByID[loc.ID] = loc
	}

	var stopLocationIDs []string
	seen := make(map[string]bool)
	demandByLocation := make(map[string]float64)
	skillsByLocation := make(map[string]map[string]bool)
	for _, d := range deliveries {
		if !seen[d.LocationID] {
			seen[d.LocationID] = true
			stopLocationIDs = append(stopLocationIDs, d.LocationID)
		}
		demandByLocation[d.LocationID] += d.SignedDemand()
		if len(d.RequiredSkills) > 0 {
			set := skillsByLocation[d.LocationID]
			if set == nil {
				set = make(map[string]bool)
				skillsByLocation[d.LocationID] = set
			}
			for _, s := range d.RequiredSkills {
				set[s] = true
			}
		}
	}

	stopDemands := make([]int, len(stopLocationIDs))
	requiredSkills := make([][]string, len(stopLocationIDs))
	for i, id := range stopLocationIDs {
		stopDemands[i] = int(math.Round(demandByLocation[id] * float64(opts.CapacityScalingFactor)))
		for skill := range skillsByLocation[id] {
			requiredSkills[i] = append(requiredSkills[i], skill)
		}
	}

	penalties := make([]int, len(stopLocationIDs))
	for i := range penalties {
		penalties[i] = 100_000 // fixed high skip-penalty so the router only drops a stop as a last resort
	}

	capacities := make([]int, len(vehicles))
	for i, v := range vehicles {
		capacities[i] = int(math.Round(v.Capacity * float64(opts.CapacityScalingFactor)))
	}

	globalIDs := make([]string, 0, len(stopLocationIDs)+2*len(vehicles))
	globalIDs = append(globalIDs, stopLocationIDs...)
	for _, v := range vehicles {
		globalIDs = append(globalIDs, v.StartLocationID, v.EffectiveEndLocationID())
	}

	rawDistanceMatrix := buildAlignedMatrix(globalIDs, dm, 1, opts.MaxSafeDistance)
	costMatrix := buildAlignedMatrix(globalIDs, dm, opts.DistanceScalingFactor, opts.MaxSafeDistance)

	var timeMatrix [][]float64
	if dm.HasTime() {
		timeMatrix = buildAlignedMatrix(globalIDs, &domain.DistanceMatrix{LocationIDs: dm.LocationIDs, Distance: dm.Time}, 1, float64(opts.MaxSafeTimeMinutes))
	}

	return &problem{
		stopLocationIDs:     stopLocationIDs,
		stopDemands:         stopDemands,
		requiredSkills:      requiredSkills,
		vehicles:            vehicles,
		capacities:          capacities,
		penalties:           penalties,
		globalIDs:           globalIDs,
		costMatrix:          costMatrix,
		rawDistanceMatrix:   rawDistanceMatrix,
		timeMatrix:          timeMatrix,
		locationByID:        locationByID,
		considerTimeWindows: considerTimeWindows,
		slackMinutes:        opts.SlackMinutes,
		avgSpeedKMH:         opts.AverageSpeedKMH,
	}
}

// buildAlignedMatrix re-indexes dm (addressed by location id) into the
// globalIDs index space the router uses, scaling and sanitizing each cell.
func buildAlignedMatrix(globalIDs []string, dm *domain.DistanceMatrix, scale int, maxSafe float64) [][]float64 {
	n := len(globalIDs)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i, fromID := range globalIDs {
		fi := dm.IndexOf(fromID)
		for j, toID := range globalIDs {
			if i == j || fi < 0 {
				continue
			}
			tj := dm.IndexOf(toID)
			if tj < 0 {
				continue
			}
			v := dm.Distance[fi][tj] * float64(scale)
			if v > maxSafe*float64(scale) {
				v = maxSafe * float64(scale)
			}
			if v < 0 {
				v = 0
			}
			out[i][j] = v
		}
	}
	return out
}

// solveResult is the raw outcome of running the nextmv router, before
// assembleResult converts it into a domain.OptimizationResult.
type solveResult struct {
	// routes[vehicleIndex] is the ordered list of stop location ids the
	// vehicle visits, start and end included.
	routes            [][]string
	unassignedStopIDs []string
	found             bool
}

// solve runs the nextmv router for a prepared problem and extracts the best
// found solution.
func solve(ctx context.Context, p *problem, opts Options) (*solveResult, error) {
	stops := make([]route.Stop, len(p.stopLocationIDs))
	for i, id := range p.stopLocationIDs {
		loc := p.locationByID[id]
		stops[i] = route.Stop{ID: id, Position: route.Position{Lon: loc.Longitude, Lat: loc.Latitude}}
	}

	vehicleIDs := make([]string, len(p.vehicles))
	starts := make([]route.Position, len(p.vehicles))
	ends := make([]route.Position, len(p.vehicles))
	for i, v := range p.vehicles {
		vehicleIDs[i] = v.ID
		starts[i] = positionOf(p.locationByID[v.StartLocationID])
		ends[i] = positionOf(p.locationByID[v.EffectiveEndLocationID()])
	}

	baseMeasure := measure.Matrix(p.costMatrix)
	distanceMeasures := make([]route.ByIndex, len(p.vehicles))
	for i := range distanceMeasures {
		distanceMeasures[i] = baseMeasure
	}

	skills := newSkillsConstraint(p.requiredSkills, vehicleIDs, vehicleSkills(p.vehicles))
	fleetUpdater := newFleetSpanUpdater(spanCoefficient(opts), 100_000)

	routerOpts := []route.Option{
		route.Starts(starts),
		route.Ends(ends),
		route.Capacity(p.stopDemands, p.capacities),
		route.Unassigned(p.penalties),
		route.ValueFunctionMeasures(distanceMeasures),
		route.Constraint(skills, vehicleIDs),
		route.Update(vehicleUpdater{}, fleetUpdater),
	}
	if p.considerTimeWindows {
		tw := newWindowConstraint(p)
		routerOpts = append(routerOpts, route.Constraint(tw, vehicleIDs))
	}

	router, err := route.NewRouter(stops, vehicleIDs, routerOpts...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverSetupFailed, "failed to construct router")
	}

	solverOpts := store.DefaultOptions()
	solverOpts.Limits.Duration = opts.MaxDuration
	if opts.Threads > 0 {
		solverOpts.Diagram.Expansion.Limit = opts.Threads
	}

	solver, err := router.Solver(solverOpts)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverSetupFailed, "failed to build solver")
	}

	last := solver.Last()
	return extractSolution(ctx, router, last, solverOpts, vehicleIDs, p)
}

func positionOf(loc domain.Location) route.Position {
	return route.Position{Lon: loc.Longitude, Lat: loc.Latitude}
}

func vehicleSkills(vehicles []domain.Vehicle) [][]string {
	out := make([][]string, len(vehicles))
	for i, v := range vehicles {
		out[i] = v.Skills
	}
	return out
}

// spanCoefficient derives the global-span bias from the configured distance
// scaling factor -- large enough to dominate small per-route differences
// without drowning out the base distance objective.
func spanCoefficient(opts Options) int {
	return opts.DistanceScalingFactor
}
