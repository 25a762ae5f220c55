// Package optimization orchestrates the full fleet-planning pipeline:
// validate, look up a cached result, build the distance/time matrix, solve,
// annotate, and compute statistics -- in that strict order, per request.
package optimization

import (
	"context"
	"time"

	"github.com/routingcore/routingcore/internal/annotator"
	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/logging"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/resultcache"
	"github.com/routingcore/routingcore/internal/routestats"
	"github.com/routingcore/routingcore/internal/vrpsolver"
)

// Request is the full set of inputs a single optimize call accepts.
type Request struct {
	Locations           []domain.Location
	Vehicles            []domain.Vehicle
	Deliveries          []domain.Delivery
	ConsiderTraffic     bool
	ConsiderTimeWindows bool
	TrafficFactors      map[string]float64 // keyed by matrix.TrafficFactorKey(fromID, toID)
	UseAPI              bool
	APIKey              string
}

// Service composes the matrix builder, solver, annotator and statistics
// stages behind a single Optimize entry point, with a result cache in
// front of the expensive stages.
type Service struct {
	matrixBuilder *matrix.Builder
	resultCache   *resultcache.Cache
	solverOpts    vrpsolver.Options
	resultTTL     time.Duration
}

// NewService builds an optimization Service from its collaborators.
func NewService(matrixBuilder *matrix.Builder, resultCache *resultcache.Cache, solverOpts vrpsolver.Options, resultTTL time.Duration) *Service {
	return &Service{
		matrixBuilder: matrixBuilder,
		resultCache:   resultCache,
		solverOpts:    solverOpts,
		resultTTL:     resultTTL,
	}
}

// Optimize runs the full pipeline for req. It never panics or returns a Go
// error: any failure is reported inside the returned OptimizationResult's
// Status/Statistics fields, per the failure policy for this stage.
func (s *Service) Optimize(ctx context.Context, req Request) *domain.OptimizationResult {
	deliveryIDs := make([]string, len(req.Deliveries))
	for i, d := range req.Deliveries {
		deliveryIDs[i] = d.ID
	}

	if verrs := Validate(req); verrs.HasErrors() {
		return domain.NewErrorResult(deliveryIDs, verrs.Errors[0].Error())
	}

	fp := resultcache.Fingerprint{
		Locations:           req.Locations,
		Vehicles:            req.Vehicles,
		Deliveries:          req.Deliveries,
		ConsiderTraffic:     req.ConsiderTraffic,
		ConsiderTimeWindows: req.ConsiderTimeWindows,
		UseAPI:              req.UseAPI,
		TrafficFactors:      req.TrafficFactors,
	}
	if s.resultCache != nil {
		if cached, ok, err := s.resultCache.Get(ctx, fp); err == nil && ok {
			return cached
		}
	}

	result, err := s.run(ctx, req)
	if err != nil {
		return domain.NewErrorResult(deliveryIDs, err.Error())
	}

	if result.Status == domain.StatusSuccess && s.resultCache != nil {
		_ = s.resultCache.Set(ctx, fp, result, s.resultTTL)
	}
	return result
}

func (s *Service) run(ctx context.Context, req Request) (*domain.OptimizationResult, error) {
	buildOpts := matrix.BuildOptions{UseCache: true}
	if req.ConsiderTraffic {
		buildOpts.TrafficFactors = req.TrafficFactors
	}
	if req.ConsiderTimeWindows {
		buildOpts.AverageSpeedKMH = s.solverOpts.AverageSpeedKMH
	}
	if req.UseAPI {
		buildOpts.Source = matrix.SourceAPI
	}

	dm, err := s.matrixBuilder.Build(ctx, req.Locations, buildOpts)
	if err != nil {
		logging.Error("distance matrix build failed", "error", err)
		return nil, apperror.Wrap(err, apperror.CodeMatrixBuildFailed, "failed to build distance matrix")
	}

	var result *domain.OptimizationResult
	if req.ConsiderTimeWindows {
		result = vrpsolver.SolveWithTimeWindows(ctx, dm, req.Locations, req.Vehicles, req.Deliveries, s.solverOpts.AverageSpeedKMH, s.solverOpts)
	} else {
		result = vrpsolver.Solve(ctx, dm, req.Locations, req.Vehicles, req.Deliveries, s.solverOpts)
	}

	if result.Status != domain.StatusSuccess {
		return result, nil
	}

	graph := matrix.ToGraph(dm)
	annotator.Annotate(result, graph)

	demandByLocation := make(map[string]float64, len(req.Deliveries))
	for _, d := range req.Deliveries {
		demandByLocation[d.LocationID] += d.SignedDemand()
	}
	routestats.Compute(result, req.Vehicles, demandByLocation)

	return result, nil
}

// DepotIndex returns the index of the first is_depot location, or 0 when
// none is flagged -- used by callers that need a single depot reference
// point independent of the per-vehicle start/end ids.
func DepotIndex(locations []domain.Location) int {
	for i, loc := range locations {
		if loc.IsDepot {
			return i
		}
	}
	return 0
}
