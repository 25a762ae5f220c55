// Package annotator traces each detailed route's stop sequence through the
// shortest-path kernel, attaching a RouteSegment per consecutive stop pair.
package annotator

import (
	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/shortestpath"
)

// Annotate walks every detailed route in result and fills in its Segments,
// using g as the road graph. It never modifies TotalDistance -- only
// per-segment distances are recorded. A pair that fails to resolve (unknown
// node, unreachable, or a kernel error) gets a zero-distance placeholder
// segment carrying an Error string rather than aborting the rest of the
// route.
func Annotate(result *domain.OptimizationResult, g shortestpath.Graph) *domain.OptimizationResult {
	for i := range result.DetailedRoutes {
		annotateRoute(&result.DetailedRoutes[i], g)
	}
	return result
}

// AnnotateFromMatrix converts dm to a graph via the matrix builder's
// ToGraph and then behaves as Annotate.
func AnnotateFromMatrix(result *domain.OptimizationResult, dm *domain.DistanceMatrix) *domain.OptimizationResult {
	return Annotate(result, matrix.ToGraph(dm))
}

func annotateRoute(route *domain.DetailedRoute, g shortestpath.Graph) {
	stops := route.Stops
	if len(stops) == 0 {
		stops = stopsFromSegments(route.Segments)
		route.Stops = stops
	}
	if len(stops) < 2 {
		return
	}

	segments := make([]domain.RouteSegment, 0, len(stops)-1)
	for i := 0; i+1 < len(stops); i++ {
		from, to := stops[i], stops[i+1]
		segments = append(segments, annotatePair(g, from, to))
	}
	route.Segments = segments
}

func annotatePair(g shortestpath.Graph, from, to string) domain.RouteSegment {
	result, err := shortestpath.ShortestPath(g, from, to)
	if err != nil {
		return domain.RouteSegment{
			FromLocation: from,
			ToLocation:   to,
			Path:         []string{},
			Distance:     0,
			Error:        err.Error(),
		}
	}
	if !result.Found {
		return domain.RouteSegment{
			FromLocation: from,
			ToLocation:   to,
			Path:         []string{},
			Distance:     0,
			Error:        "no path found between " + from + " and " + to,
		}
	}
	return domain.RouteSegment{
		FromLocation: from,
		ToLocation:   to,
		Path:         result.Path,
		Distance:     result.Distance,
	}
}

// stopsFromSegments synthesizes a stop list from segment endpoints when a
// route arrived with segments but no stops -- e.g. a rerouted or
// externally-assembled result.
func stopsFromSegments(segments []domain.RouteSegment) []string {
	if len(segments) == 0 {
		return nil
	}
	stops := make([]string, 0, len(segments)+1)
	stops = append(stops, segments[0].FromLocation)
	for _, s := range segments {
		stops = append(stops, s.ToLocation)
	}
	return stops
}
