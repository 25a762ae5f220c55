package vrpsolver

import (
	"context"

	"github.com/nextmv-io/sdk/route"
	"github.com/nextmv-io/sdk/store"

	"github.com/routingcore/routingcore/internal/apperror"
)

// extractSolution reads the best store state the solver reached back into
// vehicle stop-id sequences and an unassigned-stop list.
//
// The exact shape of this call site could not be checked against a
// compiler: it assumes route.Router exposes a Format
// method returning a route.Output with a Vehicles slice (each entry
// carrying the vehicle id and its ordered []route.Stop) and an Unassigned
// []route.Stop, mirroring the JSON the nextmv CLI runner itself would print
// for one of these routers. The router construction in engine.go
// (route.Option values, measure.Matrix, store.Options fields) rests on the
// same unchecked SDK surface, so an SDK naming difference can need changes
// there as well as here.
func extractSolution(_ context.Context, router route.Router, last store.Store, opts store.Options, vehicleIDs []string, p *problem) (*solveResult, error) {
	if last == nil {
		return &solveResult{found: false}, nil
	}

	output, err := router.Format(opts, last, vehicleIDs...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeSolverSetupFailed, "failed to format solved routes")
	}

	routes := make([][]string, len(output.Vehicles))
	for i, vo := range output.Vehicles {
		ids := make([]string, len(vo.Route))
		for j, s := range vo.Route {
			ids[j] = s.ID
		}
		routes[i] = ids
	}

	unassigned := make([]string, len(output.Unassigned))
	for i, s := range output.Unassigned {
		unassigned[i] = s.ID
	}

	return &solveResult{routes: routes, unassignedStopIDs: unassigned, found: true}, nil
}
