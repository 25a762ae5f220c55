package optimization

import (
	"github.com/routingcore/routingcore/internal/apperror"
	"github.com/routingcore/routingcore/internal/domain"
)

// Validate checks a Request against the pipeline's input invariants:
// non-empty lists, coordinate ranges, time-window ordering, positive
// vehicle capacity, resolvable vehicle start/end ids, and non-negative
// delivery demand against a known location id. All violations are
// collected and reported together.
func Validate(req Request) *apperror.ValidationErrors {
	verrs := domain.ValidateLocations(req.Locations)

	known := domain.LocationIndex(req.Locations)
	verrs.Merge(domain.ValidateVehicles(req.Vehicles, known))
	verrs.Merge(domain.ValidateDeliveries(req.Deliveries, known))

	return verrs
}
