package domain

import (
	"fmt"

	"github.com/routingcore/routingcore/internal/apperror"
)

// ValidateLocations checks coordinate ranges and time-window ordering for a
// batch of locations. It never short-circuits: every offending location is
// recorded so the caller can report every invariant violation at once.
func ValidateLocations(locations []Location) *apperror.ValidationErrors {
	ve := apperror.NewValidationErrors()

	if len(locations) == 0 {
		ve.Add(apperror.ErrEmptyLocationList)
		return ve
	}

	for _, loc := range locations {
		if loc.Latitude < -90 || loc.Latitude > 90 {
			ve.AddErrorWithField(apperror.CodeInvalidCoordinate,
				fmt.Sprintf("location %s: latitude %v out of range [-90,90]", loc.ID, loc.Latitude),
				"latitude")
		}
		if loc.Longitude < -180 || loc.Longitude > 180 {
			ve.AddErrorWithField(apperror.CodeInvalidCoordinate,
				fmt.Sprintf("location %s: longitude %v out of range [-180,180]", loc.ID, loc.Longitude),
				"longitude")
		}
		if loc.HasTimeWindow() && *loc.TimeWindowStart > *loc.TimeWindowEnd {
			ve.AddErrorWithField(apperror.CodeInvalidTimeWindow,
				fmt.Sprintf("location %s: time_window_start > time_window_end", loc.ID),
				"time_window")
		}
		if loc.ServiceTime < 0 {
			ve.AddErrorWithField(apperror.CodeInputInvalid,
				fmt.Sprintf("location %s: service_time must be >= 0", loc.ID), "service_time")
		}
	}

	return ve
}

// ValidateVehicles checks capacity and start/end location references.
// knownLocations must contain every valid location id for the request.
func ValidateVehicles(vehicles []Vehicle, knownLocations map[string]bool) *apperror.ValidationErrors {
	ve := apperror.NewValidationErrors()

	if len(vehicles) == 0 {
		ve.Add(apperror.ErrEmptyVehicleList)
		return ve
	}

	for _, v := range vehicles {
		if v.Capacity <= 0 {
			ve.AddErrorWithField(apperror.CodeNonPositiveCapacity,
				fmt.Sprintf("vehicle %s: capacity must be > 0", v.ID), "capacity")
		}
		if !knownLocations[v.StartLocationID] {
			ve.AddErrorWithField(apperror.CodeUnknownLocationRef,
				fmt.Sprintf("vehicle %s: start_location_id %q not found", v.ID, v.StartLocationID),
				"start_location_id")
		}
		if end := v.EffectiveEndLocationID(); !knownLocations[end] {
			ve.AddErrorWithField(apperror.CodeUnknownLocationRef,
				fmt.Sprintf("vehicle %s: end_location_id %q not found", v.ID, end),
				"end_location_id")
		}
	}

	return ve
}

// ValidateDeliveries checks demand sign and location references.
func ValidateDeliveries(deliveries []Delivery, knownLocations map[string]bool) *apperror.ValidationErrors {
	ve := apperror.NewValidationErrors()

	for _, d := range deliveries {
		if d.Demand < 0 {
			ve.AddErrorWithField(apperror.CodeNegativeDemand,
				fmt.Sprintf("delivery %s: demand must be >= 0", d.ID), "demand")
		}
		if !knownLocations[d.LocationID] {
			ve.AddErrorWithField(apperror.CodeUnknownLocationRef,
				fmt.Sprintf("delivery %s: location_id %q not found", d.ID, d.LocationID), "location_id")
		}
	}

	return ve
}

// LocationIndex builds the id -> present lookup used by ValidateVehicles and
// ValidateDeliveries.
func LocationIndex(locations []Location) map[string]bool {
	idx := make(map[string]bool, len(locations))
	for _, loc := range locations {
		idx[loc.ID] = true
	}
	return idx
}
