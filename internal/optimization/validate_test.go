package optimization

import (
	"testing"

	"github.com/routingcore/routingcore/internal/domain"
)

func validRequest() Request {
	return Request{
		Locations: []domain.Location{
			{ID: "depot", Latitude: 40.0, Longitude: -74.0, IsDepot: true},
			{ID: "stop1", Latitude: 40.1, Longitude: -74.1},
		},
		Vehicles: []domain.Vehicle{
			{ID: "v1", Capacity: 50, StartLocationID: "depot", EndLocationID: "depot"},
		},
		Deliveries: []domain.Delivery{
			{ID: "d1", LocationID: "stop1", Demand: 5},
		},
	}
}

func TestValidate_AcceptsWellFormedRequest(t *testing.T) {
	verrs := Validate(validRequest())
	if verrs.HasErrors() {
		t.Fatalf("expected no errors, got %v", verrs.Errors)
	}
}

func TestValidate_RejectsEmptyLocations(t *testing.T) {
	req := validRequest()
	req.Locations = nil
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for empty locations")
	}
}

func TestValidate_RejectsOutOfRangeCoordinate(t *testing.T) {
	req := validRequest()
	req.Locations[0].Latitude = 200
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for out-of-range latitude")
	}
}

func TestValidate_RejectsInvertedTimeWindow(t *testing.T) {
	req := validRequest()
	start, end := 600, 500
	req.Locations[1].TimeWindowStart = &start
	req.Locations[1].TimeWindowEnd = &end
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for inverted time window")
	}
}

func TestValidate_RejectsNonPositiveCapacity(t *testing.T) {
	req := validRequest()
	req.Vehicles[0].Capacity = 0
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for non-positive capacity")
	}
}

func TestValidate_RejectsUnknownVehicleLocation(t *testing.T) {
	req := validRequest()
	req.Vehicles[0].StartLocationID = "nowhere"
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for unknown vehicle start location")
	}
}

func TestValidate_RejectsNegativeDemand(t *testing.T) {
	req := validRequest()
	req.Deliveries[0].Demand = -1
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for negative demand")
	}
}

func TestValidate_RejectsUnknownDeliveryLocation(t *testing.T) {
	req := validRequest()
	req.Deliveries[0].LocationID = "nowhere"
	verrs := Validate(req)
	if !verrs.HasErrors() {
		t.Fatal("expected an error for unknown delivery location")
	}
}
