// Package planneradapter binds persisted fleet/shipment records to the
// optimizer's DTOs and maps solver output back into Assignment aggregates.
// Persistence itself lives behind the reader/writer interfaces; this
// package owns only the translation and the pickup-delivery pairing rules.
package planneradapter

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/routingcore/routingcore/internal/domain"
	"github.com/routingcore/routingcore/internal/logging"
	"github.com/routingcore/routingcore/internal/optimization"
)

// LatLng is a bare coordinate pair as stored on shipment records.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FleetVehicle is the read model of a fleet vehicle record.
type FleetVehicle struct {
	ID       string
	Capacity float64
	DepotLat *float64
	DepotLng *float64
	Status   string
}

// Shipment is the read model of a shipment record awaiting planning.
type Shipment struct {
	ID          string
	Origin      LatLng
	Destination LatLng
	Demand      float64
	Status      string
}

// AssignmentItem is one actual task stop on a planned assignment. Sequence
// numbers run 1..N across task stops in route order; depot stops without
// tasks do not produce items.
type AssignmentItem struct {
	ShipmentID string
	Role       string // "pickup" or "delivery"
	Sequence   int
	Location   LatLng
}

// Assignment is the aggregate written back for one vehicle's planned route.
type Assignment struct {
	VehicleID string
	TotalLoad float64
	Status    string
	Items     []AssignmentItem
}

// Assignment and shipment status values produced by the planner.
const (
	AssignmentStatusCreated = "created"
	ShipmentStatusScheduled = "scheduled"
	RolePickup              = "pickup"
	RoleDelivery            = "delivery"
)

// Vehicle and shipment statuses eligible for planning.
const (
	VehicleStatusAvailable = "available"
	ShipmentStatusPending  = "pending"
)

// Optimizer is the slice of optimization.Service the planner invokes.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.Request) *domain.OptimizationResult
}

// FleetReader supplies the current fleet snapshot from the persistence
// collaborator.
type FleetReader interface {
	Vehicles(ctx context.Context) ([]FleetVehicle, error)
}

// ShipmentReader supplies the shipments awaiting planning.
type ShipmentReader interface {
	Shipments(ctx context.Context) ([]Shipment, error)
}

// Writer persists planned assignments and advances shipment statuses.
// Implementations belong to the persistence collaborator, not this core.
type Writer interface {
	SaveAssignments(ctx context.Context, assignments []Assignment) error
	MarkShipmentsScheduled(ctx context.Context, shipmentIDs []string) error
}

// Planner translates fleet/shipment records into a VRP problem and the
// solution back into assignments.
type Planner struct {
	optimizer Optimizer
	writer    Writer
}

// NewPlanner builds a Planner over an optimizer and an assignment writer.
func NewPlanner(optimizer Optimizer, writer Writer) *Planner {
	return &Planner{optimizer: optimizer, writer: writer}
}

// taskRef ties an optimizer delivery task back to its source shipment.
type taskRef struct {
	shipment Shipment
	role     string
}

// problem is the fully translated VRP input plus the reverse mappings
// needed to interpret the solution.
type problem struct {
	locations  []domain.Location
	vehicles   []domain.Vehicle
	deliveries []domain.Delivery
	taskByID   map[string]taskRef
	coordsByID map[string]LatLng
	depotIDs   map[string]bool
}

// PlanFromReaders pulls the current snapshots from the collaborator
// readers, keeps only assignable records (available vehicles, pending
// shipments) and runs Plan over them.
func (p *Planner) PlanFromReaders(ctx context.Context, fleet FleetReader, shipmentsSrc ShipmentReader) ([]Assignment, error) {
	vehicles, err := fleet.Vehicles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read fleet snapshot: %w", err)
	}
	shipments, err := shipmentsSrc.Shipments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read shipments: %w", err)
	}

	assignable := vehicles[:0:0]
	for _, v := range vehicles {
		if v.Status == "" || v.Status == VehicleStatusAvailable {
			assignable = append(assignable, v)
		}
	}
	pending := shipments[:0:0]
	for _, s := range shipments {
		if s.Status == "" || s.Status == ShipmentStatusPending {
			pending = append(pending, s)
		}
	}

	return p.Plan(ctx, assignable, pending)
}

// Plan runs the full cycle: translate records, optimize, map the solution
// to assignments, persist them and mark the covered shipments scheduled.
func (p *Planner) Plan(ctx context.Context, vehicles []FleetVehicle, shipments []Shipment) ([]Assignment, error) {
	if len(vehicles) == 0 {
		logging.Warn("no vehicles provided for assignment planning")
		return nil, nil
	}
	if len(shipments) == 0 {
		return nil, nil
	}

	prob := translate(vehicles, shipments)
	if len(prob.vehicles) == 0 {
		return nil, fmt.Errorf("no vehicles with depot coordinates available for planning")
	}
	if len(prob.deliveries) == 0 {
		return nil, nil
	}

	result := p.optimizer.Optimize(ctx, optimization.Request{
		Locations:  prob.locations,
		Vehicles:   prob.vehicles,
		Deliveries: prob.deliveries,
	})
	if result.Status != domain.StatusSuccess {
		return nil, fmt.Errorf("optimization failed: %v", result.Statistics["error"])
	}

	assignments, scheduledIDs := mapSolution(result, prob)

	if p.writer != nil {
		if err := p.writer.SaveAssignments(ctx, assignments); err != nil {
			return nil, fmt.Errorf("failed to persist assignments: %w", err)
		}
		if err := p.writer.MarkShipmentsScheduled(ctx, scheduledIDs); err != nil {
			return nil, fmt.Errorf("failed to mark shipments scheduled: %w", err)
		}
	}

	return assignments, nil
}

// translate maps fleet/shipment records onto optimizer DTOs, deduplicating
// locations by coordinate so shipments sharing an address share a stop.
func translate(vehicles []FleetVehicle, shipments []Shipment) *problem {
	prob := &problem{
		taskByID:   map[string]taskRef{},
		coordsByID: map[string]LatLng{},
		depotIDs:   map[string]bool{},
	}
	byCoord := map[string]string{}

	locationID := func(c LatLng, isDepot bool) string {
		key := fmt.Sprintf("%.6f_%.6f", c.Lat, c.Lng)
		if id, ok := byCoord[key]; ok {
			if isDepot {
				prob.depotIDs[id] = true
				for i := range prob.locations {
					if prob.locations[i].ID == id {
						prob.locations[i].IsDepot = true
					}
				}
			}
			return id
		}
		id := uuid.NewString()
		byCoord[key] = id
		prob.coordsByID[id] = c
		if isDepot {
			prob.depotIDs[id] = true
		}
		prob.locations = append(prob.locations, domain.Location{
			ID:        id,
			Latitude:  c.Lat,
			Longitude: c.Lng,
			IsDepot:   isDepot,
		})
		return id
	}

	for _, v := range vehicles {
		if v.DepotLat == nil || v.DepotLng == nil {
			logging.Warn("vehicle is missing depot coordinates, skipping", "vehicle_id", v.ID)
			continue
		}
		depotID := locationID(LatLng{Lat: *v.DepotLat, Lng: *v.DepotLng}, true)
		prob.vehicles = append(prob.vehicles, domain.Vehicle{
			ID:              v.ID,
			Capacity:        v.Capacity,
			StartLocationID: depotID,
			EndLocationID:   depotID,
		})
	}

	for _, s := range shipments {
		pickupLoc := locationID(s.Origin, false)
		deliveryLoc := locationID(s.Destination, false)

		pickupID := s.ID + "_pickup"
		prob.deliveries = append(prob.deliveries, domain.Delivery{
			ID:         pickupID,
			LocationID: pickupLoc,
			Demand:     s.Demand,
			IsPickup:   true,
			Priority:   domain.DefaultDeliveryPriority,
		})
		prob.taskByID[pickupID] = taskRef{shipment: s, role: RolePickup}

		deliveryID := s.ID + "_delivery"
		prob.deliveries = append(prob.deliveries, domain.Delivery{
			ID:         deliveryID,
			LocationID: deliveryLoc,
			Demand:     s.Demand,
			Priority:   domain.DefaultDeliveryPriority,
		})
		prob.taskByID[deliveryID] = taskRef{shipment: s, role: RoleDelivery}
	}

	return prob
}

// mapSolution converts the solver's detailed routes into Assignment
// aggregates. Each task is consumed by the first route that visits its
// location, so no shipment task appears on two assignments.
func mapSolution(result *domain.OptimizationResult, prob *problem) ([]Assignment, []string) {
	tasksByLocation := map[string][]domain.Delivery{}
	for _, d := range prob.deliveries {
		tasksByLocation[d.LocationID] = append(tasksByLocation[d.LocationID], d)
	}
	consumed := map[string]bool{}

	var assignments []Assignment
	scheduled := map[string]bool{}
	var scheduledIDs []string

	for _, route := range result.DetailedRoutes {
		assignment := Assignment{
			VehicleID: route.VehicleID,
			Status:    AssignmentStatusCreated,
		}

		seq := 1
		for _, stopID := range route.Stops {
			for _, task := range tasksByLocation[stopID] {
				if consumed[task.ID] {
					continue
				}
				ref, ok := prob.taskByID[task.ID]
				if !ok {
					logging.Warn("could not map optimizer task back to a shipment", "task_id", task.ID)
					continue
				}
				consumed[task.ID] = true

				assignment.Items = append(assignment.Items, AssignmentItem{
					ShipmentID: ref.shipment.ID,
					Role:       ref.role,
					Sequence:   seq,
					Location:   prob.coordsByID[stopID],
				})
				seq++

				if ref.role == RoleDelivery {
					assignment.TotalLoad += ref.shipment.Demand
				}
				if !scheduled[ref.shipment.ID] {
					scheduled[ref.shipment.ID] = true
					scheduledIDs = append(scheduledIDs, ref.shipment.ID)
				}
			}
		}

		if len(assignment.Items) == 0 {
			continue
		}
		assignments = append(assignments, assignment)
	}

	return assignments, scheduledIDs
}
