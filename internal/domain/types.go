package domain

import "time"

// Location is a geographic point referenced by id within a single request.
// Coordinates are validated at the service boundary; internally they are
// trusted to be within range.
type Location struct {
	ID              string  `json:"id"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Name            string  `json:"name,omitempty"`
	Address         string  `json:"address,omitempty"`
	IsDepot         bool    `json:"is_depot,omitempty"`
	TimeWindowStart *int    `json:"time_window_start,omitempty"` // minutes from midnight
	TimeWindowEnd   *int    `json:"time_window_end,omitempty"`   // minutes from midnight
	ServiceTime     int     `json:"service_time"`                // minutes
}

// HasTimeWindow reports whether both ends of the time window are set.
func (l Location) HasTimeWindow() bool {
	return l.TimeWindowStart != nil && l.TimeWindowEnd != nil
}

// Vehicle is a capacitated unit of the fleet with a start/end depot pair.
type Vehicle struct {
	ID              string   `json:"id"`
	Capacity        float64  `json:"capacity"`
	StartLocationID string   `json:"start_location_id"`
	EndLocationID   string   `json:"end_location_id"`
	CostPerKM       float64  `json:"cost_per_km"`
	FixedCost       float64  `json:"fixed_cost"`
	MaxDistance     *float64 `json:"max_distance,omitempty"`
	MaxStops        *int     `json:"max_stops,omitempty"`
	Skills          []string `json:"skills,omitempty"`
}

// EffectiveEndLocationID returns EndLocationID, defaulting to StartLocationID
// when it was not set.
func (v Vehicle) EffectiveEndLocationID() string {
	if v.EndLocationID == "" {
		return v.StartLocationID
	}
	return v.EndLocationID
}

// Delivery is a single pickup or drop-off task tied to a location.
type Delivery struct {
	ID             string   `json:"id"`
	LocationID     string   `json:"location_id"`
	Demand         float64  `json:"demand"`
	Priority       int      `json:"priority"`
	IsPickup       bool     `json:"is_pickup,omitempty"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// SignedDemand returns Demand, negated when the delivery is a pickup so that
// the solver's cumulative capacity dimension nets out correctly.
func (d Delivery) SignedDemand() float64 {
	if d.IsPickup {
		return -d.Demand
	}
	return d.Demand
}

// DistanceMatrix is a square matrix of distances (km), with an optional
// parallel time matrix (minutes), indexed by position in LocationIDs.
type DistanceMatrix struct {
	LocationIDs []string    `json:"location_ids"`
	Distance    [][]float64 `json:"distance"`
	Time        [][]float64 `json:"time,omitempty"`
}

// Size returns the number of locations represented in the matrix.
func (m *DistanceMatrix) Size() int {
	return len(m.LocationIDs)
}

// HasTime reports whether a time matrix was populated alongside distances.
func (m *DistanceMatrix) HasTime() bool {
	return m.Time != nil
}

// IndexOf returns the matrix row/column index for a location id, or -1.
func (m *DistanceMatrix) IndexOf(locationID string) int {
	for i, id := range m.LocationIDs {
		if id == locationID {
			return i
		}
	}
	return -1
}

// RouteSegment is a traced path between two consecutive stops on a route.
type RouteSegment struct {
	FromLocation  string   `json:"from_location"`
	ToLocation    string   `json:"to_location"`
	Path          []string `json:"path"`
	Distance      float64  `json:"distance"`
	EstimatedTime *float64 `json:"estimated_time,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// DetailedRoute is the fully annotated route for a single vehicle.
type DetailedRoute struct {
	VehicleID             string         `json:"vehicle_id"`
	Stops                 []string       `json:"stops"`
	Segments              []RouteSegment `json:"segments"`
	TotalDistance         float64        `json:"total_distance"`
	TotalTime             float64        `json:"total_time"`
	CapacityUtilization   float64        `json:"capacity_utilization"`
	EstimatedArrivalTimes map[string]int `json:"estimated_arrival_times,omitempty"`
}

// ReroutingInfo describes a rerouting operation; it is embedded into an
// OptimizationResult's Statistics map under the "rerouting" key.
type ReroutingInfo struct {
	Reason              string      `json:"reason"`
	TrafficFactors      int         `json:"traffic_factors,omitempty"`
	CompletedDeliveries int         `json:"completed_deliveries"`
	RemainingDeliveries int         `json:"remaining_deliveries"`
	DelayLocations      []string    `json:"delay_locations,omitempty"`
	BlockedSegments     [][2]string `json:"blocked_segments,omitempty"`
}

// OptimizationResult is the immutable (once returned) DTO produced by the
// optimization and rerouting services.
type OptimizationResult struct {
	Status               string          `json:"status"`
	Routes               [][]string      `json:"routes"`
	TotalDistance        float64         `json:"total_distance"`
	TotalCost            float64         `json:"total_cost"`
	AssignedVehicles     map[string]int  `json:"assigned_vehicles"`
	UnassignedDeliveries []string        `json:"unassigned_deliveries"`
	DetailedRoutes       []DetailedRoute `json:"detailed_routes"`
	Statistics           map[string]any  `json:"statistics"`
}

// NewErrorResult builds a status=error OptimizationResult carrying every
// supplied delivery id as unassigned, with the cause recorded in Statistics.
func NewErrorResult(deliveryIDs []string, cause string) *OptimizationResult {
	return &OptimizationResult{
		Status:               StatusError,
		Routes:               [][]string{},
		AssignedVehicles:     map[string]int{},
		UnassignedDeliveries: append([]string{}, deliveryIDs...),
		DetailedRoutes:       []DetailedRoute{},
		Statistics:           map[string]any{"error": cause},
	}
}

// NewFailedResult builds a status=failed OptimizationResult, used when the
// solver encoding fails or the engine reports no solution.
func NewFailedResult(deliveryIDs []string, cause string) *OptimizationResult {
	r := NewErrorResult(deliveryIDs, cause)
	r.Status = StatusFailed
	return r
}

// DistanceMatrixCacheEntry is the persisted form of a built matrix, keyed by
// a hash of the sorted location id list.
type DistanceMatrixCacheEntry struct {
	CacheKey    string      `json:"cache_key"`
	LocationIDs []string    `json:"location_ids"`
	MatrixData  [][]float64 `json:"matrix_data"`
	TimeMatrix  [][]float64 `json:"time_matrix,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Expired reports whether the cache entry is older than ttl as of now.
func (e *DistanceMatrixCacheEntry) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.CreatedAt) > ttl
}
