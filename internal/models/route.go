package models

import "time"

// Route statuses. Lifecycle: planned -> dispatched -> in_progress -> completed,
// with cancelled reachable from any non-terminal state. Cancelled routes are
// kept for audit history, never deleted.
const (
	RoutePlanned    = "planned"
	RouteDispatched = "dispatched"
	RouteInProgress = "in_progress"
	RouteCompleted  = "completed"
	RouteCancelled  = "cancelled"
)

// Stop statuses.
const (
	StopPending   = "pending"
	StopArrived   = "arrived"
	StopCompleted = "completed"
	StopSkipped   = "skipped"
)

// Optimization strategies accepted by the route generator.
const (
	StrategyMinimizeDistance = "minimize_distance"
	StrategyMinimizeVehicles = "minimize_vehicles"
)

// RouteTerminal reports whether a route status is terminal.
func RouteTerminal(status string) bool {
	return status == RouteCompleted || status == RouteCancelled
}

// StopTerminal reports whether a stop status is terminal.
func StopTerminal(status string) bool {
	return status == StopCompleted || status == StopSkipped
}

// Route represents a planned delivery route: exclusive ownership of one
// vehicle for the route's active lifetime plus an ordered stop sequence.
type Route struct {
	ID                   string      `json:"id"`
	RouteCode            string      `json:"route_code"`
	VehicleID            string      `json:"vehicle_id"`
	DriverName           string      `json:"driver_name,omitempty"`
	PlannedDate          time.Time   `json:"planned_date"`
	Status               string      `json:"status"`
	Strategy             string      `json:"strategy"`
	Stops                []RouteStop `json:"stops,omitempty"`
	TotalDistanceKm      float64     `json:"total_distance_km"`
	EstimatedDurationMin int         `json:"estimated_duration_minutes"`
	TotalWeightKg        float64     `json:"total_weight_kg"`
	TotalVolumeM3        float64     `json:"total_volume_m3"`
	HasColdChain         bool        `json:"has_cold_chain"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// RouteStop is a single delivery point within a route. Sequence numbers are
// zero-based and contiguous per route; a stop belongs to exactly one route.
type RouteStop struct {
	ID                 string     `json:"id"`
	RouteID            string     `json:"route_id"`
	OrderID            string     `json:"order_id"`
	Sequence           int        `json:"sequence"`
	Latitude           float64    `json:"latitude"`
	Longitude          float64    `json:"longitude"`
	Status             string     `json:"status"`
	EstimatedArrival   *time.Time `json:"estimated_arrival,omitempty"`
	ActualArrival      *time.Time `json:"actual_arrival,omitempty"`
	ActualDeparture    *time.Time `json:"actual_departure,omitempty"`
	DistanceFromPrevKm float64    `json:"distance_from_prev_km"`
	TimeFromPrevMin    int        `json:"time_from_prev_minutes"`
}

// GenerationResult is the outcome of one route-generation pass. Unassignable
// orders are reported here rather than failing the whole batch.
type GenerationResult struct {
	Routes           []*Route `json:"routes"`
	UnassignedOrders []*Order `json:"unassigned_orders"`
	AlreadyGenerated bool     `json:"already_generated"`
	TotalDistanceKm  float64  `json:"total_distance_km"`
	ComputationMs    int64    `json:"computation_ms"`
}
