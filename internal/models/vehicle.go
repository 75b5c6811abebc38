package models

import "time"

// Vehicle availability states. Availability is the single piece of shared
// mutable state in the engine; all changes go through the fleet tracker.
const (
	VehicleAvailable   = "available"
	VehicleAssigned    = "assigned"
	VehicleMaintenance = "maintenance"
	VehicleOffline     = "offline"
)

// Vehicle represents a fleet vehicle with its carrying constraints.
type Vehicle struct {
	ID               string    `json:"id"`
	Plate            string    `json:"plate"`
	CapacityKg       float64   `json:"capacity_kg"`
	CapacityM3       float64   `json:"capacity_m3"`
	HasRefrigeration bool      `json:"has_refrigeration"`
	MaxStopsPerRoute int       `json:"max_stops_per_route"`
	AvgSpeedKmh      float64   `json:"avg_speed_kmh"`
	CostPerKm        float64   `json:"cost_per_km"`
	DriverName       string    `json:"driver_name"`
	Availability     string    `json:"availability"`
	CurrentRouteID   *string   `json:"current_route_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CanColdChain reports whether the vehicle may carry cold-chain orders.
func (v *Vehicle) CanColdChain() bool { return v.HasRefrigeration }
