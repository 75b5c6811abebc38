package models

import "time"

// Order statuses. Orders are created by the upstream sales service; the
// dispatch engine only moves them between these states.
const (
	OrderPending   = "pending"
	OrderRouted    = "routed"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Order represents a delivery order scheduled for dispatch. The record is
// owned by the sales service; the engine reads it and drives status changes.
type Order struct {
	ID                string    `json:"id"`
	OrderNumber       string    `json:"order_number"`
	CustomerName      string    `json:"customer_name"`
	DeliveryAddress   string    `json:"delivery_address"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	WeightKg          float64   `json:"weight_kg"`
	VolumeM3          float64   `json:"volume_m3"`
	RequiresColdChain bool      `json:"requires_cold_chain"`
	DeliveryDate      time.Time `json:"delivery_date"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
