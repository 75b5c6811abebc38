package notify

import (
	"context"
	"log"
	"time"
)

// Event kinds emitted by the dispatch engine.
const (
	EventRouteDispatched = "route.dispatched"
	EventRouteCompleted  = "route.completed"
	EventRouteCancelled  = "route.cancelled"
	EventStopArrived     = "stop.arrived"
	EventOrderReassigned = "order.reassigned"
)

// Event is a status-change notification. Delivery is fire-and-forget: the
// engine emits events but does not guarantee downstream receipt.
type Event struct {
	Kind       string    `json:"kind"`
	RouteID    string    `json:"route_id,omitempty"`
	RouteCode  string    `json:"route_code,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	VehicleID  string    `json:"vehicle_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers status-change events to an external channel.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// LogPublisher writes events to the process log. Used as the default sink and
// in tests.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher { return &LogPublisher{} }

func (p *LogPublisher) Publish(_ context.Context, event Event) {
	log.Printf("event %s route=%s order=%s vehicle=%s %s",
		event.Kind, event.RouteCode, event.OrderID, event.VehicleID, event.Detail)
}
