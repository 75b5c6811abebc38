package models

// GenerateRoutesRequest is the input for a route-generation pass. Validated
// once at the boundary; the optimizer never re-checks these fields.
type GenerateRoutesRequest struct {
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	Strategy        string `json:"strategy,omitempty" validate:"omitempty,oneof=minimize_distance minimize_vehicles"`
	ForceRegenerate bool   `json:"force_regenerate,omitempty"`
}

// RouteStatusUpdateRequest transitions a route through its lifecycle.
type RouteStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=planned dispatched in_progress completed cancelled"`
}

// StopStatusUpdateRequest transitions a single stop.
type StopStatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending arrived completed skipped"`
}

// ReassignOrderRequest moves one order's stop onto another route.
type ReassignOrderRequest struct {
	OrderID       string `json:"order_id" validate:"required,uuid4"`
	TargetRouteID string `json:"target_route_id" validate:"required,uuid4"`
	Reason        string `json:"reason,omitempty"`
}

// VehicleAvailabilityRequest is the administrative override surface.
type VehicleAvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,oneof=available maintenance offline"`
}

// ErrorResponse is the uniform error body returned by handlers.
type ErrorResponse struct {
	Message string `json:"message"`
}
