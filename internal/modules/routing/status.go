package routing

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/notify"
)

// Legal route status transitions. Anything absent is rejected; terminal
// states have no entries.
var routeTransitions = map[string][]string{
	models.RoutePlanned:    {models.RouteDispatched, models.RouteCancelled},
	models.RouteDispatched: {models.RouteInProgress, models.RouteCancelled},
	models.RouteInProgress: {models.RouteCompleted, models.RouteCancelled},
}

// Legal stop status transitions.
var stopTransitions = map[string][]string{
	models.StopPending: {models.StopArrived, models.StopSkipped},
	models.StopArrived: {models.StopCompleted, models.StopSkipped},
}

func transitionAllowed(table map[string][]string, from, to string) bool {
	return slices.Contains(table[from], to)
}

// UpdateRouteStatus advances a route through its lifecycle. Completion
// requires every stop to have reached a terminal status; cancellation goes
// through the shared cancel path so orders and the vehicle are returned.
func (s *service) UpdateRouteStatus(ctx context.Context, routeID, status string) (*models.Route, error) {
	route, err := s.repo.FindRouteByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	if status == models.RouteCancelled {
		return s.cancel(ctx, route, "status update")
	}

	if !transitionAllowed(routeTransitions, route.Status, status) {
		return nil, fmt.Errorf("route %s cannot go %s -> %s: %w",
			route.RouteCode, route.Status, status, models.ErrInvalidTransition)
	}

	if status == models.RouteCompleted {
		for _, stop := range route.Stops {
			if !models.StopTerminal(stop.Status) {
				return nil, fmt.Errorf("route %s has open stop %d: %w",
					route.RouteCode, stop.Sequence, models.ErrInvalidTransition)
			}
		}
	}

	if err := s.repo.UpdateRouteStatus(ctx, routeID, status); err != nil {
		return nil, err
	}
	route.Status = status

	switch status {
	case models.RouteDispatched:
		s.publisher.Publish(ctx, notify.Event{
			Kind:       notify.EventRouteDispatched,
			RouteID:    route.ID,
			RouteCode:  route.RouteCode,
			VehicleID:  route.VehicleID,
			OccurredAt: time.Now(),
		})
	case models.RouteCompleted:
		if err := s.tracker.Release(ctx, route.VehicleID); err != nil {
			log.Printf("CRITICAL: route %s completed but vehicle %s release failed: %v",
				route.RouteCode, route.VehicleID, err)
		}
		s.publisher.Publish(ctx, notify.Event{
			Kind:       notify.EventRouteCompleted,
			RouteID:    route.ID,
			RouteCode:  route.RouteCode,
			VehicleID:  route.VehicleID,
			OccurredAt: time.Now(),
		})
	}
	return route, nil
}

// UpdateStopStatus records delivery progress at one stop. Stops only move
// while their route is in progress. Completing a stop marks its order
// delivered; skipping a stop returns the order to the pending pool so a later
// generation pass can pick it up again.
func (s *service) UpdateStopStatus(ctx context.Context, routeID, stopID, status string) (*models.RouteStop, error) {
	route, err := s.repo.FindRouteByID(ctx, routeID)
	if err != nil {
		return nil, err
	}

	idx := slices.IndexFunc(route.Stops, func(st models.RouteStop) bool {
		return st.ID == stopID
	})
	if idx < 0 {
		return nil, models.ErrNotFound
	}
	stop := route.Stops[idx]

	if route.Status != models.RouteInProgress {
		return nil, fmt.Errorf("route %s is %s, stops only advance while in progress: %w",
			route.RouteCode, route.Status, models.ErrInvalidTransition)
	}
	if !transitionAllowed(stopTransitions, stop.Status, status) {
		return nil, fmt.Errorf("stop %d cannot go %s -> %s: %w",
			stop.Sequence, stop.Status, status, models.ErrInvalidTransition)
	}

	now := time.Now()
	var arrival, departure *time.Time
	switch status {
	case models.StopArrived:
		arrival = &now
	case models.StopCompleted:
		departure = &now
	}

	if err := s.repo.UpdateStopStatus(ctx, stopID, status, arrival, departure); err != nil {
		return nil, err
	}
	stop.Status = status
	if arrival != nil {
		stop.ActualArrival = arrival
	}
	if departure != nil {
		stop.ActualDeparture = departure
	}

	switch status {
	case models.StopArrived:
		s.publisher.Publish(ctx, notify.Event{
			Kind:       notify.EventStopArrived,
			RouteID:    route.ID,
			RouteCode:  route.RouteCode,
			OrderID:    stop.OrderID,
			OccurredAt: now,
		})
	case models.StopCompleted:
		if err := s.orderSvc.MarkDelivered(ctx, stop.OrderID); err != nil {
			log.Printf("CRITICAL: stop %s completed but order %s not marked delivered: %v",
				stopID, stop.OrderID, err)
		}
	case models.StopSkipped:
		if err := s.orderSvc.ReturnToPending(ctx, stop.OrderID); err != nil {
			log.Printf("CRITICAL: stop %s skipped but order %s not returned to pending: %v",
				stopID, stop.OrderID, err)
		}
	}
	return &stop, nil
}
