package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/maps"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/notify"
)

// ReassignOrder moves one not-yet-visited order from its current route onto a
// target route, validating the target vehicle's capacity, cold-chain
// compatibility, and stop limit first. The move, the re-sequencing of both
// routes, and both metric recomputations commit in a single transaction, so a
// failed reassignment leaves both routes exactly as they were.
//
// The moved stop is inserted at the cheapest position among the target's
// not-yet-visited stops. Recomputed travel legs use straight-line distance;
// the next full generation pass restores provider-grade estimates.
func (s *service) ReassignOrder(ctx context.Context, sourceRouteID string, req *models.ReassignOrderRequest) (*models.Route, error) {
	stop, err := s.repo.FindActiveStopByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder failed: %w", err)
	}
	if stop.RouteID != sourceRouteID {
		return nil, fmt.Errorf("order %s is not on route %s: %w",
			req.OrderID, sourceRouteID, models.ErrValidation)
	}
	if stop.Status != models.StopPending {
		return nil, fmt.Errorf("order %s stop is %s, only pending stops move: %w",
			req.OrderID, stop.Status, models.ErrConflict)
	}
	if stop.RouteID == req.TargetRouteID {
		return nil, fmt.Errorf("order %s is already on route %s: %w",
			req.OrderID, req.TargetRouteID, models.ErrValidation)
	}

	// Lock both routes in ascending ID order so concurrent reassignments
	// touching the same pair cannot deadlock.
	first, second := stop.RouteID, req.TargetRouteID
	if second < first {
		first, second = second, first
	}
	firstLock, secondLock := s.routeLock(first), s.routeLock(second)
	firstLock.Lock()
	defer firstLock.Unlock()
	secondLock.Lock()
	defer secondLock.Unlock()

	// Re-read under the locks; the stop may have moved or finished since.
	stop, err = s.repo.FindActiveStopByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder failed: %w", err)
	}
	if stop.Status != models.StopPending || stop.RouteID != sourceRouteID {
		return nil, fmt.Errorf("order %s moved concurrently: %w", req.OrderID, models.ErrConflict)
	}

	source, err := s.repo.FindRouteByID(ctx, stop.RouteID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder source route failed: %w", err)
	}
	target, err := s.repo.FindRouteByID(ctx, req.TargetRouteID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder target route failed: %w", err)
	}
	if models.RouteTerminal(source.Status) {
		return nil, fmt.Errorf("source route %s is %s: %w", source.RouteCode, source.Status, models.ErrRouteTerminal)
	}
	if models.RouteTerminal(target.Status) {
		return nil, fmt.Errorf("target route %s is %s: %w", target.RouteCode, target.Status, models.ErrRouteTerminal)
	}
	if !source.PlannedDate.Equal(target.PlannedDate) {
		return nil, fmt.Errorf("routes are planned for different dates: %w", models.ErrValidation)
	}

	order, err := s.orderSvc.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder failed: %w", err)
	}
	vehicle, err := s.fleetRepo.FindByID(ctx, target.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("ReassignOrder target vehicle failed: %w", err)
	}

	if !FitsWithLoad(order, vehicle, target.TotalWeightKg, target.TotalVolumeM3) {
		return nil, fmt.Errorf("order %s does not fit vehicle %s on route %s: %w",
			order.OrderNumber, vehicle.Plate, target.RouteCode, models.ErrValidation)
	}
	if vehicle.MaxStopsPerRoute > 0 && openStopCount(target.Stops)+1 > vehicle.MaxStopsPerRoute {
		return nil, fmt.Errorf("route %s is at its stop limit: %w", target.RouteCode, models.ErrValidation)
	}

	change := s.planMove(stop, order, source, target)

	if err := s.repo.ApplyReassignment(ctx, change); err != nil {
		return nil, fmt.Errorf("ReassignOrder failed: %w", err)
	}

	s.publisher.Publish(ctx, notify.Event{
		Kind:       notify.EventOrderReassigned,
		RouteID:    target.ID,
		RouteCode:  target.RouteCode,
		OrderID:    order.ID,
		VehicleID:  target.VehicleID,
		Detail:     req.Reason,
		OccurredAt: time.Now(),
	})

	return s.repo.FindRouteByID(ctx, target.ID)
}

func openStopCount(stops []models.RouteStop) int {
	n := 0
	for _, st := range stops {
		if !models.StopTerminal(st.Status) {
			n++
		}
	}
	return n
}

// planMove computes the full effect of the move: the insertion point on the
// target, new contiguous sequences for both routes, refreshed travel legs,
// and both aggregate metric blocks.
func (s *service) planMove(stop *models.RouteStop, order *models.Order, source, target *models.Route) *ReassignmentChange {
	remaining := make([]models.RouteStop, 0, len(source.Stops)-1)
	for _, st := range source.Stops {
		if st.ID != stop.ID {
			remaining = append(remaining, st)
		}
	}

	moved := *stop
	moved.RouteID = target.ID
	targetStops := insertCheapest(target.Stops, moved, s.depot)

	placements := make(map[string]StopPlacement, len(remaining)+len(targetStops))
	sourceMetrics := s.walkRoute(source, remaining, placements)
	targetMetrics := s.walkRoute(target, targetStops, placements)

	sourceMetrics.TotalWeightKg = source.TotalWeightKg - order.WeightKg
	sourceMetrics.TotalVolumeM3 = source.TotalVolumeM3 - order.VolumeM3
	targetMetrics.TotalWeightKg = target.TotalWeightKg + order.WeightKg
	targetMetrics.TotalVolumeM3 = target.TotalVolumeM3 + order.VolumeM3

	// Stop rows carry no cold flag, so the source keeps its flag unless the
	// moved order was its only stop. Erring toward refrigerated is safe.
	sourceMetrics.HasColdChain = source.HasColdChain
	if order.RequiresColdChain && len(remaining) == 0 {
		sourceMetrics.HasColdChain = false
	}
	targetMetrics.HasColdChain = target.HasColdChain || order.RequiresColdChain

	return &ReassignmentChange{
		StopID:        stop.ID,
		TargetRouteID: target.ID,
		Placements:    placements,
		Source:        sourceMetrics,
		Target:        targetMetrics,
	}
}

// insertCheapest places the moved stop at the position among the target's
// unvisited stops that adds the least straight-line distance. Visited stops
// keep their positions; the new stop never lands before them.
func insertCheapest(stops []models.RouteStop, moved models.RouteStop, depot maps.Coordinate) []models.RouteStop {
	// First index where insertion is still possible.
	floor := 0
	for i, st := range stops {
		if st.Status != models.StopPending {
			floor = i + 1
		}
	}

	bestPos, bestCost := len(stops), math.Inf(1)
	for pos := floor; pos <= len(stops); pos++ {
		prevLat, prevLng := depot.Lat, depot.Lng
		if pos > 0 {
			prevLat, prevLng = stops[pos-1].Latitude, stops[pos-1].Longitude
		}
		cost := maps.HaversineDistance(prevLat, prevLng, moved.Latitude, moved.Longitude)
		if pos < len(stops) {
			next := stops[pos]
			cost += maps.HaversineDistance(moved.Latitude, moved.Longitude, next.Latitude, next.Longitude)
			cost -= maps.HaversineDistance(prevLat, prevLng, next.Latitude, next.Longitude)
		}
		if cost < bestCost {
			bestPos, bestCost = pos, cost
		}
	}

	out := make([]models.RouteStop, 0, len(stops)+1)
	out = append(out, stops[:bestPos]...)
	out = append(out, moved)
	out = append(out, stops[bestPos:]...)
	return out
}

// walkRoute assigns contiguous sequences to the given stop order, recomputes
// each leg with straight-line distance at the vehicle-independent default
// speed, and returns the route's new aggregate metrics. Placements for every
// stop are added to the shared map.
func (s *service) walkRoute(route *models.Route, stops []models.RouteStop, placements map[string]StopPlacement) RouteMetrics {
	speed := maps.DefaultSpeedKmh
	departure := time.Date(route.PlannedDate.Year(), route.PlannedDate.Month(), route.PlannedDate.Day(),
		departureHour, 0, 0, 0, time.UTC)

	prevLat, prevLng := s.depot.Lat, s.depot.Lng
	totalKm, totalMin := 0.0, 0.0
	for i, st := range stops {
		legKm := maps.HaversineDistance(prevLat, prevLng, st.Latitude, st.Longitude)
		legMin := legKm / speed * 60
		totalKm += legKm
		totalMin += legMin

		p := StopPlacement{
			Sequence:           i,
			DistanceFromPrevKm: legKm,
			TimeFromPrevMin:    int(legMin + 0.5),
		}
		if st.Status == models.StopPending {
			arrival := departure.Add(time.Duration(totalMin * float64(time.Minute)))
			p.EstimatedArrival = &arrival
		}
		placements[st.ID] = p

		totalMin += serviceTimeMinutes
		prevLat, prevLng = st.Latitude, st.Longitude
	}
	returnKm := maps.HaversineDistance(prevLat, prevLng, s.depot.Lat, s.depot.Lng)
	totalKm += returnKm
	totalMin += returnKm / speed * 60

	return RouteMetrics{
		RouteID:              route.ID,
		TotalDistanceKm:      totalKm,
		EstimatedDurationMin: int(totalMin + 0.5),
	}
}
