package routing

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/fleet"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/orders"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/maps"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/notify"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Hour of the planned date at which vehicles leave the depot. Arrival
// estimates are offsets from this departure.
const departureHour = 8

// ServiceInterface defines the routing business logic: generation, lifecycle
// management, and mid-flight reassignment.
type ServiceInterface interface {
	Generate(ctx context.Context, req *models.GenerateRoutesRequest) (*models.GenerationResult, error)
	GetRoute(ctx context.Context, routeID string) (*models.Route, error)
	ListRoutes(ctx context.Context, filter RouteFilter) ([]*models.Route, error)
	CancelRoute(ctx context.Context, routeID, reason string) (*models.Route, error)
	UpdateRouteStatus(ctx context.Context, routeID, status string) (*models.Route, error)
	UpdateStopStatus(ctx context.Context, routeID, stopID, status string) (*models.RouteStop, error)
	ReassignOrder(ctx context.Context, sourceRouteID string, req *models.ReassignOrderRequest) (*models.Route, error)
}

type service struct {
	repo      RepositoryInterface
	orderSvc  orders.ServiceInterface
	fleetRepo fleet.RepositoryInterface
	tracker   *fleet.Tracker
	provider  maps.Provider
	publisher notify.Publisher

	depot          maps.Coordinate
	solverTimeout  time.Duration
	solverSlots    *semaphore.Weighted

	// One mutex per planned date serializes generation for that date;
	// different dates proceed in parallel. Per-route mutexes serialize
	// reassignments touching the same route, always acquired in ascending
	// route-ID order.
	mu         sync.Mutex
	dateLocks  map[string]*sync.Mutex
	routeLocks map[string]*sync.Mutex
}

func NewService(
	repo RepositoryInterface,
	orderSvc orders.ServiceInterface,
	fleetRepo fleet.RepositoryInterface,
	tracker *fleet.Tracker,
	provider maps.Provider,
	publisher notify.Publisher,
	depot maps.Coordinate,
	solverTimeout time.Duration,
	solverConcurrency int64,
) ServiceInterface {
	if solverConcurrency < 1 {
		solverConcurrency = 1
	}
	return &service{
		repo:          repo,
		orderSvc:      orderSvc,
		fleetRepo:     fleetRepo,
		tracker:       tracker,
		provider:      provider,
		publisher:     publisher,
		depot:         depot,
		solverTimeout: solverTimeout,
		solverSlots:   semaphore.NewWeighted(solverConcurrency),
		dateLocks:     make(map[string]*sync.Mutex),
		routeLocks:    make(map[string]*sync.Mutex),
	}
}

func (s *service) dateLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.dateLocks[key]
	if !ok {
		l = &sync.Mutex{}
		s.dateLocks[key] = l
	}
	return l
}

func (s *service) routeLock(routeID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.routeLocks[routeID]
	if !ok {
		l = &sync.Mutex{}
		s.routeLocks[routeID] = l
	}
	return l
}

// Generate runs one route-generation pass for a delivery date. Concurrent
// calls for the same date are serialized; when the date already has routes
// and no new pending orders exist, the existing set comes back with
// AlreadyGenerated set. Orders that arrived after the last pass get routes of
// their own on the remaining vehicles. With ForceRegenerate the planned and
// dispatched routes of the date are cancelled and their orders returned to
// the pool first; in-progress routes are never disturbed.
func (s *service) Generate(ctx context.Context, req *models.GenerateRoutesRequest) (*models.GenerationResult, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", req.Date, models.ErrValidation)
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = models.StrategyMinimizeDistance
	}

	lock := s.dateLock(req.Date)
	lock.Lock()
	defer lock.Unlock()

	active, err := s.repo.ListActiveByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("Generate failed: %w", err)
	}
	if len(active) > 0 && req.ForceRegenerate {
		if err := s.cancelForRegeneration(ctx, active); err != nil {
			return nil, err
		}
		active = nil
	}

	pending, err := s.orderSvc.PendingByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("Generate failed: %w", err)
	}
	if len(pending) == 0 {
		if len(active) > 0 {
			return &models.GenerationResult{
				Routes:           active,
				AlreadyGenerated: true,
				TotalDistanceKm:  sumDistance(active),
			}, nil
		}
		return &models.GenerationResult{}, nil
	}

	vehicles, err := s.fleetRepo.ListByAvailability(ctx, models.VehicleAvailable)
	if err != nil {
		return nil, fmt.Errorf("Generate failed: %w", err)
	}

	coords := make([]maps.Coordinate, 0, len(pending)+1)
	coords = append(coords, s.depot)
	for _, o := range pending {
		coords = append(coords, maps.Coordinate{Lat: o.Latitude, Lng: o.Longitude})
	}
	matrix, err := s.provider.Matrix(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("Generate matrix fetch failed (%v): %w", err, models.ErrDistanceProvider)
	}

	started := time.Now()
	solution, err := s.solve(ctx, OptimizerInput{
		Orders:   pending,
		Vehicles: vehicles,
		Matrix:   matrix,
		Strategy: strategy,
	})
	if err != nil {
		return nil, fmt.Errorf("Generate failed: %w", err)
	}
	computation := time.Since(started)

	seq, err := s.repo.CountByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("Generate failed: %w", err)
	}

	routes, orderIDs, skipped := s.materialize(ctx, solution, date, strategy, seq)
	unassigned := append(solution.Unassigned, skipped...)

	if len(routes) > 0 {
		if err := s.repo.CreateRoutes(ctx, routes, orderIDs); err != nil {
			for _, route := range routes {
				if relErr := s.tracker.Release(ctx, route.VehicleID); relErr != nil {
					log.Printf("CRITICAL: vehicle %s reserved but release after failed generation also failed: %v", route.VehicleID, relErr)
				}
			}
			return nil, fmt.Errorf("Generate persist failed: %w", err)
		}
	}

	return &models.GenerationResult{
		Routes:           routes,
		UnassignedOrders: unassigned,
		TotalDistanceKm:  sumDistance(routes),
		ComputationMs:    computation.Milliseconds(),
	}, nil
}

// solve runs the optimizer under the concurrency gate and time budget. The
// optimizer itself is CPU-bound and synchronous, so the budget is enforced by
// racing it against the context.
func (s *service) solve(ctx context.Context, in OptimizerInput) (*Solution, error) {
	if err := s.solverSlots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.solverSlots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.solverTimeout)
	defer cancel()

	type result struct {
		solution *Solution
		err      error
	}
	done := make(chan result, 1)
	go func() {
		sol, err := Optimize(in)
		done <- result{sol, err}
	}()

	select {
	case r := <-done:
		return r.solution, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("optimizer exceeded time budget: %w", ctx.Err())
	}
}

// materialize turns planned routes into persistable models and reserves each
// route's vehicle. A vehicle lost to a concurrent writer between listing and
// reservation drops its route; the route's orders are reported unassigned
// rather than failing the batch.
func (s *service) materialize(ctx context.Context, solution *Solution, date time.Time, strategy string, seq int) ([]*models.Route, []string, []*models.Order) {
	departure := time.Date(date.Year(), date.Month(), date.Day(), departureHour, 0, 0, 0, time.UTC)

	var routes []*models.Route
	var orderIDs []string
	var skipped []*models.Order
	for _, planned := range solution.Routes {
		routeID := uuid.NewString()
		if err := s.tracker.Reserve(ctx, planned.Vehicle.ID, routeID); err != nil {
			for _, stop := range planned.Stops {
				skipped = append(skipped, stop.Order)
			}
			continue
		}

		seq++
		route := &models.Route{
			ID:                   routeID,
			RouteCode:            fmt.Sprintf("R-%s-%02d", date.Format("20060102"), seq),
			VehicleID:            planned.Vehicle.ID,
			DriverName:           planned.Vehicle.DriverName,
			PlannedDate:          date,
			Status:               models.RoutePlanned,
			Strategy:             strategy,
			TotalDistanceKm:      planned.TotalDistanceKm,
			EstimatedDurationMin: int(planned.TotalTimeMin + 0.5),
			TotalWeightKg:        planned.TotalWeightKg,
			TotalVolumeM3:        planned.TotalVolumeM3,
		}
		for i, stop := range planned.Stops {
			arrival := departure.Add(time.Duration(stop.ArrivalMin * float64(time.Minute)))
			route.Stops = append(route.Stops, models.RouteStop{
				ID:                 uuid.NewString(),
				RouteID:            routeID,
				OrderID:            stop.Order.ID,
				Sequence:           i,
				Latitude:           stop.Order.Latitude,
				Longitude:          stop.Order.Longitude,
				Status:             models.StopPending,
				EstimatedArrival:   &arrival,
				DistanceFromPrevKm: stop.DistanceFromPrevKm,
				TimeFromPrevMin:    int(stop.TimeFromPrevMin + 0.5),
			})
			route.HasColdChain = route.HasColdChain || stop.Order.RequiresColdChain
			orderIDs = append(orderIDs, stop.Order.ID)
		}
		routes = append(routes, route)
	}
	return routes, orderIDs, skipped
}

// cancelForRegeneration clears the date's planned and dispatched routes so a
// fresh pass sees their orders again. In-progress routes stay untouched.
func (s *service) cancelForRegeneration(ctx context.Context, active []*models.Route) error {
	for _, route := range active {
		if route.Status != models.RoutePlanned && route.Status != models.RouteDispatched {
			continue
		}
		if _, err := s.cancel(ctx, route, "regeneration requested"); err != nil {
			return fmt.Errorf("cancelForRegeneration route %s failed: %w", route.RouteCode, err)
		}
	}
	return nil
}

func (s *service) GetRoute(ctx context.Context, routeID string) (*models.Route, error) {
	return s.repo.FindRouteByID(ctx, routeID)
}

func (s *service) ListRoutes(ctx context.Context, filter RouteFilter) ([]*models.Route, error) {
	return s.repo.ListRoutes(ctx, filter)
}

// CancelRoute cancels a route on request. Terminal routes cannot be
// cancelled again.
func (s *service) CancelRoute(ctx context.Context, routeID, reason string) (*models.Route, error) {
	route, err := s.repo.FindRouteByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, route, reason)
}

// cancel is the shared cancellation path: orders on stops not yet delivered
// go back to pending, the vehicle returns to the available pool, and the
// cancellation event is published. The route row and its stops survive as
// audit history.
func (s *service) cancel(ctx context.Context, route *models.Route, reason string) (*models.Route, error) {
	if models.RouteTerminal(route.Status) {
		return nil, fmt.Errorf("route %s is %s: %w", route.RouteCode, route.Status, models.ErrRouteTerminal)
	}

	var revert []string
	for _, stop := range route.Stops {
		if stop.Status != models.StopCompleted {
			revert = append(revert, stop.OrderID)
		}
	}

	if err := s.repo.CancelRoute(ctx, route.ID, revert); err != nil {
		return nil, err
	}
	if err := s.tracker.Release(ctx, route.VehicleID); err != nil {
		log.Printf("CRITICAL: route %s cancelled but vehicle %s release failed: %v", route.RouteCode, route.VehicleID, err)
	}

	route.Status = models.RouteCancelled
	s.publisher.Publish(ctx, notify.Event{
		Kind:       notify.EventRouteCancelled,
		RouteID:    route.ID,
		RouteCode:  route.RouteCode,
		VehicleID:  route.VehicleID,
		Detail:     reason,
		OccurredAt: time.Now(),
	})
	return route, nil
}

func sumDistance(routes []*models.Route) float64 {
	total := 0.0
	for _, r := range routes {
		total += r.TotalDistanceKm
	}
	return total
}
