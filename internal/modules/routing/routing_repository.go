package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/modules/orders"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RouteFilter narrows ListRoutes. Zero values mean "any".
type RouteFilter struct {
	Date   *time.Time
	Status string
	Limit  int
	Offset int
}

// StopPlacement is one stop's recomputed position and travel metrics after a
// reassignment.
type StopPlacement struct {
	Sequence           int
	DistanceFromPrevKm float64
	TimeFromPrevMin    int
	EstimatedArrival   *time.Time
}

// ReassignmentChange is the full effect of moving one order between routes,
// applied in a single transaction: the stop's new home, the re-sequenced stop
// order and travel metrics on both routes, and both routes' recomputed
// aggregate metrics.
type ReassignmentChange struct {
	StopID        string
	TargetRouteID string
	// Placements keyed by stop ID, covering every stop of both affected
	// routes.
	Placements map[string]StopPlacement
	Source     RouteMetrics
	Target     RouteMetrics
}

// RouteMetrics is the recomputed aggregate block written back to a route.
type RouteMetrics struct {
	RouteID              string
	TotalDistanceKm      float64
	EstimatedDurationMin int
	TotalWeightKg        float64
	TotalVolumeM3        float64
	HasColdChain         bool
}

// RepositoryInterface defines the persistence operations the routing module
// needs: batched all-or-nothing route creation, lifecycle updates, and the
// two-route reassignment write.
type RepositoryInterface interface {
	CreateRoutes(ctx context.Context, routes []*models.Route, routedOrderIDs []string) error
	FindRouteByID(ctx context.Context, routeID string) (*models.Route, error)
	ListRoutes(ctx context.Context, filter RouteFilter) ([]*models.Route, error)
	ListActiveByDate(ctx context.Context, date time.Time) ([]*models.Route, error)
	CountByDate(ctx context.Context, date time.Time) (int, error)
	UpdateRouteStatus(ctx context.Context, routeID, status string) error
	CancelRoute(ctx context.Context, routeID string, revertOrderIDs []string) error
	FindActiveStopByOrder(ctx context.Context, orderID string) (*models.RouteStop, error)
	UpdateStopStatus(ctx context.Context, stopID, status string, arrival, departure *time.Time) error
	ApplyReassignment(ctx context.Context, change *ReassignmentChange) error
}

// Repository implements RepositoryInterface using PostgreSQL. Order status
// writes go through the orders repository so the routing module never owns
// SQL against the orders table.
type Repository struct {
	db        *pgxpool.Pool
	orderRepo orders.RepositoryInterface
}

func NewRepository(db *pgxpool.Pool, orderRepo orders.RepositoryInterface) RepositoryInterface {
	return &Repository{db: db, orderRepo: orderRepo}
}

const routeColumns = `
	id, route_code, vehicle_id, driver_name, planned_date, status, strategy,
	total_distance_km, estimated_duration_minutes, total_weight_kg,
	total_volume_m3, has_cold_chain, created_at, updated_at`

const stopColumns = `
	id, route_id, order_id, sequence, latitude, longitude, status,
	estimated_arrival, actual_arrival, actual_departure,
	distance_from_prev_km, time_from_prev_minutes`

func scanRoute(row pgx.Row) (*models.Route, error) {
	r := &models.Route{}
	err := row.Scan(
		&r.ID, &r.RouteCode, &r.VehicleID, &r.DriverName, &r.PlannedDate,
		&r.Status, &r.Strategy, &r.TotalDistanceKm, &r.EstimatedDurationMin,
		&r.TotalWeightKg, &r.TotalVolumeM3, &r.HasColdChain,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func scanStop(row pgx.Row) (*models.RouteStop, error) {
	s := &models.RouteStop{}
	err := row.Scan(
		&s.ID, &s.RouteID, &s.OrderID, &s.Sequence, &s.Latitude, &s.Longitude,
		&s.Status, &s.EstimatedArrival, &s.ActualArrival, &s.ActualDeparture,
		&s.DistanceFromPrevKm, &s.TimeFromPrevMin,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateRoutes persists a full generation batch: every route, every stop, and
// the routed status flip on the assigned orders commit together or not at
// all, so a failure can never leave a half-assigned fleet.
func (r *Repository) CreateRoutes(ctx context.Context, routes []*models.Route, routedOrderIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("CreateRoutes begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRoute = `
		INSERT INTO delivery_routes (
			id, route_code, vehicle_id, driver_name, planned_date, status, strategy,
			total_distance_km, estimated_duration_minutes, total_weight_kg,
			total_volume_m3, has_cold_chain
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	const insertStop = `
		INSERT INTO route_stops (
			id, route_id, order_id, sequence, latitude, longitude, status,
			estimated_arrival, distance_from_prev_km, time_from_prev_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	for _, route := range routes {
		_, err = tx.Exec(ctx, insertRoute,
			route.ID, route.RouteCode, route.VehicleID, route.DriverName,
			route.PlannedDate, route.Status, route.Strategy,
			route.TotalDistanceKm, route.EstimatedDurationMin,
			route.TotalWeightKg, route.TotalVolumeM3, route.HasColdChain,
		)
		if err != nil {
			return fmt.Errorf("CreateRoutes insert route %s failed: %w", route.RouteCode, mapPgError(err))
		}
		for _, stop := range route.Stops {
			_, err = tx.Exec(ctx, insertStop,
				stop.ID, stop.RouteID, stop.OrderID, stop.Sequence,
				stop.Latitude, stop.Longitude, stop.Status,
				stop.EstimatedArrival, stop.DistanceFromPrevKm, stop.TimeFromPrevMin,
			)
			if err != nil {
				return fmt.Errorf("CreateRoutes insert stop %d of %s failed: %w", stop.Sequence, route.RouteCode, mapPgError(err))
			}
		}
	}

	for _, orderID := range routedOrderIDs {
		if err = r.orderRepo.UpdateStatusTx(ctx, tx, orderID, models.OrderRouted); err != nil {
			return fmt.Errorf("CreateRoutes mark order %s routed failed: %w", orderID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("CreateRoutes commit failed: %w", err)
	}
	return nil
}

// mapPgError converts a unique violation into the domain conflict error. The
// partial unique index on active stops' order_id is the database-level guard
// behind the "one active assignment per order" invariant.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%s: %w", pgErr.ConstraintName, models.ErrConflict)
	}
	return err
}

func (r *Repository) FindRouteByID(ctx context.Context, routeID string) (*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM delivery_routes WHERE id = $1`

	route, err := scanRoute(r.db.QueryRow(ctx, query, routeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindRouteByID failed: %w", err)
	}

	if route.Stops, err = r.listStops(ctx, routeID); err != nil {
		return nil, err
	}
	return route, nil
}

func (r *Repository) listStops(ctx context.Context, routeID string) ([]models.RouteStop, error) {
	query := `SELECT ` + stopColumns + ` FROM route_stops WHERE route_id = $1 ORDER BY sequence`

	rows, err := r.db.Query(ctx, query, routeID)
	if err != nil {
		return nil, fmt.Errorf("listStops failed: %w", err)
	}
	defer rows.Close()

	var out []models.RouteStop
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("listStops Scan failed: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listStops rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) ListRoutes(ctx context.Context, filter RouteFilter) ([]*models.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM delivery_routes WHERE 1=1`
	args := []any{}

	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND planned_date = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY route_code"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	return r.queryRoutes(ctx, query, args...)
}

// ListActiveByDate returns the non-terminal routes planned for a date,
// including their stops. Backs the idempotency check and force regeneration.
func (r *Repository) ListActiveByDate(ctx context.Context, date time.Time) ([]*models.Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM delivery_routes
		WHERE planned_date = $1 AND status NOT IN ($2, $3)
		ORDER BY route_code`

	routes, err := r.queryRoutes(ctx, query, date, models.RouteCompleted, models.RouteCancelled)
	if err != nil {
		return nil, err
	}
	for _, route := range routes {
		if route.Stops, err = r.listStops(ctx, route.ID); err != nil {
			return nil, err
		}
	}
	return routes, nil
}

func (r *Repository) queryRoutes(ctx context.Context, query string, args ...any) ([]*models.Route, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queryRoutes failed: %w", err)
	}
	defer rows.Close()

	var out []*models.Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("queryRoutes Scan failed: %w", err)
		}
		out = append(out, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queryRoutes rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	const query = `SELECT count(*) FROM delivery_routes WHERE planned_date = $1`

	var n int
	if err := r.db.QueryRow(ctx, query, date).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountByDate failed: %w", err)
	}
	return n, nil
}

func (r *Repository) UpdateRouteStatus(ctx context.Context, routeID, status string) error {
	const query = `
		UPDATE delivery_routes
		SET status = $2, updated_at = now()
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, routeID, status)
	if err != nil {
		return fmt.Errorf("UpdateRouteStatus failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CancelRoute marks the route cancelled and reverts the given orders to
// pending in one transaction. Stops keep their final statuses: cancellation
// preserves audit history.
func (r *Repository) CancelRoute(ctx context.Context, routeID string, revertOrderIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("CancelRoute begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const cancelRoute = `
		UPDATE delivery_routes SET status = $2, updated_at = now() WHERE id = $1`
	cmd, err := tx.Exec(ctx, cancelRoute, routeID, models.RouteCancelled)
	if err != nil {
		return fmt.Errorf("CancelRoute update failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	for _, orderID := range revertOrderIDs {
		if err := r.orderRepo.UpdateStatusTx(ctx, tx, orderID, models.OrderPending); err != nil {
			return fmt.Errorf("CancelRoute revert order %s failed: %w", orderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("CancelRoute commit failed: %w", err)
	}
	return nil
}

// FindActiveStopByOrder locates the order's stop on a non-cancelled route.
// Every routed order has exactly one.
func (r *Repository) FindActiveStopByOrder(ctx context.Context, orderID string) (*models.RouteStop, error) {
	query := `
		SELECT ` + stopColumns + `
		FROM route_stops s
		JOIN delivery_routes dr ON dr.id = s.route_id
		WHERE s.order_id = $1 AND dr.status != $2`

	s, err := scanStop(r.db.QueryRow(ctx, query, orderID, models.RouteCancelled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindActiveStopByOrder failed: %w", err)
	}
	return s, nil
}

func (r *Repository) UpdateStopStatus(ctx context.Context, stopID, status string, arrival, departure *time.Time) error {
	const query = `
		UPDATE route_stops
		SET status = $2,
		    actual_arrival = COALESCE($3, actual_arrival),
		    actual_departure = COALESCE($4, actual_departure)
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, stopID, status, arrival, departure)
	if err != nil {
		return fmt.Errorf("UpdateStopStatus failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ApplyReassignment moves a stop to its target route, rewrites the sequence
// numbers of both routes, and writes back both metric blocks, all in one
// transaction. Sequences are parked in negative space first so the per-route
// uniqueness constraint never trips mid-rewrite.
func (r *Repository) ApplyReassignment(ctx context.Context, change *ReassignmentChange) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ApplyReassignment begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	const move = `
		UPDATE route_stops SET route_id = $2, sequence = -1 - sequence WHERE id = $1`
	if _, err := tx.Exec(ctx, move, change.StopID, change.TargetRouteID); err != nil {
		return fmt.Errorf("ApplyReassignment move stop failed: %w", err)
	}

	const park = `
		UPDATE route_stops SET sequence = -1 - sequence
		WHERE route_id IN ($1, $2) AND sequence >= 0`
	if _, err := tx.Exec(ctx, park, change.Source.RouteID, change.Target.RouteID); err != nil {
		return fmt.Errorf("ApplyReassignment park sequences failed: %w", err)
	}

	const place = `
		UPDATE route_stops
		SET sequence = $2,
		    distance_from_prev_km = $3,
		    time_from_prev_minutes = $4,
		    estimated_arrival = COALESCE($5, estimated_arrival)
		WHERE id = $1`
	for stopID, p := range change.Placements {
		if _, err := tx.Exec(ctx, place, stopID,
			p.Sequence, p.DistanceFromPrevKm, p.TimeFromPrevMin, p.EstimatedArrival,
		); err != nil {
			return fmt.Errorf("ApplyReassignment place stop failed: %w", err)
		}
	}

	const metrics = `
		UPDATE delivery_routes
		SET total_distance_km = $2,
		    estimated_duration_minutes = $3,
		    total_weight_kg = $4,
		    total_volume_m3 = $5,
		    has_cold_chain = $6,
		    updated_at = now()
		WHERE id = $1`
	for _, m := range []RouteMetrics{change.Source, change.Target} {
		if _, err := tx.Exec(ctx, metrics,
			m.RouteID, m.TotalDistanceKm, m.EstimatedDurationMin,
			m.TotalWeightKg, m.TotalVolumeM3, m.HasColdChain,
		); err != nil {
			return fmt.Errorf("ApplyReassignment metrics for %s failed: %w", m.RouteID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ApplyReassignment commit failed: %w", err)
	}
	return nil
}
