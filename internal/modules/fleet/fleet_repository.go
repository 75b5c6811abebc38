package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the database operations for fleet records.
type RepositoryInterface interface {
	FindByID(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	List(ctx context.Context) ([]*models.Vehicle, error)
	ListByAvailability(ctx context.Context, availability string) ([]*models.Vehicle, error)
	UpdateAvailability(ctx context.Context, vehicleID, availability string, routeID *string) error
}

// Repository implements RepositoryInterface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const vehicleColumns = `
	id, plate, capacity_kg, capacity_m3, has_refrigeration,
	max_stops_per_route, avg_speed_kmh, cost_per_km, driver_name,
	availability, current_route_id, created_at, updated_at`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	v := &models.Vehicle{}
	err := row.Scan(
		&v.ID, &v.Plate, &v.CapacityKg, &v.CapacityM3, &v.HasRefrigeration,
		&v.MaxStopsPerRoute, &v.AvgSpeedKmh, &v.CostPerKm, &v.DriverName,
		&v.Availability, &v.CurrentRouteID, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository) FindByID(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, vehicleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID failed: %w", err)
	}
	return v, nil
}

func (r *Repository) List(ctx context.Context) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY plate`
	return r.list(ctx, query)
}

func (r *Repository) ListByAvailability(ctx context.Context, availability string) ([]*models.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE availability = $1 ORDER BY plate`
	return r.list(ctx, query, availability)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*models.Vehicle, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles failed: %w", err)
	}
	defer rows.Close()

	var out []*models.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("list vehicles Scan failed: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateAvailability(ctx context.Context, vehicleID, availability string, routeID *string) error {
	const query = `
		UPDATE vehicles
		SET availability = $2,
		    current_route_id = $3,
		    updated_at = now()
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, vehicleID, availability, routeID)
	if err != nil {
		return fmt.Errorf("UpdateAvailability failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
