package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface is the read/write boundary to the order records owned
// by the sales service. The dispatch engine reads orders by date and status
// and drives their status transitions; it never creates or deletes them.
type RepositoryInterface interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	ListByDateAndStatus(ctx context.Context, date time.Time, statuses []string) ([]*models.Order, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
	// UpdateStatusTx runs the status change inside a caller-owned transaction
	// so a generation batch can flip orders to routed atomically with the
	// route inserts.
	UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID, status string) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `
	id, order_number, customer_name, delivery_address,
	latitude, longitude, weight_kg, volume_m3,
	requires_cold_chain, delivery_date, status, created_at, updated_at`

func scanOrder(row pgx.Row) (*models.Order, error) {
	o := &models.Order{}
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerName, &o.DeliveryAddress,
		&o.Latitude, &o.Longitude, &o.WeightKg, &o.VolumeM3,
		&o.RequiresColdChain, &o.DeliveryDate, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("FindByID failed: %w", err)
	}
	return o, nil
}

func (r *Repository) ListByDateAndStatus(ctx context.Context, date time.Time, statuses []string) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE delivery_date = $1 AND status = ANY($2)
		ORDER BY order_number`

	rows, err := r.db.Query(ctx, query, date, statuses)
	if err != nil {
		return nil, fmt.Errorf("ListByDateAndStatus failed: %w", err)
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByDateAndStatus Scan failed: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByDateAndStatus rows failed: %w", err)
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID, status string) error {
	const query = `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1`

	cmd, err := r.db.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("UpdateStatus failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, orderID, status string) error {
	const query = `
		UPDATE orders
		SET status = $2, updated_at = now()
		WHERE id = $1`

	cmd, err := tx.Exec(ctx, query, orderID, status)
	if err != nil {
		return fmt.Errorf("UpdateStatusTx failed: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
