package orders

import (
	"context"
	"time"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
)

// ServiceInterface is the order boundary consumed by the routing module. It
// names the status transitions the dispatch engine is allowed to drive; raw
// status strings stay behind it.
type ServiceInterface interface {
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	PendingByDate(ctx context.Context, date time.Time) ([]*models.Order, error)
	MarkDelivered(ctx context.Context, orderID string) error
	ReturnToPending(ctx context.Context, orderID string) error
}

type service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) ServiceInterface {
	return &service{repo: repo}
}

func (s *service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.repo.FindByID(ctx, orderID)
}

// PendingByDate returns the orders of a delivery date still waiting for a
// route.
func (s *service) PendingByDate(ctx context.Context, date time.Time) ([]*models.Order, error) {
	return s.repo.ListByDateAndStatus(ctx, date, []string{models.OrderPending})
}

func (s *service) MarkDelivered(ctx context.Context, orderID string) error {
	return s.repo.UpdateStatus(ctx, orderID, models.OrderDelivered)
}

// ReturnToPending puts an order back into the routing pool after its stop was
// skipped or its route cancelled.
func (s *service) ReturnToPending(ctx context.Context, orderID string) error {
	return s.repo.UpdateStatus(ctx, orderID, models.OrderPending)
}
