package fleet

import (
	"context"
	"fmt"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
)

// ServiceInterface defines the fleet operations exposed to handlers and to
// the routing module.
type ServiceInterface interface {
	ListVehicles(ctx context.Context) ([]*models.Vehicle, error)
	ListAvailableVehicles(ctx context.Context) ([]*models.Vehicle, error)
	GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error)
	SetAvailability(ctx context.Context, vehicleID string, req models.VehicleAvailabilityRequest) error
}

type service struct {
	repo    RepositoryInterface
	tracker *Tracker
}

func NewService(repo RepositoryInterface, tracker *Tracker) ServiceInterface {
	return &service{repo: repo, tracker: tracker}
}

func (s *service) ListVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	return s.repo.List(ctx)
}

func (s *service) ListAvailableVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	return s.repo.ListByAvailability(ctx, models.VehicleAvailable)
}

func (s *service) GetVehicle(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	return s.repo.FindByID(ctx, vehicleID)
}

// SetAvailability applies an administrative override. Assignment is never set
// directly: it is owned by route generation through the tracker's Reserve.
func (s *service) SetAvailability(ctx context.Context, vehicleID string, req models.VehicleAvailabilityRequest) error {
	switch req.Availability {
	case models.VehicleAvailable:
		return s.tracker.SetAvailable(ctx, vehicleID)
	case models.VehicleMaintenance:
		return s.tracker.SetMaintenance(ctx, vehicleID)
	case models.VehicleOffline:
		return s.tracker.SetOffline(ctx, vehicleID)
	default:
		return fmt.Errorf("availability %q: %w", req.Availability, models.ErrValidation)
	}
}
