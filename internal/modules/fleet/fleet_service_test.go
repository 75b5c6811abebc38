package fleet

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
)

type fakeFleetRepo struct {
	vehicles map[string]*models.Vehicle
}

func newFakeFleetRepo(vehicles ...*models.Vehicle) *fakeFleetRepo {
	f := &fakeFleetRepo{vehicles: make(map[string]*models.Vehicle)}
	for _, v := range vehicles {
		cp := *v
		f.vehicles[v.ID] = &cp
	}
	return f
}

func (f *fakeFleetRepo) FindByID(ctx context.Context, vehicleID string) (*models.Vehicle, error) {
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeFleetRepo) List(ctx context.Context) ([]*models.Vehicle, error) {
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeFleetRepo) ListByAvailability(ctx context.Context, availability string) ([]*models.Vehicle, error) {
	all, _ := f.List(ctx)
	var out []*models.Vehicle
	for _, v := range all {
		if v.Availability == availability {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeFleetRepo) UpdateAvailability(ctx context.Context, vehicleID, availability string, routeID *string) error {
	v, ok := f.vehicles[vehicleID]
	if !ok {
		return models.ErrNotFound
	}
	v.Availability = availability
	v.CurrentRouteID = routeID
	return nil
}

func newTestService(repo *fakeFleetRepo) ServiceInterface {
	tracker := NewTracker(repo)
	vehicles, _ := repo.List(context.Background())
	tracker.Sync(vehicles)
	return NewService(repo, tracker)
}

func TestListAvailableVehicles(t *testing.T) {
	repo := newFakeFleetRepo(
		&models.Vehicle{ID: "v1", Availability: models.VehicleAvailable},
		&models.Vehicle{ID: "v2", Availability: models.VehicleAssigned},
		&models.Vehicle{ID: "v3", Availability: models.VehicleMaintenance},
	)
	svc := newTestService(repo)

	got, err := svc.ListAvailableVehicles(context.Background())
	if err != nil {
		t.Fatalf("ListAvailableVehicles: %v", err)
	}
	if len(got) != 1 || got[0].ID != "v1" {
		t.Fatalf("want only v1, got %d vehicles", len(got))
	}
}

func TestSetAvailabilityWritesThrough(t *testing.T) {
	repo := newFakeFleetRepo(&models.Vehicle{ID: "v1", Availability: models.VehicleAvailable})
	svc := newTestService(repo)
	ctx := context.Background()

	if err := svc.SetAvailability(ctx, "v1", models.VehicleAvailabilityRequest{Availability: models.VehicleMaintenance}); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	if repo.vehicles["v1"].Availability != models.VehicleMaintenance {
		t.Errorf("override should persist, repo has %s", repo.vehicles["v1"].Availability)
	}

	err := svc.SetAvailability(ctx, "v1", models.VehicleAvailabilityRequest{Availability: models.VehicleAssigned})
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("assigned is not an administrative state, got %v", err)
	}

	err = svc.SetAvailability(ctx, "ghost", models.VehicleAvailabilityRequest{Availability: models.VehicleOffline})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("unknown vehicle: want ErrNotFound, got %v", err)
	}
}
