package fleet

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
)

// AvailabilityStore persists availability changes decided by the tracker.
type AvailabilityStore interface {
	UpdateAvailability(ctx context.Context, vehicleID, availability string, routeID *string) error
}

// Tracker is the process-wide authoritative record of vehicle availability.
// Every component that touches vehicle state (route generation, status
// transitions, reassignment) goes through Reserve/Release rather than writing
// the vehicle row directly, which closes the race between concurrent
// generation requests: Reserve is a compare-and-set, not read-then-write.
type Tracker struct {
	mu    sync.Mutex
	state map[string]string
	store AvailabilityStore
}

func NewTracker(store AvailabilityStore) *Tracker {
	return &Tracker{
		state: make(map[string]string),
		store: store,
	}
}

// Sync seeds the in-memory state from persisted vehicle records. Called once
// at startup before the tracker accepts reservations.
func (t *Tracker) Sync(vehicles []*models.Vehicle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range vehicles {
		t.state[v.ID] = v.Availability
	}
}

// State returns the tracked availability of a vehicle.
func (t *Tracker) State(vehicleID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state[vehicleID]
	if !ok {
		return "", models.ErrNotFound
	}
	return s, nil
}

// Reserve atomically transitions a vehicle from available to assigned and
// records the owning route. Returns ErrVehicleUnavailable when the vehicle is
// in any other state, which is how two overlapping generation passes are kept
// from double-booking the same vehicle.
func (t *Tracker) Reserve(ctx context.Context, vehicleID, routeID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.state[vehicleID]
	if !ok {
		return models.ErrNotFound
	}
	if current != models.VehicleAvailable {
		return fmt.Errorf("reserve vehicle %s (state %s): %w", vehicleID, current, models.ErrVehicleUnavailable)
	}

	if err := t.store.UpdateAvailability(ctx, vehicleID, models.VehicleAssigned, &routeID); err != nil {
		return fmt.Errorf("reserve vehicle %s: %w", vehicleID, err)
	}
	t.state[vehicleID] = models.VehicleAssigned
	return nil
}

// Release transitions a vehicle back to available from any non-offline state.
// Offline is an administrative override that only SetAvailable may clear.
func (t *Tracker) Release(ctx context.Context, vehicleID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.state[vehicleID]
	if !ok {
		return models.ErrNotFound
	}
	if current == models.VehicleOffline {
		return fmt.Errorf("release vehicle %s: %w", vehicleID, models.ErrVehicleUnavailable)
	}
	if current == models.VehicleAvailable {
		return nil
	}

	if err := t.store.UpdateAvailability(ctx, vehicleID, models.VehicleAvailable, nil); err != nil {
		return fmt.Errorf("release vehicle %s: %w", vehicleID, err)
	}
	t.state[vehicleID] = models.VehicleAvailable
	return nil
}

// SetMaintenance blocks reservation regardless of route state.
func (t *Tracker) SetMaintenance(ctx context.Context, vehicleID string) error {
	return t.override(ctx, vehicleID, models.VehicleMaintenance)
}

// SetOffline blocks reservation regardless of route state.
func (t *Tracker) SetOffline(ctx context.Context, vehicleID string) error {
	return t.override(ctx, vehicleID, models.VehicleOffline)
}

// SetAvailable clears an administrative override.
func (t *Tracker) SetAvailable(ctx context.Context, vehicleID string) error {
	return t.override(ctx, vehicleID, models.VehicleAvailable)
}

func (t *Tracker) override(ctx context.Context, vehicleID, availability string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.state[vehicleID]; !ok {
		return models.ErrNotFound
	}
	if err := t.store.UpdateAvailability(ctx, vehicleID, availability, nil); err != nil {
		return fmt.Errorf("set vehicle %s %s: %w", vehicleID, availability, err)
	}
	t.state[vehicleID] = availability
	return nil
}
