package routing

import (
	"testing"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
)

func TestFeasible(t *testing.T) {
	refrigerated := &models.Vehicle{ID: "v1", CapacityKg: 100, CapacityM3: 10, HasRefrigeration: true}
	ambient := &models.Vehicle{ID: "v2", CapacityKg: 100, CapacityM3: 10}

	cases := []struct {
		name    string
		order   *models.Order
		vehicle *models.Vehicle
		want    bool
	}{
		{"fits", &models.Order{WeightKg: 50, VolumeM3: 5}, ambient, true},
		{"exact capacity", &models.Order{WeightKg: 100, VolumeM3: 10}, ambient, true},
		{"too heavy", &models.Order{WeightKg: 101, VolumeM3: 1}, ambient, false},
		{"too bulky", &models.Order{WeightKg: 1, VolumeM3: 11}, ambient, false},
		{"cold on ambient", &models.Order{WeightKg: 1, VolumeM3: 1, RequiresColdChain: true}, ambient, false},
		{"cold on refrigerated", &models.Order{WeightKg: 1, VolumeM3: 1, RequiresColdChain: true}, refrigerated, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Feasible(tc.order, tc.vehicle); got != tc.want {
				t.Errorf("Feasible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFeasibleSetAggregates(t *testing.T) {
	v := &models.Vehicle{ID: "v1", CapacityKg: 100, CapacityM3: 10}

	fits := []*models.Order{
		{WeightKg: 60, VolumeM3: 4},
		{WeightKg: 40, VolumeM3: 6},
	}
	if !FeasibleSet(fits, v) {
		t.Error("set at exact capacity should be feasible")
	}

	overweight := []*models.Order{
		{WeightKg: 60, VolumeM3: 1},
		{WeightKg: 41, VolumeM3: 1},
	}
	if FeasibleSet(overweight, v) {
		t.Error("set over aggregate weight should not be feasible")
	}

	coldMember := []*models.Order{
		{WeightKg: 1, VolumeM3: 1},
		{WeightKg: 1, VolumeM3: 1, RequiresColdChain: true},
	}
	if FeasibleSet(coldMember, v) {
		t.Error("set with a cold-chain member should not fit an ambient vehicle")
	}
}

func TestFitsWithLoad(t *testing.T) {
	v := &models.Vehicle{ID: "v1", CapacityKg: 100, CapacityM3: 10}
	order := &models.Order{WeightKg: 30, VolumeM3: 3}

	if !FitsWithLoad(order, v, 70, 7) {
		t.Error("order filling the vehicle exactly should fit")
	}
	if FitsWithLoad(order, v, 71, 0) {
		t.Error("order over remaining weight should not fit")
	}
	if FitsWithLoad(order, v, 0, 7.5) {
		t.Error("order over remaining volume should not fit")
	}
}

func TestFilterFeasibleVehicles(t *testing.T) {
	vehicles := []*models.Vehicle{
		{ID: "small", CapacityKg: 10, CapacityM3: 1},
		{ID: "big", CapacityKg: 100, CapacityM3: 10},
		{ID: "cold", CapacityKg: 100, CapacityM3: 10, HasRefrigeration: true},
	}

	cold := &models.Order{WeightKg: 50, VolumeM3: 5, RequiresColdChain: true}
	got := FilterFeasibleVehicles(cold, vehicles)
	if len(got) != 1 || got[0].ID != "cold" {
		t.Fatalf("cold order should only match the refrigerated vehicle, got %d matches", len(got))
	}

	impossible := &models.Order{WeightKg: 500, VolumeM3: 1}
	if got := FilterFeasibleVehicles(impossible, vehicles); len(got) != 0 {
		t.Errorf("oversized order should match no vehicle, got %d", len(got))
	}
}
