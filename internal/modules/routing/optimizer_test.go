package routing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/maps"
)

// Depot at the Bogotá distribution center used across the optimizer tests.
var testDepot = maps.Coordinate{Lat: 4.6097, Lng: -74.0817}

func testOrder(id string, lat, lng, kg, m3 float64, cold bool) *models.Order {
	return &models.Order{
		ID:                id,
		OrderNumber:       "ORD-" + id,
		Latitude:          lat,
		Longitude:         lng,
		WeightKg:          kg,
		VolumeM3:          m3,
		RequiresColdChain: cold,
		Status:            models.OrderPending,
	}
}

func testVehicle(id string, kg, m3 float64, refrigerated bool) *models.Vehicle {
	return &models.Vehicle{
		ID:               id,
		Plate:            "PLT-" + id,
		CapacityKg:       kg,
		CapacityM3:       m3,
		HasRefrigeration: refrigerated,
		AvgSpeedKmh:      40,
		Availability:     models.VehicleAvailable,
	}
}

// testMatrix builds a haversine matrix with the depot at index 0 and order i
// at index i+1, matching the optimizer's indexing contract.
func testMatrix(t *testing.T, orders []*models.Order) *maps.Matrix {
	t.Helper()
	coords := []maps.Coordinate{testDepot}
	for _, o := range orders {
		coords = append(coords, maps.Coordinate{Lat: o.Latitude, Lng: o.Longitude})
	}
	m, err := maps.NewHaversineProvider(0).Matrix(context.Background(), coords)
	if err != nil {
		t.Fatalf("building matrix: %v", err)
	}
	return m
}

func solutionOrderIDs(sol *Solution) [][]string {
	out := make([][]string, 0, len(sol.Routes))
	for _, r := range sol.Routes {
		ids := make([]string, 0, len(r.Stops))
		for _, st := range r.Stops {
			ids = append(ids, st.Order.ID)
		}
		out = append(out, ids)
	}
	return out
}

func TestOptimizeEmptyOrders(t *testing.T) {
	sol, err := Optimize(OptimizerInput{
		Vehicles: []*models.Vehicle{testVehicle("v1", 100, 10, false)},
		Matrix:   testMatrix(t, nil),
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(sol.Routes) != 0 || len(sol.Unassigned) != 0 {
		t.Errorf("empty input should yield empty solution, got %d routes %d unassigned",
			len(sol.Routes), len(sol.Unassigned))
	}
}

func TestOptimizeNoVehicles(t *testing.T) {
	ordersIn := []*models.Order{
		testOrder("o1", 4.62, -74.07, 10, 1, false),
		testOrder("o2", 4.63, -74.06, 10, 1, false),
	}
	sol, err := Optimize(OptimizerInput{Orders: ordersIn, Matrix: testMatrix(t, ordersIn)})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(sol.Routes) != 0 {
		t.Errorf("no vehicles should yield no routes, got %d", len(sol.Routes))
	}
	if len(sol.Unassigned) != 2 {
		t.Errorf("all orders should be unassigned, got %d", len(sol.Unassigned))
	}
}

func TestOptimizeMatrixMismatch(t *testing.T) {
	ordersIn := []*models.Order{testOrder("o1", 4.62, -74.07, 10, 1, false)}

	_, err := Optimize(OptimizerInput{
		Orders:   ordersIn,
		Vehicles: []*models.Vehicle{testVehicle("v1", 100, 10, false)},
		Matrix:   testMatrix(t, nil), // depot only, one row short
	})
	if !errors.Is(err, models.ErrMatrixDimension) {
		t.Fatalf("want ErrMatrixDimension, got %v", err)
	}

	if _, err := Optimize(OptimizerInput{Orders: ordersIn}); !errors.Is(err, models.ErrMatrixDimension) {
		t.Fatalf("nil matrix: want ErrMatrixDimension, got %v", err)
	}
}

// Two orders, one cold chain; two vehicles, one refrigerated. The cold order
// must land on the refrigerated vehicle under both strategies.
func TestOptimizeColdChainAssignment(t *testing.T) {
	ordersIn := []*models.Order{
		testOrder("o1", 4.62, -74.07, 40, 2, true),
		testOrder("o2", 4.70, -74.05, 40, 2, false),
	}
	vehicles := []*models.Vehicle{
		testVehicle("v1", 100, 10, false),
		testVehicle("v2", 100, 10, true),
	}
	matrix := testMatrix(t, ordersIn)

	for _, strategy := range []string{models.StrategyMinimizeDistance, models.StrategyMinimizeVehicles} {
		t.Run(strategy, func(t *testing.T) {
			sol, err := Optimize(OptimizerInput{
				Orders: ordersIn, Vehicles: vehicles, Matrix: matrix, Strategy: strategy,
			})
			if err != nil {
				t.Fatalf("Optimize: %v", err)
			}
			if len(sol.Unassigned) != 0 {
				t.Fatalf("both orders are assignable, got %d unassigned", len(sol.Unassigned))
			}
			for _, r := range sol.Routes {
				for _, st := range r.Stops {
					if st.Order.RequiresColdChain && !r.Vehicle.HasRefrigeration {
						t.Errorf("cold order %s placed on ambient vehicle %s", st.Order.ID, r.Vehicle.ID)
					}
				}
			}
		})
	}
}

func TestOptimizeRespectsCapacity(t *testing.T) {
	var ordersIn []*models.Order
	for i := 0; i < 6; i++ {
		ordersIn = append(ordersIn, testOrder(
			fmt.Sprintf("o%d", i+1),
			4.60+float64(i)*0.01, -74.08+float64(i)*0.01,
			30, 2, false,
		))
	}
	vehicles := []*models.Vehicle{
		testVehicle("v1", 100, 10, false),
		testVehicle("v2", 100, 10, false),
	}

	sol, err := Optimize(OptimizerInput{
		Orders: ordersIn, Vehicles: vehicles, Matrix: testMatrix(t, ordersIn),
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	for _, r := range sol.Routes {
		var kg, m3 float64
		for _, st := range r.Stops {
			kg += st.Order.WeightKg
			m3 += st.Order.VolumeM3
		}
		if kg > r.Vehicle.CapacityKg || m3 > r.Vehicle.CapacityM3 {
			t.Errorf("route on %s overloads vehicle: %.1fkg/%.1fkg %.1fm3/%.1fm3",
				r.Vehicle.ID, kg, r.Vehicle.CapacityKg, m3, r.Vehicle.CapacityM3)
		}
		if kg != r.TotalWeightKg || m3 != r.TotalVolumeM3 {
			t.Errorf("route totals disagree with stop sums")
		}
	}

	assigned := 0
	for _, r := range sol.Routes {
		assigned += len(r.Stops)
	}
	if assigned+len(sol.Unassigned) != len(ordersIn) {
		t.Errorf("orders lost: %d assigned + %d unassigned != %d",
			assigned, len(sol.Unassigned), len(ordersIn))
	}
}

func TestOptimizeOversizedOrderUnassigned(t *testing.T) {
	ordersIn := []*models.Order{
		testOrder("o1", 4.62, -74.07, 500, 1, false),
		testOrder("o2", 4.63, -74.06, 10, 1, false),
	}
	sol, err := Optimize(OptimizerInput{
		Orders:   ordersIn,
		Vehicles: []*models.Vehicle{testVehicle("v1", 100, 10, false)},
		Matrix:   testMatrix(t, ordersIn),
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(sol.Unassigned) != 1 || sol.Unassigned[0].ID != "o1" {
		t.Fatalf("oversized order o1 should be the only unassigned one, got %v", sol.Unassigned)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	var ordersIn []*models.Order
	for i := 0; i < 8; i++ {
		ordersIn = append(ordersIn, testOrder(
			fmt.Sprintf("o%d", i+1),
			4.58+float64(i%4)*0.03, -74.10+float64(i/4)*0.04,
			20, 1.5, i%3 == 0,
		))
	}
	vehicles := []*models.Vehicle{
		testVehicle("v1", 90, 8, true),
		testVehicle("v2", 90, 8, false),
		testVehicle("v3", 60, 5, false),
	}
	matrix := testMatrix(t, ordersIn)

	in := OptimizerInput{Orders: ordersIn, Vehicles: vehicles, Matrix: matrix}
	first, err := Optimize(in)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Optimize(in)
		if err != nil {
			t.Fatalf("Optimize run %d: %v", i, err)
		}
		a, b := solutionOrderIDs(first), solutionOrderIDs(again)
		if fmt.Sprint(a) != fmt.Sprint(b) {
			t.Fatalf("run %d diverged:\nfirst: %v\nagain: %v", i, a, b)
		}
	}
}

func TestOptimizeMinimizeVehiclesPacksTighter(t *testing.T) {
	var ordersIn []*models.Order
	for i := 0; i < 4; i++ {
		ordersIn = append(ordersIn, testOrder(
			fmt.Sprintf("o%d", i+1),
			4.61+float64(i)*0.005, -74.08, 20, 1, false,
		))
	}
	vehicles := []*models.Vehicle{
		testVehicle("v1", 100, 10, false),
		testVehicle("v2", 40, 4, false),
	}

	sol, err := Optimize(OptimizerInput{
		Orders: ordersIn, Vehicles: vehicles,
		Matrix:   testMatrix(t, ordersIn),
		Strategy: models.StrategyMinimizeVehicles,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(sol.Unassigned) != 0 {
		t.Fatalf("all orders fit the big vehicle, got %d unassigned", len(sol.Unassigned))
	}
	if len(sol.Routes) != 1 {
		t.Errorf("80kg of orders fit one 100kg vehicle, got %d routes", len(sol.Routes))
	}
}

func TestOptimizeStopMetrics(t *testing.T) {
	ordersIn := []*models.Order{
		testOrder("o1", 4.62, -74.07, 10, 1, false),
		testOrder("o2", 4.65, -74.05, 10, 1, false),
		testOrder("o3", 4.68, -74.03, 10, 1, false),
	}
	sol, err := Optimize(OptimizerInput{
		Orders:   ordersIn,
		Vehicles: []*models.Vehicle{testVehicle("v1", 100, 10, false)},
		Matrix:   testMatrix(t, ordersIn),
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if len(sol.Routes) != 1 {
		t.Fatalf("expected a single route, got %d", len(sol.Routes))
	}

	r := sol.Routes[0]
	var legSum float64
	prevArrival := -1.0
	for _, st := range r.Stops {
		if st.DistanceFromPrevKm <= 0 {
			t.Errorf("stop %s has non-positive leg distance", st.Order.ID)
		}
		if st.ArrivalMin <= prevArrival {
			t.Errorf("stop %s arrival %.1f not after previous %.1f", st.Order.ID, st.ArrivalMin, prevArrival)
		}
		prevArrival = st.ArrivalMin
		legSum += st.DistanceFromPrevKm
	}
	// Total includes the return leg to the depot, so it must exceed the sum of
	// the outbound legs.
	if r.TotalDistanceKm <= legSum {
		t.Errorf("total %.2f should include the return leg beyond %.2f", r.TotalDistanceKm, legSum)
	}
}
