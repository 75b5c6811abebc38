package routing

import (
	"fmt"
	"math"
	"slices"

	"github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"
	"github.com/jhonavil2003/Medisupply-Backend-sub003/pkg/maps"
)

// Minutes spent unloading at each delivery stop, folded into arrival
// estimates.
const serviceTimeMinutes = 15.0

// OptimizerInput carries everything one optimization pass needs. Matrix index
// 0 is the depot; order i maps to matrix index i+1.
type OptimizerInput struct {
	Orders   []*models.Order
	Vehicles []*models.Vehicle
	Matrix   *maps.Matrix
	Strategy string
}

// PlannedStop is one delivery in a planned route, annotated with the travel
// metrics from the previous point.
type PlannedStop struct {
	Order              *models.Order
	matrixIndex        int
	DistanceFromPrevKm float64
	TimeFromPrevMin    float64
	ArrivalMin         float64
}

// PlannedRoute is one vehicle's ordered stop sequence with aggregate metrics.
type PlannedRoute struct {
	Vehicle         *models.Vehicle
	Stops           []PlannedStop
	TotalDistanceKm float64
	TotalTimeMin    float64
	TotalWeightKg   float64
	TotalVolumeM3   float64
}

// Solution is the optimizer output: an assignment-plus-sequencing over the
// fleet and the orders that no feasible vehicle could take. Unassignable
// orders are reported, never silently dropped.
type Solution struct {
	Routes     []*PlannedRoute
	Unassigned []*models.Order
}

// Optimize partitions and sequences orders into vehicle trips minimizing
// travel cost under capacity and cold-chain constraints. Deterministic for a
// fixed input: orders and vehicles are canonically sorted before the search
// and every tie is broken lexicographically, so idempotent regeneration
// reproduces the same route set.
//
// Strategy minimize_distance clusters orders with Clarke-Wright savings, maps
// clusters onto the smallest vehicles that fit, and sequences each route with
// nearest-neighbor plus 2-opt. Strategy minimize_vehicles fills the
// largest-capacity vehicles first until each is full. Both treat cold chain
// as a hard compatibility class: a cluster carrying any cold-chain order only
// ever maps onto refrigerated vehicles.
func Optimize(in OptimizerInput) (*Solution, error) {
	if in.Matrix == nil || in.Matrix.Size() != len(in.Orders)+1 {
		size := 0
		if in.Matrix != nil {
			size = in.Matrix.Size()
		}
		return nil, fmt.Errorf("matrix has %d locations for %d orders: %w",
			size, len(in.Orders), models.ErrMatrixDimension)
	}

	if len(in.Orders) == 0 {
		return &Solution{}, nil
	}

	orders := slices.Clone(in.Orders)
	slices.SortFunc(orders, func(a, b *models.Order) int {
		return compareStrings(a.ID, b.ID)
	})
	index := matrixIndexByOrder(in.Orders)

	if len(in.Vehicles) == 0 {
		return &Solution{Unassigned: orders}, nil
	}

	vehicles := slices.Clone(in.Vehicles)

	// Orders no vehicle in the pool could ever carry are settled up front.
	var routable []*models.Order
	var unassigned []*models.Order
	for _, o := range orders {
		if len(FilterFeasibleVehicles(o, vehicles)) == 0 {
			unassigned = append(unassigned, o)
			continue
		}
		routable = append(routable, o)
	}

	var routes []*PlannedRoute
	var leftover []*models.Order
	switch in.Strategy {
	case models.StrategyMinimizeVehicles:
		routes, leftover = packByCapacity(routable, vehicles, in.Matrix, index)
	default:
		routes, leftover = clusterBySavings(routable, vehicles, in.Matrix, index)
	}
	unassigned = append(unassigned, leftover...)

	for _, r := range routes {
		sequenceRoute(r, in.Matrix, index)
	}

	slices.SortFunc(routes, func(a, b *PlannedRoute) int {
		return compareStrings(a.Vehicle.ID, b.Vehicle.ID)
	})
	slices.SortFunc(unassigned, func(a, b *models.Order) int {
		return compareStrings(a.ID, b.ID)
	})
	return &Solution{Routes: routes, Unassigned: unassigned}, nil
}

func matrixIndexByOrder(orders []*models.Order) map[string]int {
	m := make(map[string]int, len(orders))
	for i, o := range orders {
		m[o.ID] = i + 1
	}
	return m
}

// packByCapacity implements minimize_vehicles: largest vehicles first, each
// filled with its nearest feasible orders until capacity or the stop limit is
// reached. Refrigerated vehicles take cold-chain orders before anything else
// so ambient cargo never strands a cold order.
func packByCapacity(orders []*models.Order, vehicles []*models.Vehicle, matrix *maps.Matrix, index map[string]int) ([]*PlannedRoute, []*models.Order) {
	pool := slices.Clone(vehicles)
	slices.SortFunc(pool, func(a, b *models.Vehicle) int {
		if a.CapacityKg != b.CapacityKg {
			if a.CapacityKg > b.CapacityKg {
				return -1
			}
			return 1
		}
		// Keep refrigerated capacity in reserve for cold-chain cargo.
		if a.HasRefrigeration != b.HasRefrigeration {
			if !a.HasRefrigeration {
				return -1
			}
			return 1
		}
		return compareStrings(a.ID, b.ID)
	})

	remaining := slices.Clone(orders)
	var routes []*PlannedRoute

	for _, v := range pool {
		if len(remaining) == 0 {
			break
		}
		route := fillVehicle(v, &remaining, matrix, index)
		if len(route.Stops) > 0 {
			routes = append(routes, route)
		}
	}
	return routes, remaining
}

// fillVehicle walks nearest-feasible-first from the depot, consuming orders
// from remaining until nothing more fits.
func fillVehicle(v *models.Vehicle, remaining *[]*models.Order, matrix *maps.Matrix, index map[string]int) *PlannedRoute {
	route := &PlannedRoute{Vehicle: v}
	maxStops := v.MaxStopsPerRoute
	if maxStops <= 0 {
		maxStops = math.MaxInt
	}
	current := 0 // depot

	// Cold-chain orders are offered first on refrigerated vehicles.
	phases := [][]bool{{true}, {false}}
	if !v.HasRefrigeration {
		phases = [][]bool{{false}}
	}

	for _, phase := range phases {
		wantCold := phase[0]
		for len(route.Stops) < maxStops {
			best := -1
			bestCost := math.MaxFloat64
			for i, o := range *remaining {
				if o.RequiresColdChain != wantCold {
					continue
				}
				if !FitsWithLoad(o, v, route.TotalWeightKg, route.TotalVolumeM3) {
					continue
				}
				cost := matrix.DistanceKm[current][index[o.ID]]
				if cost < bestCost || (cost == bestCost && best >= 0 && o.ID < (*remaining)[best].ID) {
					bestCost = cost
					best = i
				}
			}
			if best < 0 {
				break
			}
			o := (*remaining)[best]
			route.Stops = append(route.Stops, PlannedStop{Order: o, matrixIndex: index[o.ID]})
			route.TotalWeightKg += o.WeightKg
			route.TotalVolumeM3 += o.VolumeM3
			current = index[o.ID]
			*remaining = slices.Delete(*remaining, best, best+1)
		}
	}
	return route
}

type cluster struct {
	orders   []*models.Order
	weightKg float64
	volumeM3 float64
	cold     bool
}

type saving struct {
	i, j int
	val  float64
}

// clusterBySavings implements minimize_distance: Clarke-Wright cluster
// merging bounded by the largest compatible vehicle, then cluster-to-vehicle
// matching that gives each cluster the smallest vehicle able to carry it.
func clusterBySavings(orders []*models.Order, vehicles []*models.Vehicle, matrix *maps.Matrix, index map[string]int) ([]*PlannedRoute, []*models.Order) {
	clusters := make([]*cluster, len(orders))
	for i, o := range orders {
		clusters[i] = &cluster{
			orders:   []*models.Order{o},
			weightKg: o.WeightKg,
			volumeM3: o.VolumeM3,
			cold:     o.RequiresColdChain,
		}
	}

	maxKg, maxM3, maxStops := fleetBounds(vehicles, false)
	coldKg, coldM3, coldStops := fleetBounds(vehicles, true)

	savings := make([]saving, 0, len(orders)*(len(orders)-1)/2)
	for i := 0; i < len(orders); i++ {
		for j := i + 1; j < len(orders); j++ {
			ii, jj := index[orders[i].ID], index[orders[j].ID]
			val := matrix.DistanceKm[0][ii] + matrix.DistanceKm[0][jj] - matrix.DistanceKm[ii][jj]
			if val > 0 {
				savings = append(savings, saving{i: i, j: j, val: val})
			}
		}
	}
	slices.SortFunc(savings, func(a, b saving) int {
		if a.val != b.val {
			if a.val > b.val {
				return -1
			}
			return 1
		}
		if a.i != b.i {
			return a.i - b.i
		}
		return a.j - b.j
	})

	owner := make([]int, len(orders))
	for i := range owner {
		owner[i] = i
	}

	for _, s := range savings {
		a, b := owner[s.i], owner[s.j]
		if a == b || clusters[a] == nil || clusters[b] == nil {
			continue
		}
		merged := &cluster{
			orders:   append(slices.Clone(clusters[a].orders), clusters[b].orders...),
			weightKg: clusters[a].weightKg + clusters[b].weightKg,
			volumeM3: clusters[a].volumeM3 + clusters[b].volumeM3,
			cold:     clusters[a].cold || clusters[b].cold,
		}
		kg, m3, stops := maxKg, maxM3, maxStops
		if merged.cold {
			kg, m3, stops = coldKg, coldM3, coldStops
		}
		if merged.weightKg > kg || merged.volumeM3 > m3 || len(merged.orders) > stops {
			continue
		}
		clusters[a] = merged
		clusters[b] = nil
		for i, own := range owner {
			if own == b {
				owner[i] = a
			}
		}
	}

	live := make([]*cluster, 0, len(clusters))
	for _, c := range clusters {
		if c != nil {
			live = append(live, c)
		}
	}
	// Heaviest clusters pick first so they get the scarce large vehicles.
	slices.SortFunc(live, func(a, b *cluster) int {
		if a.weightKg != b.weightKg {
			if a.weightKg > b.weightKg {
				return -1
			}
			return 1
		}
		return compareStrings(a.orders[0].ID, b.orders[0].ID)
	})

	used := make(map[string]bool, len(vehicles))
	var routes []*PlannedRoute
	var unassigned []*models.Order
	for _, c := range live {
		v := pickVehicle(c, vehicles, used)
		if v == nil {
			unassigned = append(unassigned, c.orders...)
			continue
		}
		used[v.ID] = true
		stops := make([]PlannedStop, 0, len(c.orders))
		for _, o := range c.orders {
			stops = append(stops, PlannedStop{Order: o, matrixIndex: index[o.ID]})
		}
		routes = append(routes, &PlannedRoute{
			Vehicle:       v,
			Stops:         stops,
			TotalWeightKg: c.weightKg,
			TotalVolumeM3: c.volumeM3,
		})
	}
	return routes, unassigned
}

// fleetBounds returns the loosest capacity any single vehicle of the class
// offers; cluster merges beyond these can never be carried.
func fleetBounds(vehicles []*models.Vehicle, refrigerated bool) (kg, m3 float64, stops int) {
	for _, v := range vehicles {
		if refrigerated && !v.HasRefrigeration {
			continue
		}
		if v.CapacityKg > kg {
			kg = v.CapacityKg
		}
		if v.CapacityM3 > m3 {
			m3 = v.CapacityM3
		}
		limit := v.MaxStopsPerRoute
		if limit <= 0 {
			limit = math.MaxInt
		}
		if limit > stops {
			stops = limit
		}
	}
	return kg, m3, stops
}

// pickVehicle gives a cluster the smallest unused vehicle that can carry it,
// preferring non-refrigerated vehicles for ambient clusters.
func pickVehicle(c *cluster, vehicles []*models.Vehicle, used map[string]bool) *models.Vehicle {
	var best *models.Vehicle
	for _, v := range vehicles {
		if used[v.ID] {
			continue
		}
		if c.cold && !v.HasRefrigeration {
			continue
		}
		if c.weightKg > v.CapacityKg || c.volumeM3 > v.CapacityM3 {
			continue
		}
		if v.MaxStopsPerRoute > 0 && len(c.orders) > v.MaxStopsPerRoute {
			continue
		}
		if best == nil {
			best = v
			continue
		}
		if better := pickPreferred(c, v, best); better != best {
			best = better
		}
	}
	return best
}

func pickPreferred(c *cluster, a, b *models.Vehicle) *models.Vehicle {
	// Refrigerated capacity is scarce: ambient clusters take it only when
	// nothing else fits.
	if !c.cold && a.HasRefrigeration != b.HasRefrigeration {
		if a.HasRefrigeration {
			return b
		}
		return a
	}
	if a.CapacityKg != b.CapacityKg {
		if a.CapacityKg < b.CapacityKg {
			return a
		}
		return b
	}
	if compareStrings(a.ID, b.ID) < 0 {
		return a
	}
	return b
}

// sequenceRoute orders a route's stops with nearest-neighbor construction
// followed by 2-opt improvement, then fills in per-stop and aggregate travel
// metrics from the matrix.
func sequenceRoute(r *PlannedRoute, matrix *maps.Matrix, index map[string]int) {
	if len(r.Stops) > 1 {
		nearestNeighborOrder(r, matrix)
		twoOptImprove(r, matrix)
	}

	var cumulativeMin float64
	var totalKm float64
	prev := 0
	for i := range r.Stops {
		s := &r.Stops[i]
		s.DistanceFromPrevKm = matrix.DistanceKm[prev][s.matrixIndex]
		s.TimeFromPrevMin = matrix.TimeMinutes[prev][s.matrixIndex]
		cumulativeMin += s.TimeFromPrevMin
		s.ArrivalMin = cumulativeMin
		cumulativeMin += serviceTimeMinutes
		totalKm += s.DistanceFromPrevKm
		prev = s.matrixIndex
	}
	// Return leg to the depot counts toward route totals.
	totalKm += matrix.DistanceKm[prev][0]
	cumulativeMin += matrix.TimeMinutes[prev][0]

	r.TotalDistanceKm = totalKm
	r.TotalTimeMin = cumulativeMin
}

func nearestNeighborOrder(r *PlannedRoute, matrix *maps.Matrix) {
	remaining := slices.Clone(r.Stops)
	ordered := make([]PlannedStop, 0, len(remaining))
	current := 0

	for len(remaining) > 0 {
		best := 0
		bestCost := math.MaxFloat64
		for i, s := range remaining {
			cost := matrix.DistanceKm[current][s.matrixIndex]
			if cost < bestCost ||
				(cost == bestCost && s.Order.ID < remaining[best].Order.ID) {
				bestCost = cost
				best = i
			}
		}
		ordered = append(ordered, remaining[best])
		current = remaining[best].matrixIndex
		remaining = slices.Delete(remaining, best, best+1)
	}
	r.Stops = ordered
}

// twoOptImprove repeatedly reverses sub-sequences while doing so shortens the
// tour, including the return leg to the depot. Terminates on the first full
// pass without improvement, which keeps the result deterministic.
func twoOptImprove(r *PlannedRoute, matrix *maps.Matrix) {
	n := len(r.Stops)
	idx := func(i int) int {
		if i < 0 || i >= n {
			return 0 // depot
		}
		return r.Stops[i].matrixIndex
	}

	improved := true
	for improved {
		improved = false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				current := matrix.DistanceKm[idx(i-1)][idx(i)] + matrix.DistanceKm[idx(j)][idx(j+1)]
				candidate := matrix.DistanceKm[idx(i-1)][idx(j)] + matrix.DistanceKm[idx(i)][idx(j+1)]
				if candidate+1e-9 < current {
					reverse(r.Stops[i : j+1])
					improved = true
				}
			}
		}
	}
}

func reverse(s []PlannedStop) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
