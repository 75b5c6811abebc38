package routing

import "github.com/jhonavil2003/Medisupply-Backend-sub003/internal/models"

// Constraint checks are the hard filter applied before and during
// optimization: pairs that fail here are never presented to the solver as
// candidate assignments. All functions are pure.

// Feasible reports whether a single order can travel on a vehicle at all:
// cold-chain compatibility plus single-item capacity fit.
func Feasible(order *models.Order, vehicle *models.Vehicle) bool {
	if order.RequiresColdChain && !vehicle.HasRefrigeration {
		return false
	}
	return order.WeightKg <= vehicle.CapacityKg && order.VolumeM3 <= vehicle.CapacityM3
}

// FeasibleSet reports whether the aggregate weight and volume of an order set
// fit a vehicle's capacity, with every member individually compatible.
func FeasibleSet(orders []*models.Order, vehicle *models.Vehicle) bool {
	var weight, volume float64
	for _, o := range orders {
		if o.RequiresColdChain && !vehicle.HasRefrigeration {
			return false
		}
		weight += o.WeightKg
		volume += o.VolumeM3
	}
	return weight <= vehicle.CapacityKg && volume <= vehicle.CapacityM3
}

// FitsWithLoad reports whether an order fits a vehicle that already carries
// the given load. Used by reassignment to validate the target route.
func FitsWithLoad(order *models.Order, vehicle *models.Vehicle, loadKg, loadM3 float64) bool {
	if order.RequiresColdChain && !vehicle.HasRefrigeration {
		return false
	}
	return loadKg+order.WeightKg <= vehicle.CapacityKg &&
		loadM3+order.VolumeM3 <= vehicle.CapacityM3
}

// FilterFeasibleVehicles returns the subset of the pool that could carry the
// order. Cold chain partitions the fleet into compatibility classes, so an
// empty result means the order is unassignable regardless of sequencing.
func FilterFeasibleVehicles(order *models.Order, vehicles []*models.Vehicle) []*models.Vehicle {
	out := make([]*models.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if Feasible(order, v) {
			out = append(out, v)
		}
	}
	return out
}
