package maps

import (
	"context"
	"math"
)

const earthRadiusKm = 6371.0

// DefaultSpeedKmh is the fallback average speed used to turn straight-line
// distances into travel time when no vehicle-specific speed applies.
const DefaultSpeedKmh = 40.0

// HaversineDistance returns the great-circle distance in kilometers.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// HaversineProvider computes the matrix from great-circle distances and a
// fixed average speed. Deterministic and offline: used in tests and whenever
// no Distance Matrix API key is configured.
type HaversineProvider struct {
	// AvgSpeedKmh converts distance to travel time. Zero means 40 km/h.
	AvgSpeedKmh float64
}

func NewHaversineProvider(avgSpeedKmh float64) *HaversineProvider {
	return &HaversineProvider{AvgSpeedKmh: avgSpeedKmh}
}

func (p *HaversineProvider) Matrix(ctx context.Context, coords []Coordinate) (*Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	speed := p.AvgSpeedKmh
	if speed <= 0 {
		speed = DefaultSpeedKmh
	}

	n := len(coords)
	out := &Matrix{
		DistanceKm:  make([][]float64, n),
		TimeMinutes: make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		out.DistanceKm[i] = make([]float64, n)
		out.TimeMinutes[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			d := HaversineDistance(coords[i].Lat, coords[i].Lng, coords[j].Lat, coords[j].Lng)
			out.DistanceKm[i][j] = d
			out.TimeMinutes[i][j] = d / speed * 60.0
		}
	}
	return out, nil
}
