package maps

import "context"

// Coordinate is a geographic point (latitude, longitude).
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Matrix holds pairwise travel metrics indexed by the input coordinate order.
// DistanceKm[i][j] is the travel distance from point i to point j; the matrix
// may be asymmetric depending on the backing provider.
type Matrix struct {
	DistanceKm  [][]float64
	TimeMinutes [][]float64
}

// Size returns the number of locations covered by the matrix.
func (m *Matrix) Size() int { return len(m.DistanceKm) }

// Provider computes a pairwise travel cost matrix for a set of coordinates.
// Implementations must treat the call as a pure function of the input; failures
// are network errors surfaced to the caller.
type Provider interface {
	Matrix(ctx context.Context, coords []Coordinate) (*Matrix, error)
}
