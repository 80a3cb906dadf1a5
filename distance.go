package dbscan

import "math"

// SquaredDistance returns the squared Euclidean distance between a and b.
// Neighborhood queries compare this against Eps² so they never take a root.
func SquaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Sqrt(SquaredDistance(a, b))
}

// squaredDistanceFlat is SquaredDistance over positions i and j of a flat
// x,y coordinate array.
func squaredDistanceFlat(coords []float64, i, j int) float64 {
	dx := coords[2*i] - coords[2*j]
	dy := coords[2*i+1] - coords[2*j+1]
	return dx*dx + dy*dy
}

// radiusSquared converts a neighborhood radius into the squared threshold
// used by every index. Non-positive radii only match coincident points.
func radiusSquared(eps float64) float64 {
	if eps <= 0 || math.IsNaN(eps) {
		return 0
	}
	return eps * eps
}
