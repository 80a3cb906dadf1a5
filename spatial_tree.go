package dbscan

// NeighborIndex answers fixed-radius neighborhood queries over a PointStore.
type NeighborIndex interface {
	// Neighbors returns the positions of every point whose squared distance
	// to the point at position i is <= eps². The result always contains i
	// itself and is sorted in ascending position order.
	Neighbors(i int, eps float64) []int

	// NumPoints returns the number of indexed points.
	NumPoints() int
}

// BruteIndex answers neighborhood queries with a full linear scan.
type BruteIndex struct {
	coords []float64
	n      int
}

// NewBruteIndex builds a brute-force index over the store's coordinates.
func NewBruteIndex(store *PointStore) *BruteIndex {
	return &BruteIndex{coords: store.Coords(), n: store.Len()}
}

func (b *BruteIndex) NumPoints() int { return b.n }

// Neighbors scans every point once.
func (b *BruteIndex) Neighbors(i int, eps float64) []int {
	return scanRange(b.coords, i, 0, b.n, radiusSquared(eps), nil)
}

// scanRange appends to dst every position j in [start, end) within r2 of i.
func scanRange(coords []float64, i, start, end int, r2 float64, dst []int) []int {
	for j := start; j < end; j++ {
		if squaredDistanceFlat(coords, i, j) <= r2 {
			dst = append(dst, j)
		}
	}
	return dst
}
