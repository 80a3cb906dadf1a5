package dbscan

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrDuplicateID is returned when two input points share an ID.
var ErrDuplicateID = errors.New("dbscan: duplicate point id")

// ErrNonFinite is returned when a coordinate is NaN or infinite.
var ErrNonFinite = errors.New("dbscan: non-finite coordinate")

// Point is a single 2-D input record. Points are identified by ID.
type Point struct {
	ID int64
	X  float64
	Y  float64
}

// PointStore holds every point of a run together with its visitation state.
// Positions (0..Len()-1) follow input order and are the handles used by the
// neighbor indexes, clusters, and the expansion engine.
type PointStore struct {
	points  []Point
	coords  []float64 // flat row-major x,y pairs
	byID    map[int64]int
	visited *roaring.Bitmap
	cursor  int // every position below cursor is visited
}

// NewPointStore copies points into a new store. It returns ErrDuplicateID if
// an ID appears more than once and ErrNonFinite if a coordinate is NaN or
// infinite.
func NewPointStore(points []Point) (*PointStore, error) {
	s := &PointStore{
		points:  make([]Point, len(points)),
		coords:  make([]float64, 2*len(points)),
		byID:    make(map[int64]int, len(points)),
		visited: roaring.New(),
	}
	for i, p := range points {
		if prev, ok := s.byID[p.ID]; ok {
			return nil, fmt.Errorf("%w: %d at positions %d and %d", ErrDuplicateID, p.ID, prev, i)
		}
		if !finite(p.X) || !finite(p.Y) {
			return nil, fmt.Errorf("%w: id %d at position %d", ErrNonFinite, p.ID, i)
		}
		s.byID[p.ID] = i
		s.points[i] = p
		s.coords[2*i] = p.X
		s.coords[2*i+1] = p.Y
	}
	return s, nil
}

// Len returns the number of points in the store.
func (s *PointStore) Len() int { return len(s.points) }

// Point returns the point at position i.
func (s *PointStore) Point(i int) Point { return s.points[i] }

// Points returns the stored points in input order. The slice is shared.
func (s *PointStore) Points() []Point { return s.points }

// Coords returns the flat x,y coordinate array. The slice is shared.
func (s *PointStore) Coords() []float64 { return s.coords }

// Position returns the store position of the point with the given ID.
func (s *PointStore) Position(id int64) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}

// NextUnvisited returns the lowest unvisited position, or false when every
// point has been visited.
func (s *PointStore) NextUnvisited() (int, bool) {
	for s.cursor < len(s.points) {
		if !s.visited.Contains(uint32(s.cursor)) {
			return s.cursor, true
		}
		s.cursor++
	}
	return 0, false
}

// MarkVisited flags position i as visited.
func (s *PointStore) MarkVisited(i int) { s.visited.Add(uint32(i)) }

// Visited reports whether position i has been visited.
func (s *PointStore) Visited(i int) bool { return s.visited.Contains(uint32(i)) }

// VisitedCount returns how many points have been visited so far.
func (s *PointStore) VisitedCount() int { return int(s.visited.GetCardinality()) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
