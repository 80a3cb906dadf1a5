package dbscan

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClusterShape summarizes a cluster's geometry for the adjustment pass.
type ClusterShape struct {
	// Centroid is the mean x and mean y of the members.
	Centroid Point
	// CohesionRadius is the mean Euclidean distance from each member to
	// the centroid.
	CohesionRadius float64
}

// Shape computes the centroid and cohesion radius of c's current members.
// The centroid's ID is the zero value.
func (c *Cluster) Shape() ClusterShape {
	n := c.Len()
	if n == 0 {
		return ClusterShape{}
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	it := c.members.Iterator()
	for it.HasNext() {
		p := c.store.Point(int(it.Next()))
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}

	centroid := []float64{stat.Mean(xs, nil), stat.Mean(ys, nil)}
	dists := make([]float64, n)
	for k := range xs {
		dists[k] = floats.Distance([]float64{xs[k], ys[k]}, centroid, 2)
	}

	return ClusterShape{
		Centroid:       Point{X: centroid[0], Y: centroid[1]},
		CohesionRadius: stat.Mean(dists, nil),
	}
}

// nearestEligible returns the discovery index of the cluster whose centroid
// is nearest to p among those where the centroid distance is at most the
// squared cohesion radius, or -1 if none qualifies. Ties go to the lower
// index.
func nearestEligible(p Point, shapes []ClusterShape) int {
	best := -1
	bestDist := math.Inf(1)
	for idx, s := range shapes {
		d := Distance(p, s.Centroid)
		if d < bestDist && d <= s.CohesionRadius*s.CohesionRadius {
			bestDist = d
			best = idx
		}
	}
	return best
}

// Adjust moves noise points into the nearest eligible cluster and returns
// how many moved. Centroids and cohesion radii are computed once, before
// any point moves. The noise set recorded by Expand is not modified; use
// the returned count to derive the remaining noise.
//
// With MatchReferenceImplementation set, a best match on the first
// discovered cluster is discarded.
func (e *Engine) Adjust() (int, error) {
	if !e.expanded {
		if err := e.Expand(); err != nil {
			return 0, err
		}
	}
	if e.adjustedRun {
		return 0, ErrEngineConsumed
	}
	e.adjustedRun = true

	if len(e.clusters) == 0 || e.noise.IsEmpty() {
		return 0, nil
	}

	shapes := make([]ClusterShape, len(e.clusters))
	for idx, c := range e.clusters {
		shapes[idx] = c.Shape()
	}

	adjusted := 0
	it := e.noise.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		best := nearestEligible(e.store.Point(i), shapes)
		if best < 0 || (best == 0 && e.cfg.MatchReferenceImplementation) {
			continue
		}
		e.claim(e.clusters[best], i)
		adjusted++
	}
	e.adjusted = adjusted

	e.log.Debug("noise adjusted",
		zap.Int("noise", int(e.noise.GetCardinality())),
		zap.Int("adjusted", adjusted),
	)
	return adjusted, nil
}
