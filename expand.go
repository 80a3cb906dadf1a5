package dbscan

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
)

var (
	// ErrEngineConsumed is returned when a stage of an Engine runs twice.
	ErrEngineConsumed = errors.New("dbscan: engine already ran this stage")

	// ErrStoreVisited is returned when an engine is built over a store that
	// an earlier run already visited.
	ErrStoreVisited = errors.New("dbscan: point store already visited")
)

// unowned marks a store position that belongs to no cluster.
const unowned = -1

// Engine is the state of a single clustering run: the point store with its
// visitation flags, the clusters in discovery order, the noise set, and an
// ownership index from store position to cluster.
//
// An Engine is single-use. Expand runs once, then Adjust runs at most once.
// It is not safe for concurrent use.
type Engine struct {
	store    *PointStore
	index    NeighborIndex
	cfg      Config
	log      *zap.Logger
	clusters []*Cluster
	noise    *roaring.Bitmap
	owner    []int // store position → discovery index, or unowned
	adjusted int

	expanded    bool
	adjustedRun bool
}

// NewEngine prepares a run over store. The neighbor index is built here.
// The store must not have been used by another run.
func NewEngine(store *PointStore, cfg Config) (*Engine, error) {
	if err := prepare(store, &cfg); err != nil {
		return nil, err
	}
	index, err := NewIndex(store, cfg)
	if err != nil {
		return nil, err
	}
	return newEngine(store, index, cfg), nil
}

// NewEngineWithIndex prepares a run that answers neighborhood queries with
// index instead of building one from cfg.Index.
func NewEngineWithIndex(store *PointStore, index NeighborIndex, cfg Config) (*Engine, error) {
	if err := prepare(store, &cfg); err != nil {
		return nil, err
	}
	if index.NumPoints() != store.Len() {
		return nil, fmt.Errorf("dbscan: index holds %d points, store holds %d", index.NumPoints(), store.Len())
	}
	return newEngine(store, index, cfg), nil
}

func prepare(store *PointStore, cfg *Config) error {
	applyDefaults(cfg)
	if err := validateConfig(cfg); err != nil {
		return err
	}
	if store.VisitedCount() > 0 {
		return ErrStoreVisited
	}
	return nil
}

func newEngine(store *PointStore, index NeighborIndex, cfg Config) *Engine {
	owner := make([]int, store.Len())
	for i := range owner {
		owner[i] = unowned
	}
	return &Engine{
		store: store,
		index: index,
		cfg:   cfg,
		log:   cfg.Logger,
		noise: roaring.New(),
		owner: owner,
	}
}

// Expand visits every point once, growing a cluster from each unvisited
// core point and recording every other unvisited point as noise.
func (e *Engine) Expand() error {
	if e.expanded {
		return ErrEngineConsumed
	}
	e.expanded = true

	for {
		p, ok := e.store.NextUnvisited()
		if !ok {
			break
		}
		e.store.MarkVisited(p)

		neighbors := e.index.Neighbors(p, e.cfg.Eps)
		if len(neighbors) < e.cfg.MinPts {
			e.noise.Add(uint32(p))
			continue
		}
		c := e.expandCluster(p, neighbors)
		e.log.Debug("cluster discovered",
			zap.Int("cluster", c.Index),
			zap.Int64("seed", e.store.Point(p).ID),
			zap.Int("size", c.Len()),
		)
	}

	e.log.Debug("expansion finished",
		zap.Int("clusters", len(e.clusters)),
		zap.Int("noise", int(e.noise.GetCardinality())),
	)
	return nil
}

// expandCluster grows a new cluster from core point p. The worklist starts
// as p's neighborhood and is extended in place with the neighborhoods of
// newly found core points. It is not deduplicated: positions that are
// already visited when reached are skipped.
func (e *Engine) expandCluster(p int, worklist []int) *Cluster {
	c := newCluster(len(e.clusters), e.store)
	e.claim(c, p)

	for k := 0; k < len(worklist); k++ {
		q := worklist[k]
		if e.store.Visited(q) {
			continue
		}
		e.store.MarkVisited(q)

		nq := e.index.Neighbors(q, e.cfg.Eps)
		if len(nq) >= e.cfg.MinPts {
			worklist = append(worklist, nq...)
		}

		if e.owner[q] == unowned {
			e.claim(c, q)
		}
	}

	e.clusters = append(e.clusters, c)
	return c
}

func (e *Engine) claim(c *Cluster, i int) {
	if c.add(i) {
		e.owner[i] = c.Index
	}
}

// Clusters returns the clusters in discovery order. The slice is shared.
func (e *Engine) Clusters() []*Cluster { return e.clusters }

// NoisePositions returns the store positions classified as noise during
// expansion, in ascending order. Adjustment does not change this set.
func (e *Engine) NoisePositions() []int {
	out := make([]int, 0, e.noise.GetCardinality())
	it := e.noise.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Owner returns the discovery index of the cluster that holds position i,
// or -1 when the point is in no cluster.
func (e *Engine) Owner(i int) int { return e.owner[i] }

// Result assembles the outcome of the run. Clusters are ranked by
// descending size; the engine's own discovery-order slice is left intact.
func (e *Engine) Result() *Result {
	ranked := make([]*Cluster, len(e.clusters))
	copy(ranked, e.clusters)
	RankClusters(ranked)

	noisePos := e.NoisePositions()
	noise := make([]Point, len(noisePos))
	var unassigned []Point
	for k, i := range noisePos {
		noise[k] = e.store.Point(i)
		if e.owner[i] == unowned {
			unassigned = append(unassigned, noise[k])
		}
	}

	labels := make([]int, len(e.owner))
	copy(labels, e.owner)

	return &Result{
		Clusters:   ranked,
		Noise:      noise,
		Unassigned: unassigned,
		Adjusted:   e.adjusted,
		Labels:     labels,

		clusterCount: e.cfg.ClusterCount,
	}
}
