package dbscan

import "fmt"

// IndexKind selects the neighborhood query strategy.
type IndexKind string

const (
	IndexAuto          IndexKind = "auto"
	IndexBrute         IndexKind = "brute"
	IndexBruteParallel IndexKind = "brute_parallel"
	IndexKDTree        IndexKind = "kdtree"
)

// kdTreeThreshold is the point count above which IndexAuto builds a KD-tree.
// Below it a linear scan is cheaper than building the tree.
const kdTreeThreshold = 64

// selectIndex resolves IndexAuto into a concrete strategy based on the
// number of points.
func selectIndex(kind IndexKind, n int) (IndexKind, error) {
	switch kind {
	case IndexAuto:
		if n > kdTreeThreshold {
			return IndexKDTree, nil
		}
		return IndexBrute, nil
	case IndexBrute, IndexBruteParallel, IndexKDTree:
		return kind, nil
	default:
		return "", fmt.Errorf("dbscan: invalid Index %q", kind)
	}
}

// NewIndex builds the neighbor index selected by cfg over store.
// cfg is expected to have defaults applied.
func NewIndex(store *PointStore, cfg Config) (NeighborIndex, error) {
	kind, err := selectIndex(cfg.Index, store.Len())
	if err != nil {
		return nil, err
	}
	switch kind {
	case IndexKDTree:
		return NewKDTree(store, cfg.LeafSize), nil
	case IndexBruteParallel:
		return NewParallelBruteIndex(store, cfg.Workers), nil
	default:
		return NewBruteIndex(store), nil
	}
}
