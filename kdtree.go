package dbscan

import (
	"math"
	"sort"
)

// kdDims is fixed: the engine only clusters 2-D points.
const kdDims = 2

// kdNode describes a single node in the KD-tree.
type kdNode struct {
	IdxStart, IdxEnd int
	IsLeaf           bool
}

// KDTree is a 2-D KD-tree used for fixed-radius neighborhood queries.
// Points are referenced through an index permutation array so the store's
// coordinate array is never reordered.
//
// The tree is stored as a complete binary tree in array form:
//   - node i has children at 2*i+1 and 2*i+2
//   - node bounds are stored as min/max per dimension per node
type KDTree struct {
	data     []float64 // flat row-major x,y data, shared with the store
	n        int
	leafSize int
	idxArray []int // permutation: tree-order position → store position
	nodes    []kdNode
	// nodeBoundsMin[node*kdDims + j] = min value of coordinate j in node
	nodeBoundsMin []float64
	// nodeBoundsMax[node*kdDims + j] = max value of coordinate j in node
	nodeBoundsMax []float64
}

// NewKDTree builds a KD-tree over the store's coordinates. leafSize controls
// the max points per leaf node.
func NewKDTree(store *PointStore, leafSize int) *KDTree {
	if leafSize < 1 {
		leafSize = 1
	}
	n := store.Len()

	idxArray := make([]int, n)
	for i := range idxArray {
		idxArray[i] = i
	}

	maxNodes := kdMaxNodes(n, leafSize)
	t := &KDTree{
		data:          store.Coords(),
		n:             n,
		leafSize:      leafSize,
		idxArray:      idxArray,
		nodes:         make([]kdNode, maxNodes),
		nodeBoundsMin: make([]float64, maxNodes*kdDims),
		nodeBoundsMax: make([]float64, maxNodes*kdDims),
	}

	if n > 0 {
		t.buildNode(0, 0, n)
	}

	return t
}

// kdMaxNodes returns an upper bound on the number of nodes needed for a
// binary tree with n points and the given leaf size.
func kdMaxNodes(n, leafSize int) int {
	if n == 0 {
		return 1
	}
	leaves := (n + leafSize - 1) / leafSize
	depth := 0
	v := 1
	for v < leaves {
		v *= 2
		depth++
	}
	return (1 << (depth + 1)) - 1 + 2
}

// buildNode recursively builds the tree for points in idxArray[start:end].
func (t *KDTree) buildNode(nodeID, start, end int) {
	for nodeID >= len(t.nodes) {
		t.nodes = append(t.nodes, kdNode{})
		t.nodeBoundsMin = append(t.nodeBoundsMin, make([]float64, kdDims)...)
		t.nodeBoundsMax = append(t.nodeBoundsMax, make([]float64, kdDims)...)
	}

	t.computeNodeBounds(nodeID, start, end)

	count := end - start
	if count <= t.leafSize {
		t.nodes[nodeID] = kdNode{IdxStart: start, IdxEnd: end, IsLeaf: true}
		return
	}

	// Split on the coordinate with the greatest spread.
	splitDim := 0
	if t.nodeBoundsMax[nodeID*kdDims+1]-t.nodeBoundsMin[nodeID*kdDims+1] >
		t.nodeBoundsMax[nodeID*kdDims]-t.nodeBoundsMin[nodeID*kdDims] {
		splitDim = 1
	}

	t.sortByDimension(start, end, splitDim)
	mid := start + count/2

	t.nodes[nodeID] = kdNode{IdxStart: start, IdxEnd: end}

	t.buildNode(2*nodeID+1, start, mid)
	t.buildNode(2*nodeID+2, mid, end)
}

// computeNodeBounds computes min/max per coordinate for points idxArray[start:end].
func (t *KDTree) computeNodeBounds(nodeID, start, end int) {
	base := nodeID * kdDims
	for d := 0; d < kdDims; d++ {
		t.nodeBoundsMin[base+d] = math.Inf(1)
		t.nodeBoundsMax[base+d] = math.Inf(-1)
	}
	for i := start; i < end; i++ {
		ptIdx := t.idxArray[i]
		for d := 0; d < kdDims; d++ {
			v := t.data[ptIdx*kdDims+d]
			if v < t.nodeBoundsMin[base+d] {
				t.nodeBoundsMin[base+d] = v
			}
			if v > t.nodeBoundsMax[base+d] {
				t.nodeBoundsMax[base+d] = v
			}
		}
	}
}

// sortByDimension sorts idxArray[start:end] by the given coordinate.
// Ties keep store order so the build is deterministic.
func (t *KDTree) sortByDimension(start, end, dim int) {
	sub := t.idxArray[start:end]
	data := t.data
	sort.SliceStable(sub, func(i, j int) bool {
		return data[sub[i]*kdDims+dim] < data[sub[j]*kdDims+dim]
	})
}

func (t *KDTree) NumPoints() int { return t.n }

// Neighbors returns every store position within eps of position i.
func (t *KDTree) Neighbors(i int, eps float64) []int {
	if t.n == 0 {
		return nil
	}
	r2 := radiusSquared(eps)
	query := t.data[i*kdDims : (i+1)*kdDims]

	var out []int
	t.rangeSearch(0, query, r2, &out)
	sort.Ints(out)
	return out
}

// rangeSearch collects every point within r2 of query below nodeID, pruning
// nodes whose bounding box is farther than r2.
func (t *KDTree) rangeSearch(nodeID int, query []float64, r2 float64, out *[]int) {
	if nodeID >= len(t.nodes) {
		return
	}
	node := t.nodes[nodeID]
	if node.IdxStart == node.IdxEnd && nodeID != 0 {
		return // uninitialized node
	}
	if t.minRdistPoint(nodeID, query) > r2 {
		return
	}

	if node.IsLeaf {
		for k := node.IdxStart; k < node.IdxEnd; k++ {
			ptIdx := t.idxArray[k]
			dx := t.data[ptIdx*kdDims] - query[0]
			dy := t.data[ptIdx*kdDims+1] - query[1]
			if dx*dx+dy*dy <= r2 {
				*out = append(*out, ptIdx)
			}
		}
		return
	}

	t.rangeSearch(2*nodeID+1, query, r2, out)
	t.rangeSearch(2*nodeID+2, query, r2, out)
}

// minRdistPoint returns the squared distance from point to the node's
// bounding box (0 when the point lies inside it).
func (t *KDTree) minRdistPoint(node int, point []float64) float64 {
	base := node * kdDims
	var rdist float64
	for j := 0; j < kdDims; j++ {
		lo := t.nodeBoundsMin[base+j]
		hi := t.nodeBoundsMax[base+j]
		var d float64
		if point[j] < lo {
			d = lo - point[j]
		} else if point[j] > hi {
			d = point[j] - hi
		}
		rdist += d * d
	}
	return rdist
}
