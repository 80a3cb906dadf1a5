package dbscan

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Cluster is a set of points found by one expansion, plus any noise points
// the adjustment pass moved into it. Membership is by store position, so a
// point can never appear twice.
type Cluster struct {
	// Index is the discovery order of the cluster (0 = first found). It does
	// not change when clusters are ranked.
	Index int

	members *roaring.Bitmap
	store   *PointStore
}

func newCluster(index int, store *PointStore) *Cluster {
	return &Cluster{Index: index, members: roaring.New(), store: store}
}

// add inserts position i and reports whether it was not already a member.
func (c *Cluster) add(i int) bool { return c.members.CheckedAdd(uint32(i)) }

// Len returns the number of member points.
func (c *Cluster) Len() int { return int(c.members.GetCardinality()) }

// Contains reports whether store position i is a member.
func (c *Cluster) Contains(i int) bool { return c.members.Contains(uint32(i)) }

// Positions returns member store positions in ascending order.
func (c *Cluster) Positions() []int {
	out := make([]int, 0, c.Len())
	it := c.members.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Points returns the member points in store order.
func (c *Cluster) Points() []Point {
	out := make([]Point, 0, c.Len())
	it := c.members.Iterator()
	for it.HasNext() {
		out = append(out, c.store.Point(int(it.Next())))
	}
	return out
}

// IDs returns the member point IDs in ascending order.
func (c *Cluster) IDs() []int64 {
	ids := make([]int64, 0, c.Len())
	it := c.members.Iterator()
	for it.HasNext() {
		ids = append(ids, c.store.Point(int(it.Next())).ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RankClusters sorts clusters by descending size in place. The sort is
// stable, so equally sized clusters keep their discovery order.
func RankClusters(clusters []*Cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Len() > clusters[j].Len()
	})
}

// TopClusters returns the first n clusters. It returns fewer when there are
// fewer clusters and none when n <= 0.
func TopClusters(clusters []*Cluster, n int) []*Cluster {
	if n <= 0 {
		return nil
	}
	return clusters[:min(n, len(clusters))]
}
