package dbscan

import "fmt"

// ClusterSink receives exported clusters. rank is the cluster's position
// after ranking (0 = largest) and ids are its member point IDs.
type ClusterSink interface {
	WriteCluster(rank int, ids []int64) error
}

// Export writes r.Exported() to sink in rank order and returns the number
// of clusters written.
func Export(r *Result, sink ClusterSink) (int, error) {
	clusters := r.Exported()
	for rank, c := range clusters {
		if err := sink.WriteCluster(rank, c.IDs()); err != nil {
			return rank, fmt.Errorf("dbscan: export cluster %d: %w", rank, err)
		}
	}
	return len(clusters), nil
}
