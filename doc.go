// Package dbscan implements Density-Based Spatial Clustering of Applications
// with Noise (DBSCAN) over 2-D points, followed by an outlier-adjustment pass
// that moves noise points into a nearby cluster when they sit close enough to
// its centroid.
//
// Basic usage:
//
//	cfg := dbscan.DefaultConfig()
//	cfg.Eps = 2
//	cfg.MinPts = 4
//	cfg.ClusterCount = 3
//	result, err := dbscan.Run(points, cfg)
//	// result.Clusters is ordered by descending size
//	// result.Top(cfg.ClusterCount) is what an exporter should write
//	// result.Noise holds every point that expansion left unclustered
//	// result.Adjusted counts noise points moved into a cluster afterwards
//
// A run visits points in input order. The first unvisited point seeds each
// expansion, so the same input always yields the same clusters.
//
// # Neighborhood index
//
// Neighborhood queries return every point whose squared Euclidean distance to
// the query point is at most Eps². Config.Index selects how they are answered:
//
//	cfg.Index = dbscan.IndexBrute         // sequential scan over all points
//	cfg.Index = dbscan.IndexBruteParallel // the same scan split across Workers goroutines
//	cfg.Index = dbscan.IndexKDTree        // 2-D KD-tree range query
//
// Every index returns the same neighbor set for the same input.
//
// # Adjustment
//
// After expansion, each noise point is compared with every cluster centroid.
// A cluster is eligible when the linear centroid distance is at most the
// square of the cluster's cohesion radius (the mean member-to-centroid
// distance). The nearest eligible cluster receives the point. Setting
// Config.MatchReferenceImplementation keeps the legacy behavior where the
// first discovered cluster never receives adjusted points.
package dbscan
