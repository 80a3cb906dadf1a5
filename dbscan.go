package dbscan

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// Config controls DBSCAN clustering behavior.
// Start with [DefaultConfig] and override the fields you need.
type Config struct {
	// Eps is the neighborhood radius. Two points are neighbors when their
	// squared Euclidean distance is <= Eps². Non-positive values only match
	// coincident points, so with MinPts >= 2 isolated points become noise.
	Eps float64

	// MinPts is the minimum neighborhood size (including the point itself)
	// for a point to seed or extend a cluster. Values <= 1 make every point
	// a core point.
	MinPts int

	// ClusterCount caps how many clusters Result.Exported returns.
	// Must be >= 0.
	ClusterCount int

	// Index selects the neighborhood query strategy. Default: "auto".
	Index IndexKind

	// LeafSize is the maximum number of points in a KD-tree leaf.
	// Only used by IndexKDTree. Default: 16.
	LeafSize int

	// Workers is the number of goroutines used by IndexBruteParallel.
	// 0 means runtime.NumCPU(). Must be >= 0.
	Workers int

	// MatchReferenceImplementation keeps the legacy adjustment behavior where
	// the first discovered cluster can never receive adjusted noise points.
	// Default: false.
	MatchReferenceImplementation bool

	// Logger receives debug events for each run. Default: a no-op logger.
	Logger *zap.Logger
}

// Result contains the output of a clustering run.
type Result struct {
	// Clusters are ordered by descending size; equal sizes keep discovery
	// order. Membership includes adjusted noise points.
	Clusters []*Cluster

	// Noise holds every point classified as noise during expansion, in
	// input order, including points later moved by adjustment.
	Noise []Point

	// Unassigned holds the noise points adjustment left without a cluster,
	// in input order.
	Unassigned []Point

	// Adjusted is the number of noise points moved into a cluster.
	Adjusted int

	// Labels maps each input position to the discovery index of its final
	// cluster, or -1 when the point remains noise.
	Labels []int

	clusterCount int
}

// Remaining returns the number of noise points left after adjustment.
func (r *Result) Remaining() int { return len(r.Noise) - r.Adjusted }

// Top returns the n largest clusters.
func (r *Result) Top(n int) []*Cluster { return TopClusters(r.Clusters, n) }

// Exported returns the clusters selected by Config.ClusterCount.
func (r *Result) Exported() []*Cluster { return r.Top(r.clusterCount) }

// DefaultConfig returns a Config with reasonable defaults. Eps, MinPts and
// ClusterCount have no meaningful default and must be set by the caller.
func DefaultConfig() Config {
	return Config{
		Index:    IndexAuto,
		LeafSize: 16,
	}
}

// validateConfig checks that cfg fields are valid and returns a descriptive error if not.
func validateConfig(cfg *Config) error {
	if cfg.ClusterCount < 0 {
		return fmt.Errorf("dbscan: ClusterCount must be >= 0, got %d", cfg.ClusterCount)
	}
	if cfg.LeafSize < 1 {
		return fmt.Errorf("dbscan: LeafSize must be >= 1, got %d", cfg.LeafSize)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("dbscan: Workers must be >= 0, got %d", cfg.Workers)
	}
	if _, err := selectIndex(cfg.Index, 0); err != nil {
		return err
	}
	return nil
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Index == "" {
		cfg.Index = IndexAuto
	}
	if cfg.LeafSize == 0 {
		cfg.LeafSize = 16
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// Run performs expansion and adjustment over points and returns the ranked
// result. It returns an error if the config is invalid or if two points
// share an ID.
func Run(points []Point, cfg Config) (*Result, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	store, err := NewPointStore(points)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(store, cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.Expand(); err != nil {
		return nil, err
	}
	if _, err := engine.Adjust(); err != nil {
		return nil, err
	}

	return engine.Result(), nil
}
