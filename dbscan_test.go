package dbscan

import (
	"errors"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Index != IndexAuto {
		t.Errorf("Index: got %q, want %q", cfg.Index, IndexAuto)
	}
	if cfg.LeafSize != 16 {
		t.Errorf("LeafSize: got %d, want 16", cfg.LeafSize)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers: got %d, want 0", cfg.Workers)
	}
	if cfg.MatchReferenceImplementation {
		t.Error("MatchReferenceImplementation: got true, want false")
	}
	if cfg.Logger != nil {
		t.Error("Logger: got non-nil, want nil")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	if cfg.Index != IndexAuto {
		t.Errorf("Index: got %q, want %q", cfg.Index, IndexAuto)
	}
	if cfg.LeafSize != 16 {
		t.Errorf("LeafSize: got %d, want 16", cfg.LeafSize)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("Workers: got %d, want %d", cfg.Workers, runtime.NumCPU())
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to a no-op logger")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative ClusterCount", func(c *Config) { c.ClusterCount = -1 }},
		{"negative LeafSize", func(c *Config) { c.LeafSize = -4 }},
		{"negative Workers", func(c *Config) { c.Workers = -2 }},
		{"invalid Index", func(c *Config) { c.Index = "rtree" }},
	}

	data := []Point{{ID: 1, X: 1, Y: 2}, {ID: 2, X: 3, Y: 4}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := Run(data, cfg)
			if err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestConfigValidation_DegenerateParamsAccepted(t *testing.T) {
	data := []Point{{ID: 1, X: 1, Y: 2}, {ID: 2, X: 3, Y: 4}}
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Eps = 0 },
		func(c *Config) { c.Eps = -1 },
		func(c *Config) { c.MinPts = 0 },
		func(c *Config) { c.MinPts = -10 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := Run(data, cfg); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
}

func TestRun_DuplicateID(t *testing.T) {
	cfg := DefaultConfig()
	_, err := Run([]Point{{ID: 1}, {ID: 1}}, cfg)
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRun_EmptyData(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Eps = 1
	cfg.MinPts = 2
	cfg.ClusterCount = 3
	result, err := Run(nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Clusters) != 0 || len(result.Noise) != 0 || result.Adjusted != 0 {
		t.Errorf("expected empty result, got %d clusters, %d noise, %d adjusted",
			len(result.Clusters), len(result.Noise), result.Adjusted)
	}
	if len(result.Exported()) != 0 {
		t.Errorf("expected nothing to export, got %d", len(result.Exported()))
	}
}

func TestRun_TwoPairs(t *testing.T) {
	data := []Point{
		{ID: 1, X: 0, Y: 0},
		{ID: 2, X: 0, Y: 1},
		{ID: 3, X: 10, Y: 10},
		{ID: 4, X: 10, Y: 11},
	}
	cfg := DefaultConfig()
	cfg.Eps = 2
	cfg.MinPts = 2
	cfg.ClusterCount = 2

	result, err := Run(data, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exported := result.Exported()
	if len(exported) != 2 {
		t.Fatalf("expected 2 exported clusters, got %d", len(exported))
	}
	for _, c := range exported {
		if c.Len() != 2 {
			t.Errorf("cluster %d has %d points, want 2", c.Index, c.Len())
		}
	}
	if len(result.Noise) != 0 || result.Adjusted != 0 || result.Remaining() != 0 {
		t.Errorf("noise=%d adjusted=%d remaining=%d, want all 0",
			len(result.Noise), result.Adjusted, result.Remaining())
	}
	want := []int{0, 0, 1, 1}
	for i, l := range result.Labels {
		if l != want[i] {
			t.Errorf("Labels = %v, want %v", result.Labels, want)
			break
		}
	}
}

func TestRun_SingleIsolatedPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Eps = 2
	cfg.MinPts = 2
	cfg.ClusterCount = 1

	result, err := Run([]Point{{ID: 1, X: 5, Y: 5}}, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Clusters) != 0 {
		t.Errorf("expected 0 clusters, got %d", len(result.Clusters))
	}
	if len(result.Noise) != 1 || result.Adjusted != 0 || result.Remaining() != 1 {
		t.Errorf("noise=%d adjusted=%d remaining=%d, want 1/0/1",
			len(result.Noise), result.Adjusted, result.Remaining())
	}
	if result.Labels[0] != -1 {
		t.Errorf("expected label -1, got %d", result.Labels[0])
	}
}

// threeClusters returns clusters of sizes 2, 5 and 3 in that discovery order.
func threeClusters() []Point {
	var pts []Point
	pts = append(pts, linePoints(1, 2, 1, 0)...)
	pts = append(pts, linePoints(10, 5, 1, 100)...)
	pts = append(pts, linePoints(20, 3, 1, 200)...)
	return pts
}

func TestRun_ExportCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Eps = 1.5
	cfg.MinPts = 2

	for _, tt := range []struct {
		count int
		want  []int
	}{
		{0, nil},
		{1, []int{5}},
		{2, []int{5, 3}},
		{3, []int{5, 3, 2}},
		{10, []int{5, 3, 2}},
	} {
		cfg.ClusterCount = tt.count
		result, err := Run(threeClusters(), cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		exported := result.Exported()
		if len(exported) != len(tt.want) {
			t.Fatalf("count=%d: exported %d clusters, want %d", tt.count, len(exported), len(tt.want))
		}
		for k, c := range exported {
			if c.Len() != tt.want[k] {
				t.Errorf("count=%d: exported[%d] has %d points, want %d", tt.count, k, c.Len(), tt.want[k])
			}
		}
	}
}

func TestRun_RankedNonIncreasing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Eps = 5
	cfg.MinPts = 3
	result, err := Run(randomPoints(500, 100, 4), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for k := 1; k < len(result.Clusters); k++ {
		if result.Clusters[k].Len() > result.Clusters[k-1].Len() {
			t.Fatalf("cluster %d (%d points) larger than cluster %d (%d points)",
				k, result.Clusters[k].Len(), k-1, result.Clusters[k-1].Len())
		}
	}
}

func TestRun_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Eps = 4
	cfg.MinPts = 4
	pts := randomPoints(400, 100, 21)

	a, err := Run(pts, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Run(pts, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("label %d differs between runs: %d vs %d", i, a.Labels[i], b.Labels[i])
		}
	}
}
