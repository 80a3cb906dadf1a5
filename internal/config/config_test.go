package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TrevorS/dbscan"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestApplyArgs(t *testing.T) {
	var r Run
	require.NoError(t, r.ApplyArgs([]string{"input1.txt", "8", "15", "22"}))
	require.NoError(t, Validate(&r))

	assert.Equal(t, "input1.txt", r.Input)
	assert.Equal(t, 8, *r.ClusterCount)
	assert.Equal(t, 15.0, *r.Eps)
	assert.Equal(t, 22, *r.MinPts)
}

func TestApplyArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"too few", []string{"in.txt", "1"}},
		{"too many", []string{"in.txt", "1", "2", "3", "4"}},
		{"bad cluster_count", []string{"in.txt", "x", "2", "3"}},
		{"bad eps", []string{"in.txt", "1", "wide", "3"}},
		{"bad min_pts", []string{"in.txt", "1", "2", "3.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Run
			assert.Error(t, r.ApplyArgs(tt.args))
		})
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	var r Run
	require.NoError(t, r.ApplyArgs(nil))

	err := Validate(&r)
	require.Error(t, err)
	for _, field := range []string{"Input", "ClusterCount", "Eps", "MinPts"} {
		assert.Contains(t, err.Error(), field+" is required")
	}
}

func TestValidate_ZeroValuesAreSet(t *testing.T) {
	// Zero is a legitimate value for the numeric parameters.
	var r Run
	require.NoError(t, r.ApplyArgs([]string{"in.txt", "0", "0", "0"}))
	assert.NoError(t, Validate(&r))
}

func TestValidate_Ranges(t *testing.T) {
	base := func() Run {
		var r Run
		require.NoError(t, r.ApplyArgs([]string{"in.txt", "3", "2", "4"}))
		return r
	}

	tests := []struct {
		name   string
		mutate func(*Run)
		msg    string
	}{
		{"negative cluster_count", func(r *Run) { n := -1; r.ClusterCount = &n }, "ClusterCount must be >= 0"},
		{"bad index", func(r *Run) { r.Index = "octree" }, "Index must be one of"},
		{"long delimiter", func(r *Run) { r.Delimiter = "::" }, "Delimiter must be exactly 1"},
		{"negative workers", func(r *Run) { r.Workers = -1 }, "Workers must be >= 0"},
		{"bad log level", func(r *Run) { r.Log.Level = "loud" }, "Log.Level must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := Validate(&r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFile_ArgsOverrideFile(t *testing.T) {
	path := writeYAML(t, `
input: from-file.txt
cluster_count: 2
eps: 1.5
min_pts: 3
delimiter: ","
index: kdtree
leaf_size: 8
match_reference: true
log:
  level: debug
  format: console
`)
	var r Run
	require.NoError(t, LoadFile(path, &r))
	assert.Equal(t, "from-file.txt", r.Input)
	assert.Equal(t, ',', r.DelimiterRune())

	require.NoError(t, r.ApplyArgs([]string{"from-args.txt", "5", "2", "4"}))
	require.NoError(t, Validate(&r))
	assert.Equal(t, "from-args.txt", r.Input)
	assert.Equal(t, 5, *r.ClusterCount)
	assert.Equal(t, "kdtree", r.Index)

	cfg := r.Engine()
	assert.Equal(t, 2.0, cfg.Eps)
	assert.Equal(t, 4, cfg.MinPts)
	assert.Equal(t, 5, cfg.ClusterCount)
	assert.Equal(t, dbscan.IndexKDTree, cfg.Index)
	assert.Equal(t, 8, cfg.LeafSize)
	assert.True(t, cfg.MatchReferenceImplementation)
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := writeYAML(t, "input: a.txt\nepsilon: 2\n")
	var r Run
	assert.Error(t, LoadFile(path, &r))
}

func TestLoadFile_Missing(t *testing.T) {
	var r Run
	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), &r))
}

func TestRunEngine_Defaults(t *testing.T) {
	var r Run
	require.NoError(t, r.ApplyArgs([]string{"in.txt", "1", "2", "3"}))
	cfg := r.Engine()
	assert.Equal(t, dbscan.IndexAuto, cfg.Index)
	assert.Equal(t, dbscan.DefaultConfig().LeafSize, cfg.LeafSize)
	assert.Equal(t, '\t', r.DelimiterRune())
}

func TestServer_DefaultsValid(t *testing.T) {
	s := DefaultServer()
	assert.NoError(t, Validate(&s))

	s.Addr = "not an address"
	assert.Error(t, Validate(&s))
}
