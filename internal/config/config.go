// Package config loads and validates settings for the dbscan binaries.
//
// A batch run takes its four required parameters positionally, in the
// order input, cluster_count, eps, min_pts. They may also come from a YAML
// file; positional arguments override the file. None of the four has a
// default.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/dbscan"
)

var validate = validator.New()

// LogConfig selects the logger's level and encoding.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Run holds the settings of one batch clustering run.
type Run struct {
	// Input is the path of the point records.
	Input string `yaml:"input" validate:"required"`

	// ClusterCount is the maximum number of clusters to export.
	ClusterCount *int `yaml:"cluster_count" validate:"required,gte=0"`

	// Eps is the neighborhood radius.
	Eps *float64 `yaml:"eps" validate:"required"`

	// MinPts is the minimum neighborhood size of a core point.
	MinPts *int `yaml:"min_pts" validate:"required"`

	// Delimiter separates record fields. Empty means tab.
	Delimiter string `yaml:"delimiter" validate:"omitempty,len=1"`

	// OutputDir, when set, receives the cluster files instead of the
	// input's directory.
	OutputDir string `yaml:"output_dir"`

	Index          string `yaml:"index" validate:"omitempty,oneof=auto brute brute_parallel kdtree"`
	LeafSize       int    `yaml:"leaf_size" validate:"gte=0"`
	Workers        int    `yaml:"workers" validate:"gte=0"`
	MatchReference bool   `yaml:"match_reference"`

	Log LogConfig `yaml:"log"`
}

// Server holds the settings of the HTTP API.
type Server struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`

	// MaxPoints caps the number of points accepted per request.
	MaxPoints int `yaml:"max_points" validate:"gt=0"`

	Log LogConfig `yaml:"log"`
}

// DefaultServer returns the API defaults.
func DefaultServer() Server {
	return Server{
		Addr:      "localhost:8080",
		MaxPoints: 100000,
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// LoadFile decodes a YAML file into target. Unknown keys are rejected.
func LoadFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

// ApplyArgs sets the four positional parameters
// (input, cluster_count, eps, min_pts) on r. An empty args is a no-op so a
// config file can supply them instead.
func (r *Run) ApplyArgs(args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) != 4 {
		return fmt.Errorf("config: expected 4 arguments (input cluster_count eps min_pts), got %d", len(args))
	}

	clusterCount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("config: cluster_count: %w", err)
	}
	eps, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("config: eps: %w", err)
	}
	minPts, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("config: min_pts: %w", err)
	}

	r.Input = args[0]
	r.ClusterCount = &clusterCount
	r.Eps = &eps
	r.MinPts = &minPts
	return nil
}

// Validate checks every field and reports all failures at once.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// DelimiterRune returns the record delimiter, defaulting to tab.
func (r *Run) DelimiterRune() rune {
	if r.Delimiter == "" {
		return '\t'
	}
	return []rune(r.Delimiter)[0]
}

// Engine converts a validated Run into engine settings.
func (r *Run) Engine() dbscan.Config {
	cfg := dbscan.DefaultConfig()
	cfg.Eps = *r.Eps
	cfg.MinPts = *r.MinPts
	cfg.ClusterCount = *r.ClusterCount
	if r.Index != "" {
		cfg.Index = dbscan.IndexKind(r.Index)
	}
	if r.LeafSize > 0 {
		cfg.LeafSize = r.LeafSize
	}
	cfg.Workers = r.Workers
	cfg.MatchReferenceImplementation = r.MatchReference
	return cfg
}

// formatValidationError formats validation errors into readable messages.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New("config: " + strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, e.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s character(s)", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
