// Package metrics exposes Prometheus collectors for clustering runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TrevorS/dbscan"
)

const namespace = "dbscan"

// Recorder holds the collectors for clustering runs.
type Recorder struct {
	Runs     *prometheus.CounterVec
	Points   prometheus.Counter
	Clusters prometheus.Histogram
	Noise    prometheus.Counter
	Adjusted prometheus.Counter
	Duration prometheus.Histogram
	InFlight prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Clustering runs by outcome.",
		}, []string{"outcome"}),
		Points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Points submitted for clustering.",
		}),
		Clusters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_per_run",
			Help:      "Clusters discovered per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		Noise: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "noise_points_total",
			Help:      "Points classified as noise during expansion.",
		}),
		Adjusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adjusted_points_total",
			Help:      "Noise points moved into a cluster by adjustment.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a clustering run.",
			Buckets:   prometheus.DefBuckets,
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_in_flight",
			Help:      "Clustering runs currently executing.",
		}),
	}
	reg.MustRegister(r.Runs, r.Points, r.Clusters, r.Noise, r.Adjusted, r.Duration, r.InFlight)
	return r
}

// Observe records a finished run. result may be nil when err is non-nil.
func (r *Recorder) Observe(points int, result *dbscan.Result, elapsed time.Duration, err error) {
	r.Duration.Observe(elapsed.Seconds())
	r.Points.Add(float64(points))
	if err != nil {
		r.Runs.WithLabelValues("error").Inc()
		return
	}
	r.Runs.WithLabelValues("ok").Inc()
	r.Clusters.Observe(float64(len(result.Clusters)))
	r.Noise.Add(float64(len(result.Noise)))
	r.Adjusted.Add(float64(result.Adjusted))
}

// Track marks a run as in flight and returns a function that records its
// outcome when called.
func (r *Recorder) Track(points int) func(*dbscan.Result, error) {
	r.InFlight.Inc()
	start := time.Now()
	return func(result *dbscan.Result, err error) {
		r.InFlight.Dec()
		r.Observe(points, result, time.Since(start), err)
	}
}
