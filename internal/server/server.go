// Package server exposes clustering over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/config"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/metrics"
)

// Server handles clustering requests.
type Server struct {
	cfg      config.Server
	log      *zap.Logger
	metrics  *metrics.Recorder
	gatherer prometheus.Gatherer
	validate *validator.Validate
}

// New returns a Server whose collectors are registered with reg.
func New(cfg config.Server, logger *zap.Logger, reg *prometheus.Registry) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		log:      logger,
		metrics:  metrics.NewRecorder(reg),
		gatherer: reg,
		validate: validator.New(),
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(s.log))

	router.Get("/healthz", s.health)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	router.Route("/v1", func(r chi.Router) {
		r.Post("/cluster", s.cluster)
	})

	return router
}

const (
	// bytesPerPoint bounds the encoded size of one point object.
	bytesPerPoint = 64
	// bodyOverhead covers the request fields around the points array.
	bodyOverhead = 1 << 10
)

// maxBodyBytes caps the request body so MaxPoints also bounds decoding.
func (s *Server) maxBodyBytes() int64 {
	return int64(s.cfg.MaxPoints)*bytesPerPoint + bodyOverhead
}

type pointJSON struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type clusterRequest struct {
	Points         []pointJSON `json:"points" validate:"required"`
	Eps            *float64    `json:"eps" validate:"required"`
	MinPts         *int        `json:"min_pts" validate:"required"`
	ClusterCount   *int        `json:"cluster_count" validate:"required,gte=0"`
	Index          string      `json:"index" validate:"omitempty,oneof=auto brute brute_parallel kdtree"`
	MatchReference bool        `json:"match_reference"`
}

type clusterJSON struct {
	Rank  int     `json:"rank"`
	Index int     `json:"index"`
	Size  int     `json:"size"`
	IDs   []int64 `json:"ids"`
}

type clusterResponse struct {
	RunID     string        `json:"run_id"`
	Clusters  []clusterJSON `json:"clusters"`
	Outliers  int           `json:"outliers"`
	Adjusted  int           `json:"adjusted"`
	Remaining int           `json:"remaining"`
	Noise     []int64       `json:"noise"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) cluster(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes())
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Points) > s.cfg.MaxPoints {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%d points exceeds the limit of %d", len(req.Points), s.cfg.MaxPoints))
		return
	}

	logger, runID := logging.WithRunID(s.log)
	cfg := dbscan.DefaultConfig()
	cfg.Eps = *req.Eps
	cfg.MinPts = *req.MinPts
	cfg.ClusterCount = *req.ClusterCount
	if req.Index != "" {
		cfg.Index = dbscan.IndexKind(req.Index)
	}
	cfg.MatchReferenceImplementation = req.MatchReference
	cfg.Logger = logger

	points := make([]dbscan.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = dbscan.Point{ID: p.ID, X: p.X, Y: p.Y}
	}

	done := s.metrics.Track(len(points))
	start := time.Now()
	result, err := dbscan.Run(points, cfg)
	done(result, err)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dbscan.ErrDuplicateID) || errors.Is(err, dbscan.ErrNonFinite) {
			status = http.StatusUnprocessableEntity
		}
		logger.Warn("clustering failed", zap.Error(err))
		writeError(w, status, err)
		return
	}

	logger.Info("clustering finished",
		zap.Int("points", len(points)),
		zap.Int("clusters", len(result.Clusters)),
		zap.Int("outliers", len(result.Noise)),
		zap.Int("adjusted", result.Adjusted),
		zap.Duration("duration", time.Since(start)),
	)
	writeJSON(w, http.StatusOK, buildResponse(runID, result))
}

func buildResponse(runID string, result *dbscan.Result) clusterResponse {
	resp := clusterResponse{
		RunID:     runID,
		Clusters:  []clusterJSON{},
		Outliers:  len(result.Noise),
		Adjusted:  result.Adjusted,
		Remaining: result.Remaining(),
		Noise:     []int64{},
	}
	for rank, c := range result.Exported() {
		resp.Clusters = append(resp.Clusters, clusterJSON{
			Rank:  rank,
			Index: c.Index,
			Size:  c.Len(),
			IDs:   c.IDs(),
		})
	}
	for _, p := range result.Unassigned {
		resp.Noise = append(resp.Noise, p.ID)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
