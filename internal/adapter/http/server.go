package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/hydroseries/drought"
	"github.com/couchcryptid/hydroseries/internal/observability"
	"github.com/couchcryptid/hydroseries/timeseries"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// IndexTransformer converts daily weather observations into drought index
// values. Implemented by drought.Transformer.
type IndexTransformer interface {
	Name() string
	Transform(obs []drought.Observation) ([]drought.IndexValue, error)
}

// Server exposes health, readiness, metrics, and the drought index endpoint.
type Server struct {
	httpServer *http.Server
	index      IndexTransformer
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server. The index transformer may be nil when
// the drought endpoint is disabled; requests then get 404.
func NewServer(addr string, ready ReadinessChecker, index IndexTransformer, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		index:   index,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if index != nil {
		mux.HandleFunc("POST /v1/drought-index", s.handleDroughtIndex)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// indexRequest is the drought index request body. Pointer fields distinguish
// absent variables from explicit nulls; both become NaN.
type indexRequest struct {
	Observations []struct {
		Date          string   `json:"date"`
		Precipitation *float64 `json:"precipitation"`
		Evaporation   *float64 `json:"evaporation"`
	} `json:"observations"`
}

// indexValueDTO carries one output row. Value is null for days the model
// cannot score (undefined calendar day or non-finite z-score).
type indexValueDTO struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

type indexResponse struct {
	Name   string          `json:"name"`
	Values []indexValueDTO `json:"values"`
}

func (s *Server) handleDroughtIndex(w http.ResponseWriter, r *http.Request) {
	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.failIndex(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Observations) == 0 {
		s.failIndex(w, http.StatusBadRequest, "bad_request", "observations must not be empty")
		return
	}

	obs := make([]drought.Observation, len(req.Observations))
	for i, o := range req.Observations {
		date, err := timeseries.ParseTime(o.Date)
		if err != nil {
			s.failIndex(w, http.StatusBadRequest, "bad_request", "invalid date: "+o.Date)
			return
		}
		obs[i] = drought.Observation{
			Date:          date,
			Precipitation: deref(o.Precipitation),
			Evaporation:   deref(o.Evaporation),
		}
	}

	values, err := s.index.Transform(obs)
	switch {
	case errors.Is(err, drought.ErrSchema):
		s.failIndex(w, http.StatusUnprocessableEntity, "schema_error", err.Error())
		return
	case errors.Is(err, drought.ErrNotConfigured):
		s.failIndex(w, http.StatusServiceUnavailable, "not_configured", err.Error())
		return
	case err != nil:
		s.failIndex(w, http.StatusInternalServerError, "error", err.Error())
		return
	}

	resp := indexResponse{
		Name:   s.index.Name(),
		Values: make([]indexValueDTO, len(values)),
	}
	for i, v := range values {
		dto := indexValueDTO{Date: v.Date.Format("2006-01-02")}
		if !math.IsNaN(v.Value) && !math.IsInf(v.Value, 0) {
			val := v.Value
			dto.Value = &val
		}
		resp.Values[i] = dto
	}

	s.metrics.IndexRequests.WithLabelValues("success").Inc()
	s.metrics.IndexValues.Add(float64(len(resp.Values)))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) failIndex(w http.ResponseWriter, status int, outcome, msg string) {
	s.metrics.IndexRequests.WithLabelValues(outcome).Inc()
	s.logger.Warn("drought index request failed", "outcome", outcome, "error", msg)
	writeJSON(w, status, map[string]string{"error": msg})
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
