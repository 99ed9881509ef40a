// Package httpapi exposes the Session Orchestrator over HTTP: the
// request surface named in spec.md §6, plus health and metrics
// endpoints for ambient operability.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"browser-agent/internal/core/orchestrator"
	"browser-agent/internal/domain/apperr"
	"browser-agent/internal/domain/entity"
	"browser-agent/internal/domain/ports"
	"browser-agent/internal/infrastructure/metrics"
)

// Runner is the subset of orchestrator.Orchestrator the server depends
// on, kept narrow so tests can substitute a fake.
type Runner interface {
	Run(ctx context.Context, req entity.RunRequest) (*orchestrator.RunResult, error)
}

// Server wires chi routing, structured request logging, and prometheus
// metrics around the Session Orchestrator.
type Server struct {
	router *chi.Mux
}

// New builds the HTTP server. logger records run-automation failures;
// request logging goes through httplog's own logger.
func New(runner Runner, logger ports.Logger, m *metrics.Metrics) *Server {
	r := chi.NewRouter()

	httpLogger := httplog.NewLogger("browser-agent", httplog.Options{
		JSON:     true,
		LogLevel: "info",
	})
	r.Use(httplog.RequestLogger(httpLogger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	if m != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Post("/api/run-automation", handleRunAutomation(runner, logger, m))

	return &Server{router: r}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleRunAutomation(runner Runner, logger ports.Logger, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req entity.RunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		result, err := runner.Run(r.Context(), req)
		if m != nil {
			m.RunDuration.Observe(time.Since(start).Seconds())
		}
		if err != nil {
			writeOrchestratorError(w, logger, err)
			return
		}

		if m != nil {
			observeResult(m, result)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if result.Single != nil {
			_ = json.NewEncoder(w).Encode(result.Single)
			return
		}
		_ = json.NewEncoder(w).Encode(result.Batch)
	}
}

func observeResult(m *metrics.Metrics, result *orchestrator.RunResult) {
	if result.Single != nil {
		m.ObserveReport(string(result.Single.Status), result.Single.Passed, result.Single.Failed)
		return
	}
	if result.Batch != nil {
		passed, failed := 0, 0
		for _, tc := range result.Batch.TestCases {
			passed += tc.Passed
			failed += tc.Failed
		}
		m.ObserveReport(string(result.Batch.Status), passed, failed)
	}
}

func writeOrchestratorError(w http.ResponseWriter, logger ports.Logger, err error) {
	switch {
	case apperr.Is(err, apperr.KindValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case apperr.Is(err, apperr.KindNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		if logger != nil {
			logger.Error("run-automation failed", "error", err.Error())
		}
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
