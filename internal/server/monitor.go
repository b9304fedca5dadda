package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ein-shved/swyh-rs/internal/config"
	"github.com/ein-shved/swyh-rs/internal/metrics"
	"github.com/ein-shved/swyh-rs/internal/stream"
)

// Monitor provides the operational HTTP API: health, active sessions,
// configuration and Prometheus metrics. It runs on its own listener, away
// from the renderer-facing streaming endpoint.
type Monitor struct {
	server    *http.Server
	router    chi.Router
	logger    *slog.Logger
	store     *config.Store
	registry  *stream.Registry
	metrics   *metrics.Metrics
	startTime time.Time
}

// NewMonitor creates the monitoring API server.
func NewMonitor(
	cfg config.MonitorConfig,
	logger *slog.Logger,
	store *config.Store,
	registry *stream.Registry,
	m *metrics.Metrics,
) *Monitor {
	mon := &Monitor{
		logger:    logger,
		store:     store,
		registry:  registry,
		metrics:   m,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Get("/health", mon.instrument("/health", mon.handleHealth))
	r.Get("/api/sessions", mon.instrument("/api/sessions", mon.handleSessions))
	r.Get("/api/config", mon.instrument("/api/config", mon.handleConfig))
	r.Method(http.MethodGet, "/metrics", m.Handler(func() {
		m.ActiveSessions.Set(float64(registry.Count()))
	}))
	mon.router = r

	mon.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return mon
}

// Start launches the monitor in a background goroutine.
func (mon *Monitor) Start() {
	mon.logger.Info("Monitor API listening", slog.String("address", mon.server.Addr))

	go func() {
		if err := mon.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mon.logger.Error("Monitor server error", slog.String("error", err.Error()))
		}
	}()
}

// Stop shuts the monitor down gracefully.
func (mon *Monitor) Stop(ctx context.Context) error {
	return mon.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (mon *Monitor) Router() http.Handler {
	return mon.router
}

// instrument counts requests per endpoint.
func (mon *Monitor) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mon.metrics.HTTPRequests.WithLabelValues(r.Method, endpoint).Inc()
		next(w, r)
	}
}

func (mon *Monitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	mon.writeJSON(w, map[string]any{
		"status":          "healthy",
		"uptime_seconds":  time.Since(mon.startTime).Seconds(),
		"active_sessions": mon.registry.Count(),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

func (mon *Monitor) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := mon.registry.Snapshot()
	mon.writeJSON(w, map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

func (mon *Monitor) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := mon.store.Snapshot()
	mon.writeJSON(w, map[string]any{
		"server":    cfg.Server,
		"audio":     cfg.Audio,
		"streaming": cfg.Streaming,
	})
}

func (mon *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		mon.logger.Warn("Failed to encode monitor response", slog.String("error", err.Error()))
	}
}
