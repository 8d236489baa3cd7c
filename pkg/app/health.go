package app

import (
	"context"
	"net/http"
	"time"

	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by *client.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsFunc reports a component's counters on /health.
type StatsFunc func() any

type HealthResponse struct {
	Status   string         `json:"status"`
	Database string         `json:"database,omitempty"`
	Stats    map[string]any `json:"stats,omitempty"`
}

type HealthHandler struct {
	db    Pinger
	stats map[string]StatsFunc
	log   *logger.Logger
}

func NewHealthHandler(db Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		stats: make(map[string]StatsFunc),
		log:   log,
	}
}

// AddStats registers a named counter snapshot, e.g. Kafka producer metrics.
func (h *HealthHandler) AddStats(name string, fn StatsFunc) {
	h.stats[name] = fn
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := HealthResponse{Status: "ok"}
	if len(h.stats) > 0 {
		resp.Stats = make(map[string]any, len(h.stats))
		for name, fn := range h.stats {
			resp.Stats[name] = fn()
		}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ready",
		Database: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
