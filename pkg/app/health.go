package app

import (
	"context"
	"net/http"
	"time"

	httputil "servicely/pkg/http"
	kafka_middleware "servicely/pkg/kafka/middleware"
	"servicely/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const readyTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Presence exposes realtime registry counters.
type Presence interface {
	OnlineUsers() int
	ConnectionCount() int
}

type HealthResponse struct {
	Status      string                     `json:"status"`
	Database    string                     `json:"database,omitempty"`
	OnlineUsers *int                       `json:"online_users,omitempty"`
	Connections *int                       `json:"connections,omitempty"`
	Events      *kafka_middleware.Snapshot `json:"events,omitempty"`
}

type HealthHandler struct {
	db       Pinger
	presence Presence
	metrics  *kafka_middleware.Metrics
	log      *logger.Logger
}

// NewHealthHandler builds /health and /ready. presence and metrics may be nil.
func NewHealthHandler(db Pinger, presence Presence, metrics *kafka_middleware.Metrics, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		presence: presence,
		metrics:  metrics,
		log:      log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.db.Ping(ctx, nil); err != nil {
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

	resp := HealthResponse{
		Status:   "ready",
		Database: "ok",
	}
	if h.presence != nil {
		online, conns := h.presence.OnlineUsers(), h.presence.ConnectionCount()
		resp.OnlineUsers = &online
		resp.Connections = &conns
	}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		resp.Events = &snapshot
	}

	if err := httputil.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
