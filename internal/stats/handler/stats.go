package handler

import (
	"net/http"
	"strconv"

	"servicely/internal/stats/service"
	apperrors "servicely/pkg/errors"
	httputil "servicely/pkg/http"
	"servicely/pkg/logger"
	"servicely/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type StatsHandler struct {
	service service.StatsService
	log     *logger.Logger
}

func NewStatsHandler(service service.StatsService, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		log:     log,
	}
}

// StatusDistribution handles GET /stats/status-distribution?time_range=&offset=.
// offset defaults to 1.
func (h *StatsHandler) StatusDistribution(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	timeRange := query.Get("time_range")
	if timeRange == "" {
		timeRange = query.Get("timeRange")
	}

	offset := 1
	if raw := query.Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, apperrors.InvalidInput("Invalid offset parameter"), "StatusDistribution")
			return
		}
		offset = parsed
	}

	result, err := h.service.StatusDistribution(r.Context(), model.TimeRange(timeRange), offset)
	if err != nil {
		h.writeError(w, err, "StatusDistribution")
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "StatusDistribution", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatsHandler) TimeSeries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	days, err := h.service.TimeSeries(r.Context(), query.Get("from"), query.Get("to"))
	if err != nil {
		h.writeError(w, err, "TimeSeries")
		return
	}

	if err := httputil.WriteSuccess(w, days); err != nil {
		h.log.Error("failed to write success response", "handler", "TimeSeries", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeError(w, err, "Summary")
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatsHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *StatsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/stats/status-distribution", h.StatusDistribution)
	router.GET("/api/v1/stats/timeseries", h.TimeSeries)
	router.GET("/api/v1/stats/summary", h.Summary)
}
