package handler

import (
	"encoding/json"
	"net/http"

	"servicely/internal/reviews/service"
	httputil "servicely/pkg/http"
	"servicely/pkg/logger"
	"servicely/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReviewHandler struct {
	service service.ReviewService
	log     *logger.Logger
}

func NewReviewHandler(service service.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log,
	}
}

func (h *ReviewHandler) decode(w http.ResponseWriter, r *http.Request, handler string) (*model.ReviewInput, bool) {
	var input model.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Invalid request body"); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteBadRequest", "error", writeErr)
		}
		return nil, false
	}
	return &input, true
}

func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	input, ok := h.decode(w, r, "Submit")
	if !ok {
		return
	}

	review, err := h.service.Submit(r.Context(), ps.ByName("bookingId"), input)
	if err != nil {
		h.writeError(w, err, "Submit")
		return
	}

	if err := httputil.WriteCreated(w, review); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	input, ok := h.decode(w, r, "Update")
	if !ok {
		return
	}

	review, err := h.service.Update(r.Context(), ps.ByName("bookingId"), input)
	if err != nil {
		h.writeError(w, err, "Update")
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) GetByBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	review, err := h.service.GetByBooking(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		h.writeError(w, err, "GetByBooking")
		return
	}

	if err := httputil.WriteSuccess(w, review); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByBooking", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) ListByProvider(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.ListByProvider(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err, "ListByProvider")
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "ListByProvider", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) ListBySeeker(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reviews, err := h.service.ListBySeeker(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err, "ListBySeeker")
		return
	}

	if err := httputil.WriteSuccess(w, reviews); err != nil {
		h.log.Error("failed to write success response", "handler", "ListBySeeker", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReviewHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, err, "ListAll")
		return
	}

	reviews, total, err := h.service.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err, "ListAll")
		return
	}

	if err := httputil.WritePaginated(w, reviews, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReviewHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReviewHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/reviews", h.ListAll)
	router.POST("/api/v1/reviews/booking/:bookingId", h.Submit)
	router.PUT("/api/v1/reviews/booking/:bookingId", h.Update)
	router.GET("/api/v1/reviews/booking/:bookingId", h.GetByBooking)
	router.GET("/api/v1/reviews/provider/:id", h.ListByProvider)
	router.GET("/api/v1/reviews/seeker/:id", h.ListBySeeker)
}
