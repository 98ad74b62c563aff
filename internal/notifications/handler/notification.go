package handler

import (
	"net/http"

	"servicely/internal/notifications/service"
	apperrors "servicely/pkg/errors"
	httputil "servicely/pkg/http"
	"servicely/pkg/logger"
	"servicely/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	dispatcher service.Dispatcher
	log        *logger.Logger
}

func NewNotificationHandler(dispatcher service.Dispatcher, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		log:        log,
	}
}

type unreadCountResponse struct {
	Unread int64 `json:"unread"`
}

func (h *NotificationHandler) role(w http.ResponseWriter, ps httprouter.Params, handler string) (model.Role, bool) {
	role, ok := model.ParseRole(ps.ByName("role"))
	if !ok {
		h.writeError(w, apperrors.InvalidInput("Role must be provider or seeker"), handler)
		return "", false
	}
	return role, true
}

// List handles GET /notifications/:role/:id where id is the user id.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	role, ok := h.role(w, ps, "List")
	if !ok {
		return
	}
	userID := ps.ByName("id")
	if err := httputil.RequireSelf(r.Context(), userID); err != nil {
		h.writeError(w, err, "List")
		return
	}

	list, err := h.dispatcher.List(r.Context(), role, userID)
	if err != nil {
		h.writeError(w, err, "List")
		return
	}

	if err := httputil.WriteSuccess(w, list); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	role, ok := h.role(w, ps, "UnreadCount")
	if !ok {
		return
	}
	userID := ps.ByName("id")
	if err := httputil.RequireSelf(r.Context(), userID); err != nil {
		h.writeError(w, err, "UnreadCount")
		return
	}

	count, err := h.dispatcher.UnreadCount(r.Context(), role, userID)
	if err != nil {
		h.writeError(w, err, "UnreadCount")
		return
	}

	if err := httputil.WriteSuccess(w, unreadCountResponse{Unread: count}); err != nil {
		h.log.Error("failed to write success response", "handler", "UnreadCount", "operation", "WriteSuccess", "error", err)
	}
}

// MarkRead handles PUT /notifications/:role/:id/mark-read where id is the
// notification id.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	role, ok := h.role(w, ps, "MarkRead")
	if !ok {
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), role, ps.ByName("id")); err != nil {
		h.writeError(w, err, "MarkRead")
		return
	}

	httputil.WriteNoContent(w)
}

// MarkAllRead handles PUT /notifications/:role/:id/mark-all-read where id is
// the user id.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	role, ok := h.role(w, ps, "MarkAllRead")
	if !ok {
		return
	}
	userID := ps.ByName("id")
	if err := httputil.RequireSelf(r.Context(), userID); err != nil {
		h.writeError(w, err, "MarkAllRead")
		return
	}

	result, err := h.dispatcher.MarkAllRead(r.Context(), role, userID)
	if err != nil {
		h.writeError(w, err, "MarkAllRead")
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "MarkAllRead", "operation", "WriteSuccess", "error", err)
	}
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications/:role/:id", h.List)
	router.GET("/api/v1/notifications/:role/:id/unread-count", h.UnreadCount)
	router.PUT("/api/v1/notifications/:role/:id/mark-read", h.MarkRead)
	router.PUT("/api/v1/notifications/:role/:id/mark-all-read", h.MarkAllRead)
}
