package handler

import (
	"encoding/json"
	"net/http"

	"servicely/internal/chat/service"
	httputil "servicely/pkg/http"
	"servicely/pkg/logger"
	"servicely/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ChatHandler struct {
	service service.ChatService
	log     *logger.Logger
}

func NewChatHandler(service service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		log:     log,
	}
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var msg model.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Invalid request body"); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Send", "operation", "WriteBadRequest", "error", writeErr)
		}
		return
	}

	sent, err := h.service.SendMessage(r.Context(), &msg)
	if err != nil {
		h.writeError(w, err, "Send")
		return
	}

	if err := httputil.WriteCreated(w, sent); err != nil {
		h.log.Error("failed to write created response", "handler", "Send", "operation", "WriteCreated", "error", err)
	}
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	messages, err := h.service.ListMessages(r.Context(), ps.ByName("bookingId"))
	if err != nil {
		h.writeError(w, err, "Messages")
		return
	}

	if err := httputil.WriteSuccess(w, messages); err != nil {
		h.log.Error("failed to write success response", "handler", "Messages", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChatHandler) Contacts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userId")
	if err := httputil.RequireSelf(r.Context(), userID); err != nil {
		h.writeError(w, err, "Contacts")
		return
	}

	contacts, err := h.service.ListContacts(r.Context(), userID)
	if err != nil {
		h.writeError(w, err, "Contacts")
		return
	}

	if err := httputil.WriteSuccess(w, contacts); err != nil {
		h.log.Error("failed to write success response", "handler", "Contacts", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ChatHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ChatHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/chat/send", h.Send)
	router.GET("/api/v1/chat/messages/:bookingId", h.Messages)
	router.GET("/api/v1/chat/contacts/:userId", h.Contacts)
}
