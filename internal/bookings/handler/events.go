package handler

import (
	"net/http"

	"clubschedule/internal/access"
	"clubschedule/internal/bookings/service"
	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/middleware"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const EventsPath = "/api/v1/bookings/events"

// EventHandler accepts booking events pushed by the booking procedure.
// With a webhook secret the body must carry a valid signature; without one
// the caller needs the slot management capability.
type EventHandler struct {
	manager       service.ConsistencyManager
	guard         *access.Guard
	webhookSecret string
	log           *logger.Logger
}

func NewEventHandler(manager service.ConsistencyManager, guard *access.Guard, webhookSecret string, log *logger.Logger) *EventHandler {
	return &EventHandler{
		manager:       manager,
		guard:         guard,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

func (h *EventHandler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var event model.BookingEvent
	if err := httputil.DecodeJSON(r, &event); err != nil {
		h.writeError(w, err)
		return
	}

	slot, err := h.manager.HandleEvent(r.Context(), &event)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Receive", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventHandler) writeError(w http.ResponseWriter, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", "Receive", "operation", "WriteError", "error", writeErr)
	}
}

func (h *EventHandler) RegisterRoutes(router *httprouter.Router) {
	if h.webhookSecret == "" {
		router.POST(EventsPath, h.guard.Require(access.ManageSlots, h.Receive))
		return
	}

	receive := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Receive(w, r, nil)
	})
	router.Handler(http.MethodPost, EventsPath, middleware.WebhookSignature(h.webhookSecret, h.log)(receive))
}
