package handler

import (
	"net/http"

	"clubschedule/internal/access"
	"clubschedule/internal/slots/service"
	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type SlotHandler struct {
	service service.SlotService
	guard   *access.Guard
	log     *logger.Logger
}

func NewSlotHandler(service service.SlotService, guard *access.Guard, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *SlotHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	q := service.ListQuery{
		Location: query.Get("location"),
		Status:   model.SlotStatus(query.Get("status")),
		Limit:    limit,
		Offset:   offset,
	}
	if query.Get("from") != "" || query.Get("to") != "" {
		from, to, err := httputil.ExtractTimeRange(r)
		if err != nil {
			h.writeError(w, "List", err)
			return
		}
		q.From, q.To = &from, &to
	}

	slots, total, err := h.service.List(r.Context(), q)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, slots, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *SlotHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.SlotStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	slot, err := h.service.SetStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) Recompute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	slot, err := h.service.Recompute(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Recompute", err)
		return
	}

	if err := httputil.WriteSuccess(w, slot); err != nil {
		h.log.Error("failed to write success response", "handler", "Recompute", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/slots", h.guard.Require(access.ViewSchedules, h.List))
	router.GET("/api/v1/slots/id/:id", h.guard.Require(access.ViewSchedules, h.GetByID))
	router.PATCH("/api/v1/slots/id/:id/status", h.guard.Require(access.ManageSlots, h.SetStatus))
	router.POST("/api/v1/slots/id/:id/recompute", h.guard.Require(access.ManageSlots, h.Recompute))
}
