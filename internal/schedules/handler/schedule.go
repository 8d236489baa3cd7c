package handler

import (
	"net/http"

	"clubschedule/internal/access"
	"clubschedule/internal/schedules/service"
	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ScheduleHandler struct {
	service   service.ScheduleService
	overrides service.OverrideService
	guard     *access.Guard
	log       *logger.Logger
}

func NewScheduleHandler(service service.ScheduleService, overrides service.OverrideService, guard *access.Guard, log *logger.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		service:   service,
		overrides: overrides,
		guard:     guard,
		log:       log,
	}
}

func (h *ScheduleHandler) Apply(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var spec model.BatchSpec
	if err := httputil.DecodeJSON(r, &spec); err != nil {
		h.writeError(w, "Apply", err)
		return
	}

	result, err := h.service.ApplySchedule(r.Context(), &spec)
	if err != nil {
		h.writeError(w, "Apply", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Apply", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) Check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var spec model.BatchSpec
	if err := httputil.DecodeJSON(r, &spec); err != nil {
		h.writeError(w, "Check", err)
		return
	}

	check, err := h.service.CheckScheduleConflicts(r.Context(), &spec)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	if err := httputil.WriteSuccess(w, check); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) Protection(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var filter model.ProtectionFilter
	if err := httputil.DecodeJSON(r, &filter); err != nil {
		h.writeError(w, "Protection", err)
		return
	}

	report, err := h.service.CheckBookingProtection(r.Context(), &filter)
	if err != nil {
		h.writeError(w, "Protection", err)
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Protection", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) GetBatch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	batch, err := h.service.GetBatch(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetBatch", err)
		return
	}

	if err := httputil.WriteSuccess(w, batch); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBatch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) ListBatches(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListBatches", err)
		return
	}

	batches, total, err := h.service.ListBatches(r.Context(), r.URL.Query().Get("location"), limit, offset)
	if err != nil {
		h.writeError(w, "ListBatches", err)
		return
	}

	if err := httputil.WritePaginated(w, batches, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListBatches", "operation", "WritePaginated", "error", err)
	}
}

func (h *ScheduleHandler) CreateOverride(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var override model.AvailabilityOverride
	if err := httputil.DecodeJSON(r, &override); err != nil {
		h.writeError(w, "CreateOverride", err)
		return
	}

	if err := h.overrides.Create(r.Context(), &override); err != nil {
		h.writeError(w, "CreateOverride", err)
		return
	}

	if err := httputil.WriteCreated(w, override); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOverride", "operation", "WriteCreated", "error", err)
	}
}

func (h *ScheduleHandler) ListOverrides(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	overrides, err := h.overrides.List(r.Context(), query.Get("location"), query.Get("from"), query.Get("to"))
	if err != nil {
		h.writeError(w, "ListOverrides", err)
		return
	}

	if err := httputil.WriteSuccess(w, overrides); err != nil {
		h.log.Error("failed to write success response", "handler", "ListOverrides", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ScheduleHandler) DeleteOverride(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.overrides.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteOverride", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ScheduleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/schedules/apply", h.guard.Require(access.ManageSchedules, h.Apply))
	router.POST("/api/v1/schedules/check", h.guard.Require(access.ViewSchedules, h.Check))
	router.POST("/api/v1/schedules/protection", h.guard.Require(access.ViewSchedules, h.Protection))
	router.GET("/api/v1/schedules/batches", h.guard.Require(access.ViewSchedules, h.ListBatches))
	router.GET("/api/v1/schedules/batches/id/:id", h.guard.Require(access.ViewSchedules, h.GetBatch))

	router.POST("/api/v1/overrides", h.guard.Require(access.ManageSchedules, h.CreateOverride))
	router.GET("/api/v1/overrides", h.guard.Require(access.ViewSchedules, h.ListOverrides))
	router.DELETE("/api/v1/overrides/id/:id", h.guard.Require(access.ManageSchedules, h.DeleteOverride))
}
