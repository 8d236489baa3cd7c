package handler

import (
	"net/http"

	"clubschedule/internal/access"
	"clubschedule/internal/rules/service"
	httputil "clubschedule/pkg/http"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RuleHandler struct {
	service service.RuleService
	guard   *access.Guard
	log     *logger.Logger
}

func NewRuleHandler(service service.RuleService, guard *access.Guard, log *logger.Logger) *RuleHandler {
	return &RuleHandler{
		service: service,
		guard:   guard,
		log:     log,
	}
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var rule model.AvailabilityRule
	if err := httputil.DecodeJSON(r, &rule); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &rule); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, rule); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RuleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rule, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, rule); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	rules, total, err := h.service.List(r.Context(), r.URL.Query().Get("location"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, rules, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.AvailabilityRuleUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	rule, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, rule); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RuleHandler) Generate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.GenerateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Generate", err)
		return
	}

	result, err := h.service.Generate(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Generate", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Generate", "operation", "WriteCreated", "error", err)
	}
}

func (h *RuleHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RuleHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rules", h.guard.Require(access.ManageSchedules, h.Create))
	router.GET("/api/v1/rules", h.guard.Require(access.ViewSchedules, h.List))
	router.GET("/api/v1/rules/id/:id", h.guard.Require(access.ViewSchedules, h.GetByID))
	router.PATCH("/api/v1/rules/id/:id", h.guard.Require(access.ManageSchedules, h.Update))
	router.DELETE("/api/v1/rules/id/:id", h.guard.Require(access.ManageSchedules, h.Delete))
	router.POST("/api/v1/rules/id/:id/generate", h.guard.Require(access.ManageSchedules, h.Generate))
}
