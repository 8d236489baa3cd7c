package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clubschedule/internal/access"
	"clubschedule/internal/slots/service"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockSlotService struct {
	listFunc      func(ctx context.Context, q service.ListQuery) ([]*model.Slot, int64, error)
	setStatusFunc func(ctx context.Context, id string, update *model.SlotStatusUpdate) (*model.Slot, error)
}

func (m *mockSlotService) GetByID(ctx context.Context, id string) (*model.Slot, error) {
	return nil, apperrors.NotFoundWithID("Slot", id)
}

func (m *mockSlotService) List(ctx context.Context, q service.ListQuery) ([]*model.Slot, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []*model.Slot{}, 0, nil
}

func (m *mockSlotService) SetStatus(ctx context.Context, id string, update *model.SlotStatusUpdate) (*model.Slot, error) {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, update)
	}
	return &model.Slot{ID: id, Status: update.Status}, nil
}

func (m *mockSlotService) Recompute(ctx context.Context, id string) (*model.Slot, error) {
	return &model.Slot{ID: id}, nil
}

func newRouter(svc service.SlotService) *httprouter.Router {
	log := logger.Discard()
	router := httprouter.New()
	NewSlotHandler(svc, access.NewGuard(access.NewRoleChecker([]string{"admin"}), log), log).RegisterRoutes(router)
	return router
}

func TestList_ParsesQuery(t *testing.T) {
	var got service.ListQuery
	router := newRouter(&mockSlotService{
		listFunc: func(ctx context.Context, q service.ListQuery) ([]*model.Slot, int64, error) {
			got = q
			return []*model.Slot{{ID: "a"}}, 7, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?location=Soses&from=2025-06-02&to=2025-06-02&limit=5", nil)
	req.Header.Set(access.CallerIDHeader, "member-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got.Location != "Soses" || got.Limit != 5 {
		t.Errorf("unexpected query %+v", got)
	}
	if got.From == nil || got.To == nil || got.To.Sub(*got.From) != 24*time.Hour {
		t.Errorf("date-only range should cover one day, got %v..%v", got.From, got.To)
	}

	var body struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.TotalCount != 7 {
		t.Errorf("unexpected body, total=%d err=%v", body.TotalCount, err)
	}
}

func TestList_InvalidRange(t *testing.T) {
	router := newRouter(&mockSlotService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?from=yesterday&to=2025-06-02", nil)
	req.Header.Set(access.CallerIDHeader, "member-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSetStatus_RequiresAdmin(t *testing.T) {
	router := newRouter(&mockSlotService{})

	tests := []struct {
		name       string
		role       string
		body       string
		wantStatus int
	}{
		{"member forbidden", "member", `{"status":"closed"}`, http.StatusForbidden},
		{"admin allowed", "admin", `{"status":"closed"}`, http.StatusOK},
		{"unknown field rejected", "admin", `{"status":"closed","force":true}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/slots/id/abc/status", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(access.CallerIDHeader, "u1")
			req.Header.Set(access.CallerRoleHeader, tt.role)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}
