package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clubschedule/internal/access"
	apperrors "clubschedule/pkg/errors"
	"clubschedule/pkg/logger"
	"clubschedule/pkg/middleware"
	"clubschedule/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockManager struct {
	handleFunc func(ctx context.Context, event *model.BookingEvent) (*model.Slot, error)
	calls      int
}

func (m *mockManager) HandleEvent(ctx context.Context, event *model.BookingEvent) (*model.Slot, error) {
	m.calls++
	if m.handleFunc != nil {
		return m.handleFunc(ctx, event)
	}
	return &model.Slot{ID: event.Booking.SlotID, Status: model.SlotOpen}, nil
}

func (m *mockManager) OnBookingCreated(ctx context.Context, b *model.Booking) (*model.Slot, error) {
	return nil, nil
}

func (m *mockManager) OnBookingCancelled(ctx context.Context, b *model.Booking) (*model.Slot, error) {
	return nil, nil
}

func (m *mockManager) RecomputeSlot(ctx context.Context, slotID string) (*model.Slot, error) {
	return nil, nil
}

func (m *mockManager) Reconcile(ctx context.Context, from, to time.Time) (*model.ReconcileResult, error) {
	return nil, nil
}

func newRouter(m *mockManager, secret string) *httprouter.Router {
	log := logger.Discard()
	router := httprouter.New()
	guard := access.NewGuard(access.NewRoleChecker([]string{"admin"}), log)
	NewEventHandler(m, guard, secret, log).RegisterRoutes(router)
	return router
}

func eventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(model.BookingEvent{
		EventType: model.EventBookingCancelled,
		Booking: &model.Booking{
			ID:        "665f000000000000000000a1",
			SlotID:    "665f00000000000000000001",
			UserID:    "user-1",
			GroupSize: 1,
			Status:    model.BookingCancelled,
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func TestReceive_Signed(t *testing.T) {
	const secret = "s3cret"
	body := eventBody(t)

	tests := []struct {
		name      string
		signature string
		want      int
		wantCalls int
	}{
		{"valid signature", middleware.Sign(body, secret), http.StatusOK, 1},
		{"wrong secret", middleware.Sign(body, "other"), http.StatusUnauthorized, 0},
		{"missing signature", "", http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockManager{}
			req := httptest.NewRequest(http.MethodPost, EventsPath, bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.signature != "" {
				req.Header.Set(middleware.SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			newRouter(m, secret).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if m.calls != tt.wantCalls {
				t.Errorf("manager calls = %d, want %d", m.calls, tt.wantCalls)
			}
		})
	}
}

func TestReceive_Unsigned(t *testing.T) {
	tests := []struct {
		name   string
		role   string
		caller string
		want   int
	}{
		{"admin", "admin", "svc-bookings", http.StatusOK},
		{"member", "member", "user-1", http.StatusForbidden},
		{"anonymous", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, EventsPath, bytes.NewReader(eventBody(t)))
			req.Header.Set("Content-Type", "application/json")
			if tt.caller != "" {
				req.Header.Set(access.CallerIDHeader, tt.caller)
				req.Header.Set(access.CallerRoleHeader, tt.role)
			}
			rec := httptest.NewRecorder()
			newRouter(&mockManager{}, "").ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestReceive_StaleReadIsRetryable(t *testing.T) {
	m := &mockManager{
		handleFunc: func(ctx context.Context, event *model.BookingEvent) (*model.Slot, error) {
			return nil, apperrors.New(apperrors.CodeUnavailable, "Booking not yet visible", http.StatusServiceUnavailable)
		},
	}
	req := httptest.NewRequest(http.MethodPost, EventsPath, bytes.NewReader(eventBody(t)))
	req.Header.Set(access.CallerIDHeader, "svc-bookings")
	req.Header.Set(access.CallerRoleHeader, "admin")
	rec := httptest.NewRecorder()
	newRouter(m, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestReceive_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, EventsPath, bytes.NewReader([]byte("{")))
	req.Header.Set(access.CallerIDHeader, "svc-bookings")
	req.Header.Set(access.CallerRoleHeader, "admin")
	rec := httptest.NewRecorder()
	m := &mockManager{}
	newRouter(m, "").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if m.calls != 0 {
		t.Errorf("manager called on malformed body")
	}
}
