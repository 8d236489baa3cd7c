package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"clubschedule/pkg/model"
)

const (
	bookingEventsPath = "/api/v1/bookings/events"
	signatureHeader   = "X-Signature-256"
)

// BookingClient calls the slot admin endpoints and the booking events webhook.
type BookingClient struct {
	httpClient    *HttpClient
	webhookSecret string
}

// NewBookingClient signs webhook events with webhookSecret when it is set.
func NewBookingClient(httpClient *HttpClient, webhookSecret string) *BookingClient {
	return &BookingClient{httpClient: httpClient, webhookSecret: webhookSecret}
}

// SlotQuery filters ListSlots. Zero values are not sent.
type SlotQuery struct {
	Location string
	Status   model.SlotStatus
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int64
}

func (c *BookingClient) GetSlot(ctx context.Context, id string) (*model.Slot, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/slots/id/"+url.PathEscape(id))
	return decodeData[model.Slot](resp, err, http.StatusOK)
}

func (c *BookingClient) ListSlots(ctx context.Context, query SlotQuery) ([]*model.Slot, *Metadata, error) {
	q := pageQuery(query.Location, query.Limit, query.Offset)
	if query.Status != "" {
		q.Set("status", string(query.Status))
	}
	if !query.From.IsZero() {
		q.Set("from", query.From.Format(time.RFC3339))
	}
	if !query.To.IsZero() {
		q.Set("to", query.To.Format(time.RFC3339))
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/slots?"+q.Encode())
	return decodePage[*model.Slot](resp, err)
}

func (c *BookingClient) SetSlotStatus(ctx context.Context, id string, status model.SlotStatus) (*model.Slot, error) {
	resp, err := c.httpClient.PATCH(ctx, "/api/v1/slots/id/"+url.PathEscape(id)+"/status", &model.SlotStatusUpdate{Status: status})
	return decodeData[model.Slot](resp, err, http.StatusOK)
}

func (c *BookingClient) RecomputeSlot(ctx context.Context, id string) (*model.Slot, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/slots/id/"+url.PathEscape(id)+"/recompute", nil)
	return decodeData[model.Slot](resp, err, http.StatusOK)
}

// SendEvent delivers a booking event and returns the slot as projected afterwards.
func (c *BookingClient) SendEvent(ctx context.Context, event *model.BookingEvent) (*model.Slot, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal booking event: %w", err)
	}

	var headers map[string]string
	if c.webhookSecret != "" {
		headers = map[string]string{signatureHeader: sign(body, c.webhookSecret)}
	}

	resp, err := c.httpClient.POSTRaw(ctx, bookingEventsPath, body, headers)
	return decodeData[model.Slot](resp, err, http.StatusOK)
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
