package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"clubschedule/pkg/model"
)

// ScheduleClient calls the schedules service: batches, overrides and rules.
type ScheduleClient struct {
	httpClient *HttpClient
}

func NewScheduleClient(httpClient *HttpClient) *ScheduleClient {
	return &ScheduleClient{httpClient: httpClient}
}

func (c *ScheduleClient) Apply(ctx context.Context, spec *model.BatchSpec) (*model.ApplyResult, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/schedules/apply", spec)
	return decodeData[model.ApplyResult](resp, err, http.StatusCreated)
}

func (c *ScheduleClient) Check(ctx context.Context, spec *model.BatchSpec) (*model.ConflictCheck, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/schedules/check", spec)
	return decodeData[model.ConflictCheck](resp, err, http.StatusOK)
}

func (c *ScheduleClient) Protection(ctx context.Context, filter *model.ProtectionFilter) (*model.ProtectionReport, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/schedules/protection", filter)
	return decodeData[model.ProtectionReport](resp, err, http.StatusOK)
}

func (c *ScheduleClient) GetBatch(ctx context.Context, id string) (*model.ScheduleBatch, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/schedules/batches/id/"+url.PathEscape(id))
	return decodeData[model.ScheduleBatch](resp, err, http.StatusOK)
}

func (c *ScheduleClient) ListBatches(ctx context.Context, location string, limit int, offset int64) ([]*model.ScheduleBatch, *Metadata, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/schedules/batches?"+pageQuery(location, limit, offset).Encode())
	return decodePage[*model.ScheduleBatch](resp, err)
}

func (c *ScheduleClient) CreateOverride(ctx context.Context, override *model.AvailabilityOverride) (*model.AvailabilityOverride, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/overrides", override)
	return decodeData[model.AvailabilityOverride](resp, err, http.StatusCreated)
}

// ListOverrides returns overrides at location; from and to are optional YYYY-MM-DD bounds.
func (c *ScheduleClient) ListOverrides(ctx context.Context, location, from, to string) ([]*model.AvailabilityOverride, error) {
	q := url.Values{}
	q.Set("location", location)
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}

	resp, err := c.httpClient.GET(ctx, "/api/v1/overrides?"+q.Encode())
	return decodeList[*model.AvailabilityOverride](resp, err)
}

func (c *ScheduleClient) DeleteOverride(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/overrides/id/"+url.PathEscape(id))
	return expectNoContent(resp, err)
}

func (c *ScheduleClient) CreateRule(ctx context.Context, rule *model.AvailabilityRule) (*model.AvailabilityRule, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/rules", rule)
	return decodeData[model.AvailabilityRule](resp, err, http.StatusCreated)
}

func (c *ScheduleClient) GetRule(ctx context.Context, id string) (*model.AvailabilityRule, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/rules/id/"+url.PathEscape(id))
	return decodeData[model.AvailabilityRule](resp, err, http.StatusOK)
}

func (c *ScheduleClient) ListRules(ctx context.Context, location string, limit int, offset int64) ([]*model.AvailabilityRule, *Metadata, error) {
	resp, err := c.httpClient.GET(ctx, "/api/v1/rules?"+pageQuery(location, limit, offset).Encode())
	return decodePage[*model.AvailabilityRule](resp, err)
}

func (c *ScheduleClient) UpdateRule(ctx context.Context, id string, update *model.AvailabilityRuleUpdate) (*model.AvailabilityRule, error) {
	resp, err := c.httpClient.PATCH(ctx, "/api/v1/rules/id/"+url.PathEscape(id), update)
	return decodeData[model.AvailabilityRule](resp, err, http.StatusOK)
}

func (c *ScheduleClient) DeleteRule(ctx context.Context, id string) error {
	resp, err := c.httpClient.DELETE(ctx, "/api/v1/rules/id/"+url.PathEscape(id))
	return expectNoContent(resp, err)
}

func (c *ScheduleClient) GenerateFromRule(ctx context.Context, id string, req *model.GenerateRequest) (*model.ApplyResult, error) {
	resp, err := c.httpClient.POST(ctx, "/api/v1/rules/id/"+url.PathEscape(id)+"/generate", req)
	return decodeData[model.ApplyResult](resp, err, http.StatusCreated)
}

func pageQuery(location string, limit int, offset int64) url.Values {
	q := url.Values{}
	if location != "" {
		q.Set("location", location)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	return q
}
