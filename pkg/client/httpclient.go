package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "clubschedule/pkg/errors"
)

// Caller headers read by the capability guard.
const (
	CallerIDHeader   = "X-Caller-ID"
	CallerRoleHeader = "X-Caller-Role"
)

const defaultTimeout = 10 * time.Second

type HttpClient struct {
	BaseURL    string
	HTTPClient *http.Client
	headers    map[string]string
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		headers: make(map[string]string),
	}
}

// WithCaller returns a copy that identifies every request as callerID with role.
func (c *HttpClient) WithCaller(callerID, role string) *HttpClient {
	headers := make(map[string]string, len(c.headers)+2)
	for k, v := range c.headers {
		headers[k] = v
	}
	headers[CallerIDHeader] = callerID
	if role != "" {
		headers[CallerRoleHeader] = role
	}
	return &HttpClient{BaseURL: c.BaseURL, HTTPClient: c.HTTPClient, headers: headers}
}

type Response struct {
	*http.Response
	Body []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

func (r *Response) ToString() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

// Metadata is the pagination block of a list response.
type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func (c *HttpClient) GET(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil, nil)
}

func (c *HttpClient) POST(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body, nil)
}

func (c *HttpClient) PATCH(ctx context.Context, path string, body any) (*Response, error) {
	return c.request(ctx, http.MethodPatch, path, body, nil)
}

func (c *HttpClient) DELETE(ctx context.Context, path string) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HttpClient) POSTRaw(ctx context.Context, path string, rawBody []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(rawBody), true, headers)
}

func (c *HttpClient) request(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	return c.do(ctx, method, path, reqBody, body != nil, headers)
}

func (c *HttpClient) do(ctx context.Context, method, path string, reqBody io.Reader, hasBody bool, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		Response: resp,
		Body:     respBody,
	}, nil
}

func (c *HttpClient) WaitForHealthy(ctx context.Context, maxWait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		resp, err := c.GET(ctx, "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service did not become healthy within %v", maxWait)
		case <-ticker.C:
		}
	}
}

// ResponseError converts an error response into an *apperrors.AppError so
// callers can branch on the same codes the server uses.
func ResponseError(resp *Response) error {
	var errResp apperrors.ErrorResponse
	if err := resp.DecodeJSON(&errResp); err != nil || errResp.Code == "" {
		return &apperrors.AppError{
			Code:       apperrors.CodeInternal,
			Message:    fmt.Sprintf("unexpected response: %s", resp.ToString()),
			HTTPStatus: resp.StatusCode,
		}
	}
	return &apperrors.AppError{
		Code:       errResp.Code,
		Message:    errResp.Message,
		HTTPStatus: resp.StatusCode,
		Details:    errResp.Details,
	}
}

func GetErrorMessage(resp *Response) string {
	var errResp apperrors.ErrorResponse
	if err := resp.DecodeJSON(&errResp); err != nil {
		return fmt.Sprintf("failed to unmarshal error: %v", err)
	}
	if errResp.Message != "" {
		return errResp.Message
	}
	return errResp.Code
}

func decodeData[T any](resp *Response, err error, wantStatus int) (*T, error) {
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != wantStatus {
		return nil, ResponseError(resp)
	}

	var wrapper struct {
		Data *T `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode response:\n%s\n%w", resp.ToString(), err)
	}
	if wrapper.Data == nil {
		return nil, fmt.Errorf("response has no data: %s", resp.ToString())
	}
	return wrapper.Data, nil
}

// decodeList accepts a null data field as an empty list.
func decodeList[T any](resp *Response, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ResponseError(resp)
	}

	var wrapper struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode response:\n%s\n%w", resp.ToString(), err)
	}
	return wrapper.Data, nil
}

func decodePage[T any](resp *Response, err error) ([]T, *Metadata, error) {
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, ResponseError(resp)
	}

	var wrapper struct {
		Data []T `json:"data"`
		Metadata
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated response:\n%s\n%w", resp.ToString(), err)
	}
	return wrapper.Data, &wrapper.Metadata, nil
}

func expectNoContent(resp *Response, err error) error {
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return ResponseError(resp)
	}
	return nil
}
