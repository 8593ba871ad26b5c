package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/darmiel/customtoken/internal/correlation"
	"github.com/darmiel/customtoken/internal/apierror"
)

// APIError is a normalized error returned by the server.
type APIError struct {
	Status        int
	Name          string
	Category      string
	Message       string
	Data          map[string]any
	CorrelationID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s: '%s' (correlation: %s)", e.Status, e.Category, e.Message, e.CorrelationID)
}

// Code returns the provider error code (e.g. "auth/user-not-found"), if any.
func (e *APIError) Code() string {
	errs, _ := e.Data["errors"].(map[string]any)
	code, _ := errs["code"].(string)
	return code
}

// get and post return the response headers, also on API errors.
func (c *Client) get(ctx context.Context, url string, result any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, url string, header http.Header, payload, result any) (http.Header, error) {
	var body io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, values := range header {
		// copied verbatim, the server expects the lower-case credential names
		req.Header[key] = values
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

func parseErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("request failed with status %d and unreadable body: %w", resp.StatusCode, err)
	}
	var normalized apierror.Error
	if json.Unmarshal(body, &normalized) == nil && normalized.Category != "" {
		return &APIError{
			Status:        normalized.Status,
			Name:          normalized.Name,
			Category:      normalized.Category,
			Message:       normalized.Message,
			Data:          normalized.Data,
			CorrelationID: correlationFromHeader(resp.Header),
		}
	}
	return fmt.Errorf("api error: *unparsed '%s' (status %d)", string(body), resp.StatusCode)
}

func (c *Client) do(req *http.Request, result any) (http.Header, error) {
	if id := correlation.FromContext(req.Context()); id != "" {
		req.Header.Set(correlation.Header, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode >= 400 {
		return resp.Header, parseErrorResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.Header, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.Header, nil
}

func correlationFromHeader(h http.Header) string {
	return h.Get(correlation.Header)
}
