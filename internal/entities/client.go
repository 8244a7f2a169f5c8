// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package entities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/morganforge/finchat-tui/internal/model"
	"github.com/morganforge/finchat-tui/internal/store"
)

// =============================================================================
// CONSTANTS AND ERRORS
// =============================================================================

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 4 * 1024 * 1024
	maxRetries       = 3
	baseBackoff      = 500 * time.Millisecond
)

var (
	// ErrServerError indicates a 5xx that survived retries.
	ErrServerError = errors.New("server error")

	// ErrBadStatus indicates a non-retryable unexpected status code.
	ErrBadStatus = errors.New("unexpected status")

	// ErrBadPayload indicates a response body that could not be decoded.
	ErrBadPayload = errors.New("malformed response payload")
)

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the backend's REST endpoints under one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given API base URL, e.g.
// "https://backend.example.com/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// =============================================================================
// BUSINESS ENTITIES
// =============================================================================

// BusinessEntities is the catalog of selectable assets and funds.
type BusinessEntities struct {
	Assets []model.Entity `json:"assets"`
	Funds  []model.Entity `json:"funds"`
}

// FetchBusinessEntities retrieves the entity catalog.
func (c *Client) FetchBusinessEntities(ctx context.Context) (*BusinessEntities, error) {
	body, err := c.doWithRetry(ctx, http.MethodGet, "/business-entities", nil)
	if err != nil {
		return nil, err
	}

	var out BusinessEntities
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return &out, nil
}

// Load fetches the catalog and publishes the outcome to the store. Failures
// become a display string; they never abort the client.
func Load(ctx context.Context, c *Client, st *store.Store) {
	st.SetEntitiesLoading(true)
	catalog, err := c.FetchBusinessEntities(ctx)
	if err != nil {
		log.Printf("entities: fetch failed: %v", err)
		st.SetEntitiesError(fmt.Sprintf("could not load entities: %v", err))
		return
	}
	st.SetBusinessEntities(map[string][]model.Entity{
		"assets": catalog.Assets,
		"funds":  catalog.Funds,
	})
}

// =============================================================================
// CHART TRANSFORMATION
// =============================================================================

// ChartSuggestion is one backend-proposed rendering of a query result.
type ChartSuggestion struct {
	ChartType string   `json:"chart_type"`
	XAxis     string   `json:"x_axis"`
	YAxes     []string `json:"y_axes"`
}

// ParseSuggestions decodes the suggestion list attached to a reply. Empty
// or malformed payloads yield nil; suggestions are advisory, never fatal.
func ParseSuggestions(raw json.RawMessage) []ChartSuggestion {
	if len(raw) == 0 {
		return nil
	}
	var out []ChartSuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// ChartTransformRequest asks the backend to shape a raw result for one of
// its suggested chart types.
type ChartTransformRequest struct {
	ChartType string          `json:"chart_type"`
	XAxis     string          `json:"x_axis"`
	YAxes     []string        `json:"y_axes"`
	RawResult json.RawMessage `json:"raw_result"`
}

// TransformChart returns the render-ready chart payload. The backend wraps
// the payload JSON inside a JSON string; the nested layer is unwrapped and
// validated here.
func (c *Client) TransformChart(ctx context.Context, req ChartTransformRequest) (json.RawMessage, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal chart request: %w", err)
	}

	body, err := c.doWithRetry(ctx, http.MethodPost, "/charts/transform", reqBody)
	if err != nil {
		return nil, err
	}

	var out struct {
		ChartPayload string `json:"chart_payload"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if out.ChartPayload == "" || !json.Valid([]byte(out.ChartPayload)) {
		return nil, fmt.Errorf("%w: chart_payload is not valid JSON", ErrBadPayload)
	}
	return json.RawMessage(out.ChartPayload), nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

// doWithRetry performs the request, retrying 5xx and transport failures
// with linear backoff. 4xx responses fail immediately.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(baseBackoff * time.Duration(attempt)):
			}
		}

		resp, err := c.do(ctx, method, path, body)
		if err != nil {
			lastErr = err
			continue
		}

		data, status, err := readResponse(resp)
		switch {
		case err != nil:
			lastErr = err
		case status >= 500:
			lastErr = fmt.Errorf("%w: %s %s returned %d", ErrServerError, method, path, status)
		case status >= 300:
			return nil, fmt.Errorf("%w: %s %s returned %d", ErrBadStatus, method, path, status)
		default:
			return data, nil
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// readResponse drains and closes the body, bounded to keep a misbehaving
// backend from exhausting memory.
func readResponse(resp *http.Response) ([]byte, int, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}
