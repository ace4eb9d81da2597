// Package optimizer provides a client for the remote ETF portfolio-optimization service.
// The service exposes three JSON endpoints below a configurable base address:
// GET parameters (catalog), POST etfsMatchingFilters (preview count) and POST optimize.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

const (
	catalogPath  = "parameters"
	previewPath  = "etfsMatchingFilters"
	optimizePath = "optimize"

	// Error bodies larger than this are not worth decoding.
	maxErrorBody = 64 << 10
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	StatusText string // Reason phrase, e.g. "Bad Request"
	Message    string // The body's "error" field, empty if absent or not JSON
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("optimization service error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("optimization service error: status %d %s", e.StatusCode, e.StatusText)
}

// Client talks to the optimization service.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	previewLimiter *rate.Limiter // Optional; throttles preview queries only
	log            zerolog.Logger
}

// NewClient creates a new optimization service client.
// timeout bounds every call; zero means no client-side timeout.
// previewLimiter is optional - if nil, preview queries are not throttled.
func NewClient(baseURL string, timeout time.Duration, previewLimiter *rate.Limiter, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		previewLimiter: previewLimiter,
		log:            log.With().Str("component", "optimizer_client").Logger(),
	}
}

// FetchCatalog retrieves the selectable option lists.
func (c *Client) FetchCatalog(ctx context.Context) (*domain.CatalogParameters, error) {
	var catalog domain.CatalogParameters
	if _, err := c.do(ctx, http.MethodGet, catalogPath, nil, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// CountMatching returns how many ETFs match filters.
func (c *Client) CountMatching(ctx context.Context, filters domain.ETFFilters) (domain.PreviewCount, error) {
	if c.previewLimiter != nil {
		if err := c.previewLimiter.Wait(ctx); err != nil {
			return domain.PreviewCount{}, fmt.Errorf("%w: preview throttle: %v", apperrors.ErrServiceUnreachable, err)
		}
	}

	var count domain.PreviewCount
	if _, err := c.do(ctx, http.MethodPost, previewPath, domain.PreviewRequest{ETFFilters: filters}, &count); err != nil {
		return domain.PreviewCount{}, err
	}
	return count, nil
}

// Optimize runs one optimization. The call may take minutes.
func (c *Client) Optimize(ctx context.Context, params domain.OptimizerParameters, filters domain.ETFFilters) (*domain.OptimizationResult, error) {
	var result domain.OptimizationResult
	body, err := c.do(ctx, http.MethodPost, optimizePath, domain.OptimizeRequest{
		OptimizerParameters: params,
		ETFFilters:          filters,
	}, &result)
	if err != nil {
		return nil, err
	}
	result.Raw = body
	return &result, nil
}

// do performs a JSON request and decodes a 2xx body into target.
// It returns the raw response body on success.
func (c *Client) do(ctx context.Context, method, path string, payload any, target any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With().Str("path", path).Str("request_id", requestID).Logger()
	log.Debug().Msg("Calling optimization service")
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrServiceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp)
		log.Debug().
			Int("status", resp.StatusCode).
			Str("error", apiErr.Message).
			Dur("took", time.Since(start)).
			Msg("Optimization service returned an error")
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", apperrors.ErrServiceUnreachable, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidResponse, err)
	}

	log.Debug().Dur("took", time.Since(start)).Msg("Optimization service call completed")
	return body, nil
}

// newAPIError builds an APIError, taking the message from a JSON {"error": "..."} body when present.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		return apiErr
	}

	// The field is normally a string; anything else is rendered as JSON text.
	var msg string
	if err := json.Unmarshal(body.Error, &msg); err != nil {
		if string(body.Error) != "null" {
			msg = string(body.Error)
		}
	}
	apiErr.Message = msg
	return apiErr
}

// statusText returns the reason phrase of a response.
// resp.Status is "400 Bad Request"; servers may send non-standard phrases.
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, prefix)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// IsAPIError reports whether err carries a service error response.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
