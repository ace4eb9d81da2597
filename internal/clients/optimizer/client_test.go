package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/", 5*time.Second, nil, zerolog.Nop())
}

func TestFetchCatalog_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/parameters", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"optimizers":           []string{"MaxSharpe", "EfficientRisk", "EfficientReturn"},
			"domicileCountries":    []string{"Ireland", "Luxembourg"},
			"replicationMethods":   []string{"Full replication"},
			"distributionPolicies": []string{"Accumulating", "Distributing"},
			"fundCurrencies":       []string{"EUR", "USD"},
		})
	})

	catalog, err := client.FetchCatalog(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"MaxSharpe", "EfficientRisk", "EfficientReturn"}, catalog.Optimizers)
	assert.Equal(t, []string{"Ireland", "Luxembourg"}, catalog.DomicileCountries)
	assert.Equal(t, []string{"EUR", "USD"}, catalog.FundCurrencies)
}

func TestCountMatching_SendsFilters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/etfsMatchingFilters", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"minimumDaysWithData": float64(1000)}, body["etfFilters"])

		w.Write([]byte(`{"etfsMatchingFilters": 812, "totalETFs": 1500}`))
	})

	count, err := client.CountMatching(context.Background(), domain.DefaultETFFilters())
	require.NoError(t, err)
	assert.Equal(t, domain.PreviewCount{Matching: 812, Total: 1500}, count)
}

func TestOptimize_OmitsAbsentFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/optimize", r.URL.Path)

		var body struct {
			OptimizerParameters map[string]any `json:"optimizerParameters"`
			ETFFilters          map[string]any `json:"etfFilters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body.OptimizerParameters, "assetCutoff")
		assert.Equal(t, "MaxSharpe", body.OptimizerParameters["optimizer"])
		assert.Equal(t, float64(1000), body.ETFFilters["minimumDaysWithData"])

		w.Write([]byte(`{
			"sharpeRatio": 1.25,
			"expectedReturn": 0.08,
			"annualVolatility": 0.12,
			"ETFsMatchingFilters": 812,
			"ETFsUsedForOptimization": 400,
			"portfolioSize": 1,
			"initialValue": 10000,
			"leftoverFunds": 12.5,
			"totalWeight": 1,
			"totalValue": 9987.5,
			"portfolio": [{"name": "World", "isin": "IE00B4L5Y983", "expectedReturn": 0.08,
				"volatility": 0.12, "weight": 1, "shares": 125, "price": 79.9, "value": 9987.5}],
			"efficientFrontierImage": "aGVsbG8=",
			"solverIterations": 42
		}`))
	})

	params := domain.DefaultOptimizerParameters()
	params.AssetCutoff = nil

	result, err := client.Optimize(context.Background(), params, domain.DefaultETFFilters())
	require.NoError(t, err)

	assert.InDelta(t, 1.25, result.SharpeRatio, 1e-9)
	assert.Equal(t, 812, result.ETFsMatchingFilters)
	assert.Equal(t, 400, result.ETFsUsedForOptimization)
	require.Len(t, result.Holdings, 1)
	assert.Equal(t, "IE00B4L5Y983", result.Holdings[0].ISIN)
	require.NotNil(t, result.Holdings[0].Price)
	assert.InDelta(t, 79.9, *result.Holdings[0].Price, 1e-9)
	assert.Equal(t, "aGVsbG8=", result.PlotImage)
	assert.Contains(t, string(result.Raw), "solverIterations")
}

func TestDo_ErrorBodyMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad filter"}`))
	})

	_, err := client.Optimize(context.Background(), domain.OptimizerParameters{}, domain.ETFFilters{})
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Bad Request", apiErr.StatusText)
	assert.Equal(t, "bad filter", apiErr.Message)
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream down</html>"))
	})

	_, err := client.CountMatching(context.Background(), domain.ETFFilters{})
	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Bad Gateway", apiErr.StatusText)
	assert.Empty(t, apiErr.Message)
}

func TestDo_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidResponse))

	_, isAPI := IsAPIError(err)
	assert.False(t, isAPI)
}

func TestDo_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, time.Second, nil, zerolog.Nop())
	_, err := client.FetchCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnreachable))
}

func TestCountMatching_LimiterCancelled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"etfsMatchingFilters": 1, "totalETFs": 2}`))
	}))
	defer server.Close()

	// One token, refilled every hour: the second call must wait and gets cancelled.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	client := NewClient(server.URL, time.Second, limiter, zerolog.Nop())

	_, err := client.CountMatching(context.Background(), domain.ETFFilters{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.CountMatching(ctx, domain.ETFFilters{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnreachable))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIError_Error(t *testing.T) {
	assert.Contains(t, (&APIError{StatusCode: 400, Message: "bad filter"}).Error(), "bad filter")
	assert.Contains(t, (&APIError{StatusCode: 503, StatusText: "Service Unavailable"}).Error(), "Service Unavailable")
}
