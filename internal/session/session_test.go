package session

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/artifacts"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
	testingpkg "github.com/manuelmanso/etfoptimizer/internal/testing"
)

func newTestSession(t *testing.T, deps Deps) (*Session, *testingpkg.Service) {
	t.Helper()
	service := testingpkg.NewService(t)
	deps.Service = service.Client()
	deps.Log = zerolog.Nop()
	s := New(deps)
	t.Cleanup(s.Teardown)
	return s, service
}

func waitFor(t *testing.T, s *Session, cond func(View) bool) View {
	t.Helper()
	var v View
	require.Eventually(t, func() bool {
		v = s.View()
		return cond(v)
	}, 2*time.Second, 5*time.Millisecond)
	return v
}

func previewIs(matching int) func(View) bool {
	return func(v View) bool { return v.Preview != nil && v.Preview.Matching == matching }
}

func phaseIs(phase domain.RequestPhase) func(View) bool {
	return func(v View) bool { return v.State.Phase == phase }
}

func TestSession_InitLoadsCatalogAndPreview(t *testing.T) {
	s, service := newTestSession(t, Deps{})

	v := s.View()
	assert.Nil(t, v.Preview)
	assert.Equal(t, domain.PhaseIdle, v.State.Phase)
	assert.NotEmpty(t, v.SessionID)

	s.Init(context.Background())
	v = waitFor(t, s, func(v View) bool { return v.Catalog != nil && v.Preview != nil })

	assert.Equal(t, domain.PreviewCount{Matching: testingpkg.MatchingDefault, Total: testingpkg.TotalETFs}, *v.Preview)
	assert.Equal(t, testingpkg.NewCatalogFixture(), v.Catalog)
	require.Len(t, service.PreviewRequests(), 1)
	assert.Equal(t, 1000, *service.PreviewRequests()[0].MinimumDaysWithData)
}

func TestSession_FilterEditRefreshesPreview(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	s.Init(context.Background())
	waitFor(t, s, func(v View) bool { return v.Catalog != nil && v.Preview != nil })

	require.NoError(t, s.SetFilter("fundCurrency", "EUR"))
	v := waitFor(t, s, previewIs(testingpkg.MatchingCurrency))
	assert.Equal(t, "EUR", *v.Filters.FundCurrency)

	requests := service.PreviewRequests()
	require.Len(t, requests, 2)
	assert.Equal(t, "EUR", *requests[1].FundCurrency)

	// Parameters never trigger a preview.
	require.NoError(t, s.SetParameter("riskFreeRate", "0.03"))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, service.PreviewRequests(), 2)
	assert.Equal(t, "0.03", s.DisplayValue("riskFreeRate"))

	assert.ErrorIs(t, s.SetFilter("nope", "1"), apperrors.ErrUnknownField)
}

func TestSession_SubmitSucceeds(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	s.Init(context.Background())

	require.NoError(t, s.LoadIsinList([]byte(`["IE00B4L5Y983", 7, "LU0290355717"]`)))
	assert.Equal(t, []string{"IE00B4L5Y983", "LU0290355717"}, s.IsinList())
	require.NoError(t, s.SetParameter("assetCutoff", "abc"))

	seq, err := s.Submit()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	v := waitFor(t, s, phaseIs(domain.PhaseSucceeded))
	assert.Equal(t, seq, v.State.Seq)
	require.NotNil(t, v.Summary)
	assert.Equal(t, "1.43", v.Summary.SharpeRatio)
	assert.Equal(t, "41.27€", v.Summary.LeftoverFunds)
	require.Len(t, v.Rows, 3)
	assert.Equal(t, "70.00%", v.Rows[0].Weight)
	assert.Equal(t, presenter.AggregateLabel, v.Rows[2].Name)
	require.NotNil(t, v.Aggregates)
	assert.InDelta(t, 1.0, v.Aggregates.WeightSum, 1e-9)

	requests := service.OptimizeRequests()
	require.Len(t, requests, 1)
	assert.Nil(t, requests[0].OptimizerParameters.AssetCutoff)
	assert.Equal(t, []string{"IE00B4L5Y983", "LU0290355717"}, requests[0].ETFFilters.IsinList)

	doc, err := s.ExportDocument()
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "solverStatus")
	assert.NotContains(t, string(doc.Data), domain.PlotImageField)

	plot, err := s.PlotArtifact()
	require.NoError(t, err)
	assert.Equal(t, testingpkg.PlotBytes, plot.Data)
}

func TestSession_WeightPrecisionFollowsAssetRounding(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	s.Init(context.Background())

	_, err := s.Submit()
	require.NoError(t, err)
	waitFor(t, s, phaseIs(domain.PhaseSucceeded))

	require.NoError(t, s.SetParameter("assetRounding", "2"))
	assert.Equal(t, "70%", s.View().Rows[0].Weight)
}

func TestSession_SubmitFailsThenDismiss(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	service.SetOptimizeResponse(http.StatusBadRequest, []byte(`{"error": "Not enough ETFs match the filters"}`))
	s.Init(context.Background())

	_, err := s.Submit()
	require.NoError(t, err)

	v := waitFor(t, s, phaseIs(domain.PhaseFailed))
	assert.Equal(t, "Not enough ETFs match the filters", v.State.Message)
	assert.Nil(t, v.Rows)

	_, err = s.ExportDocument()
	assert.ErrorIs(t, err, apperrors.ErrNoResult)

	assert.True(t, s.Dismiss())
	assert.Equal(t, domain.PhaseIdle, s.View().State.Phase)
	assert.False(t, s.Dismiss())
}

func TestSession_PendingTracksElapsedTime(t *testing.T) {
	s, service := newTestSession(t, Deps{TickInterval: 5 * time.Millisecond})
	service.Hold()
	s.Init(context.Background())

	_, err := s.Submit()
	require.NoError(t, err)

	waitFor(t, s, func(v View) bool { return v.State.Phase == domain.PhasePending && v.State.ElapsedSeconds >= 2 })

	service.Release()
	waitFor(t, s, phaseIs(domain.PhaseSucceeded))
}

func TestSession_Export(t *testing.T) {
	dir := t.TempDir()
	s, _ := newTestSession(t, Deps{
		Exporter: artifacts.NewExporter(artifacts.NewFileSink(dir, zerolog.Nop()), zerolog.Nop()),
	})
	s.Init(context.Background())

	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoResult)

	_, err = s.Submit()
	require.NoError(t, err)
	waitFor(t, s, phaseIs(domain.PhaseSucceeded))

	locations, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, presenter.ExportFilename),
		filepath.Join(dir, presenter.PlotFilename),
	}, locations)

	png, err := os.ReadFile(filepath.Join(dir, presenter.PlotFilename))
	require.NoError(t, err)
	assert.Equal(t, testingpkg.PlotBytes, png)
}

func TestSession_ExportWithoutExporter(t *testing.T) {
	s, _ := newTestSession(t, Deps{})
	_, err := s.Export(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrExportUnavailable)
}

func TestSession_PresetAppliedOnInit(t *testing.T) {
	preset, err := configuration.ParsePreset([]byte(`
name: euro
parameters:
  optimizer: EfficientRisk
filters:
  fundCurrency: EUR
`))
	require.NoError(t, err)

	s, service := newTestSession(t, Deps{Preset: preset})
	s.Init(context.Background())

	v := waitFor(t, s, previewIs(testingpkg.MatchingCurrency))
	assert.Equal(t, domain.OptimizerEfficientRisk, *v.Parameters.Optimizer)
	assert.Len(t, service.PreviewRequests(), 1)
}

func TestSession_ResetTriggersOnePreview(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	s.Init(context.Background())
	waitFor(t, s, previewIs(testingpkg.MatchingDefault))

	require.NoError(t, s.SetFilter("fundCurrency", "USD"))
	waitFor(t, s, previewIs(testingpkg.MatchingCurrency))

	s.Reset()
	v := waitFor(t, s, previewIs(testingpkg.MatchingDefault))
	assert.Nil(t, v.Filters.FundCurrency)
	assert.Len(t, service.PreviewRequests(), 3)
}

func TestSession_CatalogFailureIsNotFatal(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	service.FailCatalog(http.StatusInternalServerError)
	s.Init(context.Background())

	waitFor(t, s, previewIs(testingpkg.MatchingDefault))
	assert.Nil(t, s.View().Catalog)

	_, err := s.Catalog(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCatalogUnavailable)

	service.FailCatalog(http.StatusOK)
	catalog, err := s.Catalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testingpkg.NewCatalogFixture(), catalog)
}

func TestSession_Teardown(t *testing.T) {
	s, service := newTestSession(t, Deps{})
	service.Hold()
	s.Init(context.Background())

	_, err := s.Submit()
	require.NoError(t, err)

	s.Teardown()
	s.Teardown()

	_, err = s.Submit()
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)

	service.Release()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, domain.PhasePending, s.View().State.Phase)
}
