package artifacts

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memorySink) Put(_ context.Context, artifact presenter.Artifact) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[artifact.Filename] = artifact.Data
	return "mem://" + artifact.Filename, nil
}

func resultWithPlot() *domain.OptimizationResult {
	return &domain.OptimizationResult{
		SharpeRatio: 1.2,
		PlotImage:   base64.StdEncoding.EncodeToString([]byte("png-bytes")),
	}
}

func TestFileSink_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	sink := NewFileSink(dir, zerolog.Nop())

	loc, err := sink.Put(context.Background(), presenter.Artifact{Filename: "portfolio.json", Data: []byte(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "portfolio.json"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	// Overwrites and leaves no temp files behind.
	_, err = sink.Put(context.Background(), presenter.Artifact{Filename: "portfolio.json", Data: []byte(`[]`)})
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSink_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileSink(t.TempDir(), zerolog.Nop()).Put(ctx, presenter.Artifact{Filename: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExporter_WritesBothArtifacts(t *testing.T) {
	sink := &memorySink{}
	locations, err := NewExporter(sink, zerolog.Nop()).Export(context.Background(), resultWithPlot())
	require.NoError(t, err)

	assert.Equal(t, []string{"mem://" + presenter.ExportFilename, "mem://" + presenter.PlotFilename}, locations)
	assert.Equal(t, []byte("png-bytes"), sink.files[presenter.PlotFilename])
	assert.NotContains(t, string(sink.files[presenter.ExportFilename]), domain.PlotImageField)
}

func TestExporter_WithoutPlot(t *testing.T) {
	sink := &memorySink{}
	locations, err := NewExporter(sink, zerolog.Nop()).Export(context.Background(), &domain.OptimizationResult{})
	require.NoError(t, err)
	assert.Equal(t, []string{"mem://" + presenter.ExportFilename}, locations)
}

func TestExporter_Errors(t *testing.T) {
	_, err := NewExporter(&memorySink{}, zerolog.Nop()).Export(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoResult)

	_, err = NewExporter(&memorySink{err: errors.New("disk full")}, zerolog.Nop()).Export(context.Background(), resultWithPlot())
	assert.ErrorContains(t, err, "disk full")
}

func TestS3Sink_Put(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	var (
		mu    sync.Mutex
		paths []string
		types []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		types = append(types, r.Header.Get("Content-Type"))
		mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:          "portfolios",
		Prefix:          "runs/",
		Region:          "auto",
		Endpoint:        server.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	}, zerolog.Nop())
	require.NoError(t, err)

	locations, err := NewExporter(sink, zerolog.Nop()).Export(context.Background(), resultWithPlot())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"s3://portfolios/runs/portfolio.json",
		"s3://portfolios/runs/EfficientFrontier.png",
	}, locations)

	mu.Lock()
	defer mu.Unlock()
	sort.Strings(paths)
	assert.Equal(t, []string{
		"PUT /portfolios/runs/EfficientFrontier.png",
		"PUT /portfolios/runs/portfolio.json",
	}, paths)
	assert.ElementsMatch(t, []string{"application/json", "image/png"}, types)
}

func TestNewS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{}, zerolog.Nop())
	assert.Error(t, err)
}
