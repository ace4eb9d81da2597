package artifacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
)

// Exporter renders a result's artifacts and hands them to a Sink.
type Exporter struct {
	sink Sink
	log  zerolog.Logger
}

// NewExporter creates an exporter writing to sink.
func NewExporter(sink Sink, log zerolog.Logger) *Exporter {
	return &Exporter{
		sink: sink,
		log:  log.With().Str("component", "exporter").Logger(),
	}
}

// Export writes portfolio.json and EfficientFrontier.png in parallel and
// returns their locations in that order. A result without a plot image
// exports the portfolio document only.
func (e *Exporter) Export(ctx context.Context, result *domain.OptimizationResult) ([]string, error) {
	if result == nil {
		return nil, apperrors.ErrNoResult
	}

	doc, err := presenter.ToExportDocument(result)
	if err != nil {
		return nil, err
	}
	artifacts := []presenter.Artifact{doc}

	plot, err := presenter.ToPlotArtifact(result)
	switch {
	case err == nil:
		artifacts = append(artifacts, plot)
	case errors.Is(err, apperrors.ErrNoPlot):
		e.log.Warn().Err(err).Msg("Skipping plot export")
	default:
		return nil, err
	}

	locations := make([]string, len(artifacts))
	g, gctx := errgroup.WithContext(ctx)
	for i, artifact := range artifacts {
		g.Go(func() error {
			loc, err := e.sink.Put(gctx, artifact)
			if err != nil {
				return fmt.Errorf("export %s: %w", artifact.Filename, err)
			}
			locations[i] = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Error().Err(err).Msg("Export failed")
		return nil, err
	}

	e.log.Info().Strs("locations", locations).Msg("Portfolio exported")
	return locations, nil
}
