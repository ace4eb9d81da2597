package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/manuelmanso/etfoptimizer/internal/artifacts"
	"github.com/manuelmanso/etfoptimizer/internal/clients/optimizer"
	"github.com/manuelmanso/etfoptimizer/internal/config"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/session"
)

// Wire initializes all dependencies and returns a configured container.
// Order of operations:
// 1. Service client (with the optional preview throttle)
// 2. Artifact exporter (local directory or S3)
// 3. Preset, if configured
// 4. Session
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{
		Client:       InitializeClient(cfg, log),
		EventManager: events.NewManager(events.NewBus(), log),
	}

	exporter, err := InitializeExporter(ctx, cfg.Export, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exporter: %w", err)
	}
	container.Exporter = exporter

	if cfg.PresetPath != "" {
		preset, err := configuration.LoadPresetFile(cfg.PresetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset: %w", err)
		}
		container.Preset = preset
		log.Info().Str("preset", preset.Name).Str("path", cfg.PresetPath).Msg("Preset loaded")
	}

	container.Session = session.New(session.Deps{
		Service:      container.Client,
		Exporter:     container.Exporter,
		Events:       container.EventManager,
		Preset:       container.Preset,
		TickInterval: cfg.TickInterval,
		Log:          log,
	})

	log.Info().
		Str("service_url", cfg.ServiceURL).
		Bool("s3_export", cfg.Export.UseS3()).
		Msg("Dependencies wired")
	return container, nil
}

// InitializeClient creates the optimization service client.
func InitializeClient(cfg *config.Config, log zerolog.Logger) *optimizer.Client {
	var limiter *rate.Limiter
	if cfg.Preview.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Preview.RateLimit), cfg.Preview.Burst)
	}
	return optimizer.NewClient(cfg.ServiceURL, cfg.RequestTimeout, limiter, log)
}

// InitializeExporter creates the artifact exporter for cfg.
func InitializeExporter(ctx context.Context, cfg config.ExportConfig, log zerolog.Logger) (*artifacts.Exporter, error) {
	if !cfg.UseS3() {
		return artifacts.NewExporter(artifacts.NewFileSink(cfg.Dir, log), log), nil
	}

	sink, err := artifacts.NewS3Sink(ctx, artifacts.S3Config{
		Bucket:          cfg.S3Bucket,
		Prefix:          cfg.S3Prefix,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}, log)
	if err != nil {
		return nil, err
	}
	return artifacts.NewExporter(sink, log), nil
}
