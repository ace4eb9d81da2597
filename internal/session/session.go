// Package session wires the configuration store, catalog cache, preview
// synchronizer, request coordinator and exporter of one user session, and
// exposes the operations a frontend drives.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/apperrors"
	"github.com/manuelmanso/etfoptimizer/internal/artifacts"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/modules/catalog"
	"github.com/manuelmanso/etfoptimizer/internal/modules/configuration"
	"github.com/manuelmanso/etfoptimizer/internal/modules/optimization"
	"github.com/manuelmanso/etfoptimizer/internal/modules/presenter"
	"github.com/manuelmanso/etfoptimizer/internal/modules/preview"
)

// Service is everything the session needs from the optimization service.
// *optimizer.Client implements it.
type Service interface {
	catalog.Fetcher
	preview.Counter
	optimization.Optimizer
}

// Deps are the collaborators of a Session.
type Deps struct {
	Service  Service
	Exporter *artifacts.Exporter // optional; Export fails without it
	Events   *events.Manager     // optional; a private bus is created when nil
	Preset   *configuration.Preset

	TickInterval time.Duration
	NewTicker    optimization.TickerFactory
	Log          zerolog.Logger
}

// Session is one user's optimizer page.
type Session struct {
	id       string
	events   *events.Manager
	catalog  *catalog.Cache
	preview  *preview.Synchronizer
	store    *configuration.Store
	requests *optimization.Coordinator
	exporter *artifacts.Exporter
	preset   *configuration.Preset
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// New builds a session. Nothing talks to the service until Init.
func New(deps Deps) *Session {
	id := uuid.New().String()
	log := deps.Log.With().Str("session", id).Logger()

	eventManager := deps.Events
	if eventManager == nil {
		eventManager = events.NewManager(events.NewBus(), log)
	}

	cache := catalog.NewCache(deps.Service, eventManager, log)
	synchronizer := preview.NewSynchronizer(deps.Service, eventManager, log)
	store := configuration.NewStore(cache, synchronizer, eventManager, log)
	coordinator := optimization.NewCoordinator(deps.Service, eventManager, log, optimization.Options{
		TickInterval: deps.TickInterval,
		NewTicker:    deps.NewTicker,
	})

	return &Session{
		id:       id,
		events:   eventManager,
		catalog:  cache,
		preview:  synchronizer,
		store:    store,
		requests: coordinator,
		exporter: deps.Exporter,
		preset:   deps.Preset,
		log:      log.With().Str("component", "session").Logger(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Events returns the manager every component of the session publishes through.
func (s *Session) Events() *events.Manager {
	return s.events
}

// Init starts the catalog fetch and the initial preview query, applying the
// preset first when one was given. Both run in the background; ctx bounds
// every later service call of the session.
func (s *Session) Init(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.preview.Init(ctx)
	s.requests.Init(ctx)

	go func() {
		// Failures are reported through the diagnostic channel by the cache.
		_, _ = s.catalog.Get(ctx)
	}()

	if s.preset != nil {
		s.store.ApplyPreset(s.preset)
	} else {
		s.store.RequestPreview()
	}
	s.log.Info().Bool("preset", s.preset != nil).Msg("Session started")
}

// Catalog returns the catalog, fetching it if needed.
func (s *Session) Catalog(ctx context.Context) (*domain.CatalogParameters, error) {
	return s.catalog.Get(ctx)
}

// SetParameter edits one optimizer parameter from raw input.
func (s *Session) SetParameter(name, raw string) error {
	return s.store.SetParameter(name, raw)
}

// SetFilter edits one ETF filter from raw input and refreshes the preview count.
func (s *Session) SetFilter(name, raw string) error {
	return s.store.SetFilter(name, raw)
}

// LoadIsinList replaces the ISIN restriction from an uploaded JSON document.
func (s *Session) LoadIsinList(raw []byte) error {
	return s.store.LoadIsinList(raw)
}

// IsinList returns the current ISIN restriction.
func (s *Session) IsinList() []string {
	return s.store.IsinList()
}

// ApplyPreset replaces the configuration with preset.
func (s *Session) ApplyPreset(preset *configuration.Preset) {
	s.store.ApplyPreset(preset)
}

// Reset restores the default configuration.
func (s *Session) Reset() {
	s.store.ResetToDefaults()
}

// DisplayValue returns the text an input for the named field shows.
func (s *Session) DisplayValue(name string) string {
	return s.store.DisplayValue(name)
}

// Submit sends the current configuration for optimization and returns the
// submission's sequence number.
func (s *Session) Submit() (uint64, error) {
	params, filters := s.store.Snapshot()
	seq := s.requests.Submit(params, filters)
	if seq == 0 {
		return 0, apperrors.ErrSessionClosed
	}
	return seq, nil
}

// Dismiss clears a held result or error. It reports whether anything was cleared.
func (s *Session) Dismiss() bool {
	return s.requests.Dismiss()
}

// Result returns the result of the last successful submission.
func (s *Session) Result() (*domain.OptimizationResult, error) {
	succeeded, ok := s.requests.State().(domain.Succeeded)
	if !ok || succeeded.Result == nil {
		return nil, apperrors.ErrNoResult
	}
	return succeeded.Result, nil
}

// ExportDocument renders portfolio.json for the current result.
func (s *Session) ExportDocument() (presenter.Artifact, error) {
	result, err := s.Result()
	if err != nil {
		return presenter.Artifact{}, err
	}
	return presenter.ToExportDocument(result)
}

// PlotArtifact decodes EfficientFrontier.png of the current result.
func (s *Session) PlotArtifact() (presenter.Artifact, error) {
	result, err := s.Result()
	if err != nil {
		return presenter.Artifact{}, err
	}
	return presenter.ToPlotArtifact(result)
}

// Export writes the artifacts of the current result through the exporter.
func (s *Session) Export(ctx context.Context) ([]string, error) {
	if s.exporter == nil {
		return nil, apperrors.ErrExportUnavailable
	}
	result, err := s.Result()
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, result)
}

// Teardown stops the session. Outstanding responses are ignored afterwards.
// It is safe to call more than once.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	s.preview.Teardown()
	s.requests.Teardown()
	if cancel != nil {
		cancel()
	}
	s.log.Info().Msg("Session closed")
}
