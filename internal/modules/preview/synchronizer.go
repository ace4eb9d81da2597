// Package preview keeps the "ETFs matching filters" count in step with the
// filters being edited.
package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/metrics"
)

// Counter runs one preview-count query.
type Counter interface {
	CountMatching(ctx context.Context, filters domain.ETFFilters) (domain.PreviewCount, error)
}

// QueryError is a failed preview query. It is reported on the diagnostic
// channel only.
type QueryError struct {
	Seq uint64
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("preview query %d failed: %v", e.Seq, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Synchronizer issues one query per filter change and shows only the
// response of the most recently issued query.
type Synchronizer struct {
	counter Counter
	events  *events.Manager
	log     zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64 // highest issued
	count  *domain.PreviewCount
	closed bool
}

// NewSynchronizer creates a synchronizer with no count yet. eventManager may be nil.
func NewSynchronizer(counter Counter, eventManager *events.Manager, log zerolog.Logger) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Synchronizer{
		counter: counter,
		events:  eventManager,
		log:     log.With().Str("component", "preview_synchronizer").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init derives the context of later queries from ctx.
func (s *Synchronizer) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(ctx)
}

// RequestCountUpdate issues a query for filters. It returns immediately.
func (s *Synchronizer) RequestCountUpdate(filters domain.ETFFilters) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	ctx := s.ctx
	s.mu.Unlock()

	metrics.PreviewQueries.WithLabelValues(metrics.OutcomeIssued).Inc()
	s.log.Debug().Uint64("seq", seq).Msg("Preview query issued")

	go s.run(ctx, seq, filters.Clone())
}

func (s *Synchronizer) run(ctx context.Context, seq uint64, filters domain.ETFFilters) {
	count, err := s.counter.CountMatching(ctx, filters)
	if err != nil {
		s.fail(seq, err)
		return
	}
	s.apply(seq, count)
}

func (s *Synchronizer) apply(seq uint64, count domain.PreviewCount) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		latest := s.seq
		s.mu.Unlock()
		metrics.PreviewQueries.WithLabelValues(metrics.OutcomeStale).Inc()
		s.log.Debug().Uint64("seq", seq).Uint64("latest", latest).Msg("Stale preview response discarded")
		return
	}
	s.count = &count
	s.mu.Unlock()

	metrics.PreviewQueries.WithLabelValues(metrics.OutcomeApplied).Inc()
	if s.events != nil {
		s.events.EmitTyped(events.PreviewCountUpdated, "preview", &events.PreviewCountUpdatedData{
			Matching: count.Matching,
			Total:    count.Total,
		})
	}
}

func (s *Synchronizer) fail(seq uint64, err error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	metrics.PreviewQueries.WithLabelValues(metrics.OutcomeFailed).Inc()
	queryErr := &QueryError{Seq: seq, Err: err}
	s.log.Warn().Err(queryErr).Msg("There was an error getting the ETFs that match the filters")
	if s.events != nil {
		s.events.EmitDiagnostic("preview", "", queryErr)
	}
}

// Count returns the most recently applied count. ok is false until the first
// response has been applied.
func (s *Synchronizer) Count() (count domain.PreviewCount, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == nil {
		return domain.PreviewCount{}, false
	}
	return *s.count, true
}

// Teardown cancels outstanding queries and ignores every later response.
// It is safe to call more than once.
func (s *Synchronizer) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}
