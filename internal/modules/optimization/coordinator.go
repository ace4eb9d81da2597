// Package optimization drives the lifecycle of the optimize request: one
// authoritative submission at a time, an elapsed-time counter while it is
// pending, and rejection of responses that belong to superseded submissions.
package optimization

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/domain"
	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/metrics"
)

// Optimizer runs one optimization on the service.
type Optimizer interface {
	Optimize(ctx context.Context, params domain.OptimizerParameters, filters domain.ETFFilters) (*domain.OptimizationResult, error)
}

// Options tunes a Coordinator. Zero values select the defaults.
type Options struct {
	TickInterval time.Duration    // one elapsed second per tick; default 1s
	NewTicker    TickerFactory    // default NewTimeTicker
	Now          func() time.Time // default time.Now
}

// Coordinator owns the RequestState of a session. Its events are published
// in the order of the transitions they describe. Event handlers may read the
// coordinator but must not call Submit or Dismiss.
type Coordinator struct {
	optimizer Optimizer
	events    *events.Manager
	log       zerolog.Logger

	tickInterval time.Duration
	newTicker    TickerFactory
	now          func() time.Time

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	seq      uint64
	state    domain.RequestState
	stopTick func() // non-nil exactly while a ticker runs
	closed   bool
	tickets  uint64 // last publication ticket issued

	emitMu    sync.Mutex
	emitCond  *sync.Cond
	published uint64
}

// NewCoordinator creates a coordinator in the Idle state. eventManager may be nil.
func NewCoordinator(opt Optimizer, eventManager *events.Manager, log zerolog.Logger, opts Options) *Coordinator {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		optimizer:    opt,
		events:       eventManager,
		log:          log.With().Str("component", "optimization_coordinator").Logger(),
		tickInterval: opts.TickInterval,
		newTicker:    opts.NewTicker,
		now:          opts.Now,
		ctx:          ctx,
		cancel:       cancel,
		state:        domain.Idle{},
	}
	c.emitCond = sync.NewCond(&c.emitMu)
	return c
}

// Init derives the context of later optimize calls from ctx.
func (c *Coordinator) Init(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
}

// State returns the current request state.
func (c *Coordinator) State() domain.RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the state together with the sequence number of the most
// recent submission, read under one lock.
func (c *Coordinator) Snapshot() (domain.RequestState, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.seq
}

// Submit starts a new submission and returns its sequence number. Any
// submission still outstanding becomes stale; its network call is not
// cancelled but its response will be discarded. Returns 0 after Teardown.
func (c *Coordinator) Submit(params domain.OptimizerParameters, filters domain.ETFFilters) uint64 {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}

	c.seq++
	seq := c.seq
	superseded := c.state.Phase() == domain.PhasePending
	c.stopTickerLocked()

	started := c.now()
	c.state = domain.Pending{StartedAt: started}

	ticker := c.newTicker(c.tickInterval)
	stop := make(chan struct{})
	c.stopTick = func() {
		close(stop)
		ticker.Stop()
	}
	ctx := c.ctx
	ticket := c.ticketLocked()
	c.mu.Unlock()

	metrics.OptimizeRequests.WithLabelValues(metrics.OutcomeSubmitted).Inc()
	c.log.Info().
		Uint64("seq", seq).
		Bool("superseded", superseded).
		Msg("Optimization submitted")
	c.publish(ticket, func() { c.emitState(seq, domain.Pending{StartedAt: started}) })

	go c.runTicker(seq, ticker, stop)
	go c.run(ctx, seq, params.Clone(), filters.Clone(), started)
	return seq
}

// Dismiss clears a held result or error and returns to Idle. Both are
// cleared together. It reports whether the state changed.
func (c *Coordinator) Dismiss() bool {
	c.mu.Lock()
	switch c.state.(type) {
	case domain.Succeeded, domain.Failed:
	default:
		c.mu.Unlock()
		return false
	}
	c.state = domain.Idle{}
	seq := c.seq
	ticket := c.ticketLocked()
	c.mu.Unlock()

	c.log.Debug().Uint64("seq", seq).Msg("Result dismissed")
	c.publish(ticket, func() { c.emitState(seq, domain.Idle{}) })
	return true
}

// Teardown stops the ticker and makes every outstanding response stale.
// It is safe to call more than once.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.seq++
	c.stopTickerLocked()
	c.cancel()
}

func (c *Coordinator) run(ctx context.Context, seq uint64, params domain.OptimizerParameters, filters domain.ETFFilters, started time.Time) {
	result, err := c.optimizer.Optimize(ctx, params, filters)

	c.mu.Lock()
	if c.closed || seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		metrics.OptimizeRequests.WithLabelValues(metrics.OutcomeStale).Inc()
		c.log.Debug().
			Uint64("seq", seq).
			Uint64("latest", latest).
			Msg("Stale optimization response discarded")
		return
	}

	c.stopTickerLocked()
	var next domain.RequestState
	if err != nil {
		next = domain.Failed{Message: FailureMessage(err)}
	} else {
		next = domain.Succeeded{Result: result}
	}
	c.state = next
	ticket := c.ticketLocked()
	c.mu.Unlock()

	took := c.now().Sub(started)
	metrics.OptimizeDuration.Observe(took.Seconds())
	if err != nil {
		metrics.OptimizeRequests.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.log.Error().Err(err).Uint64("seq", seq).Dur("took", took).Msg("Optimization failed")
	} else {
		metrics.OptimizeRequests.WithLabelValues(metrics.OutcomeSucceeded).Inc()
		c.log.Info().
			Uint64("seq", seq).
			Dur("took", took).
			Int("holdings", len(result.Holdings)).
			Msg("Optimization succeeded")
	}
	c.publish(ticket, func() { c.emitState(seq, next) })
}

func (c *Coordinator) runTicker(seq uint64, ticker Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			c.advance(seq)
		}
	}
}

func (c *Coordinator) advance(seq uint64) {
	c.mu.Lock()
	pending, ok := c.state.(domain.Pending)
	if !ok || seq != c.seq || c.closed {
		c.mu.Unlock()
		return
	}
	pending.ElapsedSeconds++
	c.state = pending
	ticket := c.ticketLocked()
	c.mu.Unlock()

	c.publish(ticket, func() {
		if c.events != nil {
			c.events.EmitTyped(events.RequestElapsed, "optimization", &events.RequestElapsedData{
				Seq:            seq,
				ElapsedSeconds: pending.ElapsedSeconds,
			})
		}
	})
}

// ticketLocked reserves the publication slot of a transition. c.mu must be
// held, and the ticket must be passed to publish exactly once.
func (c *Coordinator) ticketLocked() uint64 {
	c.tickets++
	return c.tickets
}

// publish runs emit once every earlier ticket has been published.
func (c *Coordinator) publish(ticket uint64, emit func()) {
	c.emitMu.Lock()
	for c.published+1 != ticket {
		c.emitCond.Wait()
	}
	c.emitMu.Unlock()

	emit()

	c.emitMu.Lock()
	c.published = ticket
	c.emitCond.Broadcast()
	c.emitMu.Unlock()
}

// stopTickerLocked stops the running ticker, if any. c.mu must be held.
func (c *Coordinator) stopTickerLocked() {
	if c.stopTick != nil {
		c.stopTick()
		c.stopTick = nil
	}
}

func (c *Coordinator) emitState(seq uint64, state domain.RequestState) {
	if c.events == nil {
		return
	}
	data := &events.RequestStateChangedData{Seq: seq, Phase: string(state.Phase())}
	if failed, ok := state.(domain.Failed); ok {
		data.Message = failed.Message
	}
	c.events.EmitTyped(events.RequestStateChanged, "optimization", data)
}
