package optimization

import "time"

// Ticker is the periodic source driving the elapsed counter.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a started ticker.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the TickerFactory backed by time.Ticker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}
