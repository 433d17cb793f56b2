package report

import (
	"sync"
	"time"

	"github.com/faultline/faultline-go/internal/ratelimit"
)

// FlushInterval is the minimum time between two client report flushes.
const FlushInterval = 30 * time.Second

// Aggregator accumulates discarded event outcomes between flushes.
//
// One Aggregator belongs to one transport instance. It is safe for
// concurrent use so that sinks may record outcomes from their own
// goroutines.
type Aggregator struct {
	mu        sync.Mutex
	outcomes  map[OutcomeKey]int64
	lastFlush time.Time

	enabled  bool
	interval time.Duration
	now      func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces the wall clock, letting tests control time.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithInterval overrides the flush interval.
func WithInterval(d time.Duration) Option {
	return func(a *Aggregator) {
		a.interval = d
	}
}

// NewAggregator creates an aggregator with last-flush set to the current
// time. A disabled aggregator records and flushes nothing.
func NewAggregator(enabled bool, opts ...Option) *Aggregator {
	a := &Aggregator{
		outcomes: make(map[OutcomeKey]int64),
		enabled:  enabled,
		interval: FlushInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.lastFlush = a.now()
	return a
}

// Record adds quantity discarded events to the (reason, category) bucket.
// Unknown reasons are dropped without effect. An empty category counts as
// CategoryError.
func (a *Aggregator) Record(reason DiscardReason, category ratelimit.Category, quantity int64) {
	if a == nil || !a.enabled || quantity <= 0 || !reason.Known() {
		return
	}
	if category == ratelimit.CategoryAll {
		category = ratelimit.CategoryError
	}

	a.mu.Lock()
	a.outcomes[OutcomeKey{Reason: reason, Category: category}] += quantity
	a.mu.Unlock()
}

// RecordOne is a helper method to record one discarded event outcome.
func (a *Aggregator) RecordOne(reason DiscardReason, category ratelimit.Category) {
	a.Record(reason, category, 1)
}

// TakeReport returns the pending client report and resets the aggregator,
// or nil when nothing is due: reporting disabled, no recorded outcomes, or
// less than the flush interval elapsed since the last flush.
//
// Taking a report is destructive and single-shot. A caller that discards
// the returned report loses that data permanently, so it must always be
// forwarded.
func (a *Aggregator) TakeReport() *ClientReport {
	if a == nil || !a.enabled {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	if now.Sub(a.lastFlush) < a.interval || len(a.outcomes) == 0 {
		return nil
	}

	// The report vocabulary only distinguishes errors and transactions;
	// everything else collapses into the error bucket.
	collapsed := make(map[OutcomeKey]int64, len(a.outcomes))
	for key, quantity := range a.outcomes {
		if key.Category != ratelimit.CategoryTransaction {
			key.Category = ratelimit.CategoryError
		}
		collapsed[key] += quantity
	}

	events := make([]DiscardedEvent, 0, len(collapsed))
	for key, quantity := range collapsed {
		events = append(events, DiscardedEvent{
			Reason:   key.Reason,
			Category: key.Category,
			Quantity: quantity,
		})
	}

	a.outcomes = make(map[OutcomeKey]int64)
	a.lastFlush = now

	return &ClientReport{
		Timestamp:       now,
		DiscardedEvents: events,
	}
}
