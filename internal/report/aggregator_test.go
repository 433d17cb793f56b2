package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faultline/faultline-go/internal/ratelimit"
)

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

func newTestAggregator(enabled bool) (*Aggregator, *fakeClock) {
	clock := &fakeClock{current: time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)}
	return NewAggregator(enabled, WithClock(clock.Now)), clock
}

func TestAggregatorTakeReport(t *testing.T) {
	a, clock := newTestAggregator(true)

	a.Record(ReasonQueueOverflow, ratelimit.CategoryError, 3)
	clock.Advance(FlushInterval)

	r := a.TakeReport()
	require.NotNil(t, r)
	assert.Equal(t, clock.Now(), r.Timestamp)
	assert.Equal(t, []DiscardedEvent{
		{Reason: ReasonQueueOverflow, Category: ratelimit.CategoryError, Quantity: 3},
	}, r.DiscardedEvents)

	// the flush is destructive: an immediate second take yields nothing
	assert.Nil(t, a.TakeReport())
}

func TestAggregatorIntervalNotElapsed(t *testing.T) {
	a, clock := newTestAggregator(true)

	a.RecordOne(ReasonRateLimitBackoff, ratelimit.CategoryError)
	clock.Advance(FlushInterval - time.Second)
	assert.Nil(t, a.TakeReport())

	clock.Advance(time.Second)
	require.NotNil(t, a.TakeReport())
}

func TestAggregatorEmptyState(t *testing.T) {
	a, clock := newTestAggregator(true)
	clock.Advance(FlushInterval)
	assert.Nil(t, a.TakeReport())
}

func TestAggregatorDisabled(t *testing.T) {
	a, clock := newTestAggregator(false)

	a.RecordOne(ReasonQueueOverflow, ratelimit.CategoryError)
	clock.Advance(FlushInterval)
	assert.Nil(t, a.TakeReport())
}

func TestAggregatorUnknownReasonIgnored(t *testing.T) {
	a, clock := newTestAggregator(true)

	a.RecordOne(DiscardReason("unknown_reason"), ratelimit.CategoryError)
	clock.Advance(FlushInterval)
	assert.Nil(t, a.TakeReport())
}

func TestAggregatorCategoryNormalization(t *testing.T) {
	a, clock := newTestAggregator(true)

	// missing category counts as error
	a.RecordOne(ReasonNetworkError, ratelimit.CategoryAll)
	// unknown categories collapse into error at flush time
	a.Record(ReasonNetworkError, ratelimit.Category("security"), 2)
	// transactions keep their own bucket
	a.RecordOne(ReasonNetworkError, ratelimit.CategoryTransaction)
	clock.Advance(FlushInterval)

	r := a.TakeReport()
	require.NotNil(t, r)
	require.Len(t, r.DiscardedEvents, 2)

	quantities := make(map[ratelimit.Category]int64)
	for _, e := range r.DiscardedEvents {
		quantities[e.Category] = e.Quantity
	}
	assert.Equal(t, int64(3), quantities[ratelimit.CategoryError])
	assert.Equal(t, int64(1), quantities[ratelimit.CategoryTransaction])
}

func TestAggregatorCountsAccumulate(t *testing.T) {
	a, clock := newTestAggregator(true)

	a.RecordOne(ReasonBeforeSend, ratelimit.CategoryError)
	a.Record(ReasonBeforeSend, ratelimit.CategoryError, 4)
	a.Record(ReasonBeforeSend, ratelimit.CategoryError, 0)  // no-op
	a.Record(ReasonBeforeSend, ratelimit.CategoryError, -2) // no-op
	clock.Advance(FlushInterval)

	r := a.TakeReport()
	require.NotNil(t, r)
	assert.Equal(t, []DiscardedEvent{
		{Reason: ReasonBeforeSend, Category: ratelimit.CategoryError, Quantity: 5},
	}, r.DiscardedEvents)
}

func TestAggregatorNilReceiver(t *testing.T) {
	var a *Aggregator
	a.RecordOne(ReasonQueueOverflow, ratelimit.CategoryError)
	assert.Nil(t, a.TakeReport())
}

func TestClientReportToEnvelopeItem(t *testing.T) {
	r := &ClientReport{
		Timestamp: time.Date(2024, 5, 6, 12, 0, 30, 0, time.UTC),
		DiscardedEvents: []DiscardedEvent{
			{Reason: ReasonSampleRate, Category: ratelimit.CategoryError, Quantity: 7},
		},
	}

	item, err := r.ToEnvelopeItem()
	require.NoError(t, err)
	assert.Equal(t, "client_report", string(item.Header.Type))

	var payload struct {
		Timestamp       time.Time        `json:"timestamp"`
		DiscardedEvents []DiscardedEvent `json:"discarded_events"`
	}
	require.NoError(t, json.Unmarshal(item.Payload, &payload))
	assert.Equal(t, r.Timestamp, payload.Timestamp)
	assert.Equal(t, r.DiscardedEvents, payload.DiscardedEvents)
}
