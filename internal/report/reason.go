package report

// DiscardReason tells why the client locally discarded an event instead of
// delivering it.
type DiscardReason string

// The closed set of reasons the ingestion protocol recognizes. Recording
// validates against this set; anything else is silently dropped so that
// reporting can never interfere with primary delivery.
const (
	// ReasonRateLimitBackoff indicates the event's category was under an
	// active rate limit.
	ReasonRateLimitBackoff DiscardReason = "ratelimit_backoff"

	// ReasonQueueOverflow indicates the sink's send queue was full.
	ReasonQueueOverflow DiscardReason = "queue_overflow"

	// ReasonCacheOverflow is reserved for offline caches. This client
	// never produces it internally.
	ReasonCacheOverflow DiscardReason = "cache_overflow"

	// ReasonNetworkError indicates a delivery attempt failed at the
	// connection level.
	ReasonNetworkError DiscardReason = "network_error"

	// ReasonSampleRate indicates the event was excluded by sampling.
	ReasonSampleRate DiscardReason = "sample_rate"

	// ReasonBeforeSend indicates a before-send callback dropped the event.
	ReasonBeforeSend DiscardReason = "before_send"

	// ReasonEventProcessor indicates an event processor dropped the event.
	ReasonEventProcessor DiscardReason = "event_processor"
)

var knownReasons = map[DiscardReason]struct{}{
	ReasonRateLimitBackoff: {},
	ReasonQueueOverflow:    {},
	ReasonCacheOverflow:    {},
	ReasonNetworkError:     {},
	ReasonSampleRate:       {},
	ReasonBeforeSend:       {},
	ReasonEventProcessor:   {},
}

// Known reports whether the reason belongs to the recognized set.
func (r DiscardReason) Known() bool {
	_, ok := knownReasons[r]
	return ok
}
