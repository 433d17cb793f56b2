package faultline

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/faultline/faultline-go/internal/debuglog"
	"github.com/faultline/faultline-go/internal/protocol"
	"github.com/faultline/faultline-go/internal/ratelimit"
	"github.com/faultline/faultline-go/internal/report"
)

// apiVersion is the version of the ingestion protocol spoken by this
// client.
const apiVersion = 7

var (
	// ErrNotImplemented is returned when a Transport constructed without a
	// concrete sink is asked to send. This is a programming-contract
	// violation, not a runtime condition to recover from.
	ErrNotImplemented = errors.New("faultline: send not implemented: transport has no sink")

	// ErrQueueFull is returned by sinks whose internal buffer is full. The
	// transport counts the affected event as a queue_overflow discard.
	ErrQueueFull = errors.New("faultline: sink queue full")
)

// Sink accepts serialized envelopes for delivery. Retries, backoff and
// HTTP semantics all live behind this interface; the transport treats Send
// as fire-and-forget.
type Sink interface {
	Send(payload []byte) error
}

// Feedback receives delivery outcomes observed after the transport has
// handed an envelope off, typically by a sink inspecting server responses.
// Transport implements it.
type Feedback interface {
	RecordLimits(limits ratelimit.Map)
	RecordLoss(reason report.DiscardReason, category ratelimit.Category)
}

// TransportOptions configures a Transport.
type TransportOptions struct {
	// Dsn identifies the destination project and carries the auth keys.
	Dsn *Dsn

	// Sink receives serialized envelopes. A Transport without a sink fails
	// every send with ErrNotImplemented.
	Sink Sink

	// DisableClientReports turns off the periodic self-report of locally
	// discarded events.
	DisableClientReports bool

	// DebugLogger, when set, receives the client's diagnostic output.
	DebugLogger *log.Logger
}

// Transport is the outbound core of the client: it decides whether an
// event may be sent, packages it into an envelope together with any
// pending client report, and hands the serialized bytes to its sink.
//
// A Transport performs no network I/O and has no internal scheduler;
// every decision happens synchronously in the calling goroutine.
type Transport struct {
	dsn  *Dsn
	sink Sink
	sdk  SdkInfo

	mu     sync.Mutex
	limits ratelimit.Map

	reporter *report.Aggregator

	now func() time.Time
}

// NewTransport creates a Transport from the given options.
func NewTransport(options TransportOptions) *Transport {
	if options.DebugLogger != nil {
		debuglog.SetLogger(options.DebugLogger)
	}

	return &Transport{
		dsn:      options.Dsn,
		sink:     options.Sink,
		sdk:      SdkInfo{Name: clientName, Version: Version},
		limits:   make(ratelimit.Map),
		reporter: report.NewAggregator(!options.DisableClientReports),
		now:      time.Now,
	}
}

// SendEvent delivers the event through the sink and returns it on success.
// A nil event together with a nil error means the send was suppressed by
// an active rate limit; the suppression is counted for the next client
// report and the event is never serialized.
func (t *Transport) SendEvent(event *Event) (*Event, error) {
	if t.sink == nil {
		return nil, ErrNotImplemented
	}
	if event == nil {
		return nil, nil
	}

	category := categoryFor(event)
	if t.disabled(category) {
		t.RecordLoss(report.ReasonRateLimitBackoff, category)
		return nil, nil
	}

	envelope, err := envelopeFromEvent(event, t.dsn, t.sdk, t.reporter, t.now().UTC())
	if err != nil {
		return nil, err
	}
	payload, err := envelope.Serialize()
	if err != nil {
		return nil, err
	}

	if err := t.sink.Send(payload); err != nil {
		if errors.Is(err, ErrQueueFull) {
			t.RecordLoss(report.ReasonQueueOverflow, category)
		}
		return nil, err
	}
	return event, nil
}

// SendEnvelope hands a pre-assembled envelope straight to the sink.
//
// Unlike SendEvent, this path applies no per-item rate-limit filtering and
// injects no pending client report. Callers are expected to have done
// their own filtering upstream; unifying the two paths is an open item.
func (t *Transport) SendEnvelope(envelope *protocol.Envelope) error {
	if t.sink == nil {
		return ErrNotImplemented
	}
	if envelope == nil {
		return nil
	}

	payload, err := envelope.Serialize()
	if err != nil {
		return err
	}
	return t.sink.Send(payload)
}

// IsRateLimited reports whether the category is currently suppressed by a
// previously recorded rate limit.
func (t *Transport) IsRateLimited(category ratelimit.Category) bool {
	return t.disabled(category)
}

func (t *Transport) disabled(c ratelimit.Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	disabled := t.limits.IsRateLimited(c)
	if disabled {
		debuglog.Printf("Too many requests for %q, backing off till: %v", c, t.limits.Deadline(c))
	}
	return disabled
}

// RecordLimits merges newly observed rate limits into the registry. This
// is the mutation point the delivery layer calls after inspecting a
// server response; stricter deadlines always win over earlier ones.
func (t *Transport) RecordLimits(limits ratelimit.Map) {
	if len(limits) == 0 {
		return
	}
	t.mu.Lock()
	if t.limits == nil {
		t.limits = make(ratelimit.Map)
	}
	t.limits.Merge(limits)
	t.mu.Unlock()
}

// RecordLoss counts one locally discarded event for the next client
// report. Unrecognized reasons are silently ignored.
func (t *Transport) RecordLoss(reason report.DiscardReason, category ratelimit.Category) {
	t.reporter.RecordOne(reason, category)
}

// AuthHeader builds the authentication header for a request issued at
// now. Deterministic given identical inputs except time.
func (t *Transport) AuthHeader(now time.Time) string {
	return t.dsn.authHeader(now)
}
