package faultline

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/faultline/faultline-go/internal/debuglog"
	"github.com/faultline/faultline-go/internal/protocol"
	"github.com/faultline/faultline-go/internal/ratelimit"
	"github.com/faultline/faultline-go/internal/report"
)

// categoryFor derives the rate-limiting and reporting category from the
// event's declared type. Events without a type, or with a type this client
// does not know, classify as errors.
func categoryFor(event *Event) ratelimit.Category {
	if event == nil {
		return ratelimit.CategoryError
	}
	return ratelimit.FromEventType(event.Type)
}

// envelopeFromEvent builds the outgoing envelope: the envelope header, the
// event item and, when one is due, a trailing client_report item taken
// from the reporter. The input event is never modified; an identifier
// missing from the payload is generated for the envelope header only.
//
// The event is encoded before the reporter is consulted, so an encoding
// failure leaves the pending report untouched for a later send.
func envelopeFromEvent(event *Event, dsn *Dsn, sdk SdkInfo, reporter *report.Aggregator, sentAt time.Time) (*protocol.Envelope, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "faultline: encoding event")
	}

	eventID := string(event.EventID)
	if eventID == "" {
		eventID = protocol.GenerateEventID()
	}

	header := &protocol.EnvelopeHeader{
		EventID: eventID,
		SentAt:  sentAt,
		Sdk:     &sdk,
	}
	if dsn != nil {
		header.Dsn = dsn.String()
	}

	envelope := protocol.NewEnvelope(header)
	envelope.AddItem(protocol.NewEventItem(protocol.EnvelopeItemType(categoryFor(event)), body))

	if r := reporter.TakeReport(); r != nil {
		item, err := r.ToEnvelopeItem()
		if err != nil {
			debuglog.Printf("Failed to serialize client report: %v", err)
		} else {
			envelope.AddItem(item)
		}
	}

	return envelope, nil
}
