// Package report implements client reports: periodic self-reported
// summaries of the events the client itself chose not to send.
package report

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/faultline/faultline-go/internal/protocol"
	"github.com/faultline/faultline-go/internal/ratelimit"
)

// OutcomeKey uniquely identifies an aggregation bucket.
type OutcomeKey struct {
	Reason   DiscardReason
	Category ratelimit.Category
}

// DiscardedEvent is a single entry of a client report.
type DiscardedEvent struct {
	Reason   DiscardReason      `json:"reason"`
	Category ratelimit.Category `json:"category"`
	Quantity int64              `json:"quantity"`
}

// ClientReport is the payload of a client_report envelope item.
type ClientReport struct {
	Timestamp       time.Time        `json:"timestamp"`
	DiscardedEvents []DiscardedEvent `json:"discarded_events"`
}

// ToEnvelopeItem serializes the report into a client_report envelope item.
func (r *ClientReport) ToEnvelopeItem() (*protocol.EnvelopeItem, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling client report")
	}
	return protocol.NewEnvelopeItem(protocol.EnvelopeItemTypeClientReport, payload), nil
}
