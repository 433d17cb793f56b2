// Package protocol implements the envelope wire format: an envelope is a
// JSON header line followed by a sequence of items, each item a JSON header
// line and a payload line.
package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Envelope is the outer container bundling one or more typed items under a
// shared header.
type Envelope struct {
	Header *EnvelopeHeader `json:"-"`
	Items  []*EnvelopeItem `json:"-"`
}

// EnvelopeHeader is the envelope-level header. It is immutable once the
// envelope has been serialized for a send.
type EnvelopeHeader struct {
	// EventID is the identifier of the primary event in this envelope.
	EventID string `json:"event_id"`

	// SentAt is the timestamp when the envelope left the client, in UTC.
	SentAt time.Time `json:"sent_at,omitempty"`

	// Dsn makes the envelope self-authenticated: it carries the full
	// identity string of the destination project.
	Dsn string `json:"dsn,omitempty"`

	// Sdk identifies the client that produced the envelope.
	Sdk *SdkInfo `json:"sdk,omitempty"`
}

// EnvelopeItemType is the type tag of an envelope item.
type EnvelopeItemType string

// The item vocabulary of this client. Event items carry their category as
// the item type.
const (
	EnvelopeItemTypeError        EnvelopeItemType = "error"
	EnvelopeItemTypeTransaction  EnvelopeItemType = "transaction"
	EnvelopeItemTypeClientReport EnvelopeItemType = "client_report"
)

// EnvelopeItemHeader is the header of a single envelope item.
type EnvelopeItemHeader struct {
	// Type specifies the type of this item and its contents.
	Type EnvelopeItemType `json:"type"`

	// Length is the length of the payload in bytes. Without it the payload
	// would implicitly end at the next newline, so payloads that may
	// contain newlines must set it.
	Length *int `json:"length,omitempty"`

	// ContentType is the MIME type of the item payload.
	ContentType string `json:"content_type,omitempty"`
}

// EnvelopeItem is a single (header, payload) unit inside an envelope.
type EnvelopeItem struct {
	Header  *EnvelopeItemHeader `json:"-"`
	Payload []byte              `json:"-"`
}

// NewEnvelope creates a new envelope with the given header.
func NewEnvelope(header *EnvelopeHeader) *Envelope {
	return &Envelope{
		Header: header,
		Items:  make([]*EnvelopeItem, 0),
	}
}

// AddItem appends an item to the envelope. Item order is significant on the
// wire and is preserved as-is.
func (e *Envelope) AddItem(item *EnvelopeItem) {
	e.Items = append(e.Items, item)
}

// Serialize serializes the envelope to the envelope wire format.
//
// Format: Headers "\n" { Item } [ "\n" ]
// Item: Headers "\n" Payload "\n".
func (e *Envelope) Serialize() ([]byte, error) {
	var buf bytes.Buffer

	headerBytes, err := json.Marshal(e.Header)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling envelope header")
	}
	buf.Write(headerBytes)
	buf.WriteString("\n")

	for _, item := range e.Items {
		if err := writeItem(&buf, item); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// WriteTo writes the serialized envelope to the given writer.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	data, err := e.Serialize()
	if err != nil {
		return 0, err
	}

	n, err := w.Write(data)
	return int64(n), err
}

func writeItem(buf *bytes.Buffer, item *EnvelopeItem) error {
	headerBytes, err := json.Marshal(item.Header)
	if err != nil {
		return errors.Wrap(err, "marshaling item header")
	}
	buf.Write(headerBytes)
	buf.WriteString("\n")

	if len(item.Payload) > 0 {
		buf.Write(item.Payload)
	}
	buf.WriteString("\n")

	return nil
}

// NewEventItem creates the envelope item carrying an event payload. The
// item type is the event's category.
func NewEventItem(itemType EnvelopeItemType, payload []byte) *EnvelopeItem {
	length := len(payload)
	return &EnvelopeItem{
		Header: &EnvelopeItemHeader{
			Type:        itemType,
			Length:      &length,
			ContentType: "application/json",
		},
		Payload: payload,
	}
}

// NewEnvelopeItem creates a new envelope item with the specified type and
// payload.
func NewEnvelopeItem(itemType EnvelopeItemType, payload []byte) *EnvelopeItem {
	length := len(payload)
	return &EnvelopeItem{
		Header: &EnvelopeItemHeader{
			Type:   itemType,
			Length: &length,
		},
		Payload: payload,
	}
}
