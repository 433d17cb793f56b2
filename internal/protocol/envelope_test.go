package protocol

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEnvelopeSerialize(t *testing.T) {
	sentAt := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	envelope := NewEnvelope(&EnvelopeHeader{
		EventID: "9ec79c33ec9942ab8353589fcb2e04dc",
		SentAt:  sentAt,
		Dsn:     "https://public@example.com/1",
		Sdk:     &SdkInfo{Name: "test.client", Version: "1.2.3"},
	})
	envelope.AddItem(NewEventItem(EnvelopeItemTypeError, []byte(`{"message":"hello"}`)))

	data, err := envelope.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}

	lines := bytes.Split(data, []byte("\n"))
	// header, item header, item payload, trailing empty line
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), data)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(lines[0], &header); err != nil {
		t.Fatalf("envelope header is not JSON: %v", err)
	}
	wantHeader := map[string]interface{}{
		"event_id": "9ec79c33ec9942ab8353589fcb2e04dc",
		"sent_at":  "2024-05-06T12:00:00Z",
		"dsn":      "https://public@example.com/1",
		"sdk":      map[string]interface{}{"name": "test.client", "version": "1.2.3"},
	}
	if diff := cmp.Diff(wantHeader, header); diff != "" {
		t.Errorf("envelope header mismatch (-want +got):\n%s", diff)
	}

	var itemHeader map[string]interface{}
	if err := json.Unmarshal(lines[1], &itemHeader); err != nil {
		t.Fatalf("item header is not JSON: %v", err)
	}
	wantItemHeader := map[string]interface{}{
		"type":         "error",
		"length":       float64(19),
		"content_type": "application/json",
	}
	if diff := cmp.Diff(wantItemHeader, itemHeader); diff != "" {
		t.Errorf("item header mismatch (-want +got):\n%s", diff)
	}

	if got, want := string(lines[2]), `{"message":"hello"}`; got != want {
		t.Errorf("item payload: got %q, want %q", got, want)
	}
}

func TestEnvelopeSerializeItemOrder(t *testing.T) {
	envelope := NewEnvelope(&EnvelopeHeader{EventID: "abc"})
	envelope.AddItem(NewEventItem(EnvelopeItemTypeTransaction, []byte(`{"type":"transaction"}`)))
	envelope.AddItem(NewEnvelopeItem(EnvelopeItemTypeClientReport, []byte(`{"discarded_events":[]}`)))

	data, err := envelope.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}

	firstItem := bytes.Index(data, []byte(`"type":"transaction"`))
	secondItem := bytes.Index(data, []byte(`"type":"client_report"`))
	if firstItem == -1 || secondItem == -1 {
		t.Fatalf("serialized envelope missing items: %q", data)
	}
	if firstItem > secondItem {
		t.Errorf("event item must precede client report item: %q", data)
	}
}

func TestEnvelopeWriteTo(t *testing.T) {
	envelope := NewEnvelope(&EnvelopeHeader{EventID: "abc"})
	envelope.AddItem(NewEventItem(EnvelopeItemTypeError, []byte(`{}`)))

	var buf bytes.Buffer
	n, err := envelope.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, buffer has %d bytes", n, buf.Len())
	}
}

func TestEnvelopeEmptyItems(t *testing.T) {
	envelope := NewEnvelope(&EnvelopeHeader{EventID: "abc"})
	data, err := envelope.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if got := bytes.Count(data, []byte("\n")); got != 1 {
		t.Errorf("envelope with no items: got %d newlines, want 1: %q", got, data)
	}
}
