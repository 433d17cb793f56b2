package protocol

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateEventID returns a new event identifier: a random UUIDv4 encoded
// as 32 lowercase hex characters without dashes, the format the ingestion
// API expects.
func GenerateEventID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
