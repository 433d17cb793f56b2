package faultline

import (
	"github.com/faultline/faultline-go/internal/protocol"
)

// Version is the version of this client.
const Version = "0.4.0"

// clientName identifies this client in SDK metadata and auth headers.
const clientName = "faultline.go"

// Level marks the severity of the event.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// SdkInfo and SdkPackage describe the client in envelope headers and event
// payloads.
type SdkInfo = protocol.SdkInfo
type SdkPackage = protocol.SdkPackage

// User describes the user associated with an event.
type User struct {
	Email     string `json:"email,omitempty"`
	ID        string `json:"id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Exception describes one error in an event's error chain.
type Exception struct {
	Type   string `json:"type,omitempty"`
	Value  string `json:"value,omitempty"`
	Module string `json:"module,omitempty"`
}

// EventID is a hexadecimal string representing a unique event identifier.
type EventID string

// Event is the payload this transport delivers. The transport treats it as
// mostly opaque: only Type (for category derivation) and EventID (for the
// envelope header) influence delivery.
//
// Type is the event's declared type. The empty string, and any value other
// than "transaction", classifies the event as an error.
type Event struct {
	Type        string                 `json:"type,omitempty"`
	EventID     EventID                `json:"event_id,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Level       Level                  `json:"level,omitempty"`
	Platform    string                 `json:"platform,omitempty"`
	Environment string                 `json:"environment,omitempty"`
	Release     string                 `json:"release,omitempty"`
	ServerName  string                 `json:"server_name,omitempty"`
	Transaction string                 `json:"transaction,omitempty"`
	Timestamp   int64                  `json:"timestamp,omitempty"`
	Tags        map[string]string      `json:"tags,omitempty"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
	User        User                   `json:"user,omitempty"`
	Exception   []Exception            `json:"exception,omitempty"`
	Sdk         SdkInfo                `json:"sdk,omitempty"`
}
