// Package mqtt mirrors indicator log lines and lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/turn-indicator/internal/logsink"
)

// TopicLog is the MQTT topic for product log lines.
const TopicLog = "vehicle/indicator/log"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "vehicle/indicator/system"

// Publisher publishes to MQTT. It is also a logsink.Target.
type Publisher interface {
	// WriteLine sends a product log line to the broker.
	// Returns error if publishing fails (should not crash the process).
	WriteLine(line logsink.Line) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// LogPayload represents the MQTT payload for a log line.
type LogPayload struct {
	Log LogPayloadInner `json:"log"`
}

// LogPayloadInner contains the log line details.
type LogPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Tag       string `json:"tag"`
	Message   string `json:"message"`
}

// FormatLogPayload creates the JSON payload for a log line.
func FormatLogPayload(line logsink.Line) ([]byte, error) {
	payload := LogPayload{
		Log: LogPayloadInner{
			Timestamp: line.Time.UTC().Format(time.RFC3339),
			Tag:       line.Tag,
			Message:   line.Message,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
// A zero Timestamp omits the timestamp field.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Event:  event.Event,
			Reason: event.Reason,
		},
	}
	if !event.Timestamp.IsZero() {
		payload.System.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(payload)
}

// WillPayload is the last-will message the broker publishes when the
// connection drops uncleanly. The broker stores it at connect time, so it
// carries no timestamp.
func WillPayload() []byte {
	payload, _ := FormatSystemPayload(SystemEvent{Event: "SHUTDOWN", Reason: "MQTT_DISCONNECT"})
	return payload
}
