// Package mqtt mirrors reactor telemetry and lifecycle events to an MQTT
// broker. The serial link remains the primary output; the mirror is
// optional and never blocks the control loop for long.
package mqtt

import (
	"encoding/json"
	"time"
)

// Default topics.
const (
	DefaultTelemetryTopic = "lab/dye-reactor/telemetry"
	DefaultSystemTopic    = "lab/dye-reactor/system"
	DefaultClientID       = "dye-reactor"
)

// Publisher publishes reactor output to MQTT.
type Publisher interface {
	// PublishTelemetry sends one telemetry line. Errors must not stop the
	// control loop.
	PublishTelemetry(payload []byte) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (STARTUP, SHUTDOWN, RECONNECTED).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string // e.g. "SIGTERM" (shutdown only)
	RawPayload []byte // pre-formatted payload; returned as-is by FormatSystemPayload
	Retained   bool
}

// SystemPayload is the payload for events that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
