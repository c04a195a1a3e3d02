package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatTelemetry returns tel as a single-line JSON object.
func FormatTelemetry(tel Telemetry) ([]byte, error) {
	data, err := json.Marshal(tel)
	if err != nil {
		return nil, fmt.Errorf("encode telemetry: %w", err)
	}
	return data, nil
}

// StatusJSON is the top-level JSON envelope for system events.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event"`
	Reason        string     `json:"reason,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Cycles        uint64     `json:"cycles"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Serial        string     `json:"serial"`
	Telemetry     *Telemetry `json:"telemetry,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// FormatStatusEvent returns the JSON payload for a system event. The last
// telemetry is included once at least one cycle has completed.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := StatusInner{
		Event:         event,
		Reason:        reason,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		Cycles:        snap.Cycles,
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Serial:        snap.Config.Port,
	}
	if snap.Cycles > 0 {
		tel := snap.Telemetry
		inner.Telemetry = &tel
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
