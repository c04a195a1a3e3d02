// Package status holds the reactor's latest telemetry and encodes it for
// the serial link and the MQTT mirror.
package status

import (
	"sync"
	"time"
)

// Telemetry is one cycle's report. Field order is the wire key order and
// must not change: downstream loggers depend on it.
type Telemetry struct {
	Temp        float32 `json:"temp"`
	UVLed       int     `json:"uvLed"`
	UVIntensity int     `json:"uvIntensity"`
	Pump        int     `json:"pump"`
	Pump2       int     `json:"pump2"`
	PumpSpeed   int     `json:"pumpSpeed"`
	FlowRate    float32 `json:"flowRate"`
	UV1         float32 `json:"uv1"`
	Photodiode  float32 `json:"photodiode"`
	Turbidity   float32 `json:"turbidity"`
	Turbidity2  float32 `json:"turbidity2"`

	RGB1R uint8 `json:"rgb1_r"`
	RGB1G uint8 `json:"rgb1_g"`
	RGB1B uint8 `json:"rgb1_b"`
	RGB2R uint8 `json:"rgb2_r"`
	RGB2G uint8 `json:"rgb2_g"`
	RGB2B uint8 `json:"rgb2_b"`

	Raw1R float32 `json:"raw1_r"`
	Raw1G float32 `json:"raw1_g"`
	Raw1B float32 `json:"raw1_b"`
	Raw1C float32 `json:"raw1_c"`
	Raw2R float32 `json:"raw2_r"`
	Raw2G float32 `json:"raw2_g"`
	Raw2B float32 `json:"raw2_b"`
	Raw2C float32 `json:"raw2_c"`
}

// Flag converts a boolean state to the 0/1 used on the wire.
func Flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Config contains daemon configuration reported in system events.
type Config struct {
	Port   string
	Broker string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Telemetry     Telemetry
	Cycles        uint64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the telemetry of a completed cycle.
func (t *Tracker) Update(tel Telemetry) {
	t.mu.Lock()
	t.snap.Telemetry = tel
	t.snap.Cycles++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
