package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reef-pi/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, "standard", cfg.Sensors[0].Mapping)
	assert.Equal(t, "swapped", cfg.Sensors[1].Mapping)
	assert.Equal(t, 60, cfg.Pump.DefaultSpeed)
	assert.Len(t, cfg.Pump.Calibration, 4)
	assert.Equal(t, 200*time.Millisecond, cfg.Loop.FinalDelay)
	assert.Empty(t, cfg.MQTT.Broker)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactor.yaml")
	yamlContent := `
serial:
  port: "/dev/ttyUSB1"
  baud: 115200

sensors:
  - {s0: 1, s1: 2, s2: 3, s3: 4, out: 5, mapping: swapped, scaling: 100}
  - {s0: 6, s1: 7, s2: 8, s3: 9, out: 10}

pump:
  default_speed: 45
  calibration:
    - {speed: 10, flow_rate: 0.1}
    - {speed: 80, flow_rate: 1.4}

mqtt:
  broker: "tcp://broker.local:1883"

loop:
  final_delay: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, "swapped", cfg.Sensors[0].Mapping)
	assert.Equal(t, 100, cfg.Sensors[0].Scaling)
	assert.Equal(t, "swapped", cfg.Sensors[1].Mapping, "missing mapping defaults by position")
	assert.Equal(t, 20, cfg.Sensors[1].Scaling)
	assert.Equal(t, 45, cfg.Pump.DefaultSpeed)
	assert.Equal(t, []CalibrationPoint{{10, 0.1}, {80, 1.4}}, cfg.Pump.Calibration)
	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.FinalDelay)

	// untouched sections keep defaults
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, float32(3.3), cfg.Analog.VRef)
	assert.Equal(t, 12, cfg.Analog.Bits)
}

func TestLoad_SensorMappingsDefaultByPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.yaml")
	yamlContent := `
sensors:
  - {s0: 1, s1: 2, s2: 3, s3: 4, out: 5}
  - {s0: 6, s1: 7, s2: 8, s3: 9, out: 10}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sensors, 2)
	assert.Equal(t, "standard", cfg.Sensors[0].Mapping)
	assert.Equal(t, "swapped", cfg.Sensors[1].Mapping)
	assert.Equal(t, 20, cfg.Sensors[1].Scaling)
}

func TestLoad_AnalogCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analog.yaml")
	yamlContent := `
analog:
  calibration:
    3:
      - {expected: 0, observed: 12}
      - {expected: 4095, observed: 4080}
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []hal.Measurement{
		{Expected: 0, Observed: 12},
		{Expected: 4095, Observed: 4080},
	}, cfg.Analog.Calibration[3])
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("serial: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"one sensor", "sensors:\n  - {s0: 1}\n"},
		{"bad mapping", "sensors:\n  - {mapping: diagonal}\n  - {}\n"},
		{"speed too high", "pump:\n  default_speed: 90\n"},
		{"negative flow", "pump:\n  calibration:\n    - {speed: 10, flow_rate: -1}\n"},
		{"shared pwm", "pump2:\n  channel: 0\n"},
		{"three analog points", "analog:\n  calibration:\n    0: [{expected: 1}, {expected: 2}, {expected: 3}]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")

	cfg := Default()
	cfg.Serial.Port = "-"
	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.Pump.DefaultSpeed = 33
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
