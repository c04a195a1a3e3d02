// Package config loads the reactor's hardware wiring and tuning from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/reef-pi/hal"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/dye-reactor/internal/gpio"
)

// Config represents the application configuration.
type Config struct {
	Serial  SerialConfig   `yaml:"serial"`
	GPIO    GPIOConfig     `yaml:"gpio"`
	Sensors []SensorConfig `yaml:"sensors"`
	Pump    PumpConfig     `yaml:"pump"`
	Pump2   PWMConfig      `yaml:"pump2"`
	LED     PWMConfig      `yaml:"led"`
	Analog  AnalogConfig   `yaml:"analog"`
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Loop    LoopConfig     `yaml:"loop"`
}

// SerialConfig contains serial port configuration. Port "-" uses
// stdin/stdout.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// GPIOConfig names the GPIO character device.
type GPIOConfig struct {
	Chip string `yaml:"chip"`
}

// SensorConfig wires one colour sensor.
type SensorConfig struct {
	S0      int    `yaml:"s0"`
	S1      int    `yaml:"s1"`
	S2      int    `yaml:"s2"`
	S3      int    `yaml:"s3"`
	Out     int    `yaml:"out"`
	Mapping string `yaml:"mapping"` // "standard" or "swapped"
	Scaling int    `yaml:"scaling"` // output frequency scaling in percent
}

// PWMConfig addresses one channel of pwmchip0.
type PWMConfig struct {
	Channel int `yaml:"channel"`
}

// PumpConfig configures the variable-speed pump.
type PumpConfig struct {
	PWM          PWMConfig          `yaml:"pwm"`
	DefaultSpeed int                `yaml:"default_speed"`
	Calibration  []CalibrationPoint `yaml:"calibration"`
}

// CalibrationPoint is one measured flow rate.
type CalibrationPoint struct {
	Speed    int     `yaml:"speed"`
	FlowRate float64 `yaml:"flow_rate"` // mL/s
}

// AnalogConfig configures the auxiliary ADC inputs.
type AnalogConfig struct {
	Device      string        `yaml:"device"` // IIO device, empty disables
	Temperature int           `yaml:"temperature"`
	UV          int           `yaml:"uv"`
	Photodiode  int           `yaml:"photodiode"`
	Turbidity   int           `yaml:"turbidity"`
	Samples     int           `yaml:"samples"`
	Delay       time.Duration `yaml:"delay"`
	VRef        float32       `yaml:"vref"`
	Bits        int           `yaml:"bits"`

	// Calibration trims raw counts per ADC channel (0, 1 or 2 points).
	Calibration map[int][]hal.Measurement `yaml:"calibration,omitempty"`
}

// MQTTConfig configures the optional telemetry mirror.
type MQTTConfig struct {
	Broker         string `yaml:"broker"` // empty disables
	ClientID       string `yaml:"client_id"`
	TelemetryTopic string `yaml:"telemetry_topic"`
	SystemTopic    string `yaml:"system_topic"`
}

// LoopConfig tunes the control loop.
type LoopConfig struct {
	FinalDelay time.Duration `yaml:"final_delay"`
}

// Default returns a default configuration for the reference bench.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyACM0",
			Baud: 9600,
		},
		GPIO: GPIOConfig{Chip: gpio.DefaultChip},
		Sensors: []SensorConfig{
			{
				S0: gpio.DefaultSensor1S0, S1: gpio.DefaultSensor1S1,
				S2: gpio.DefaultSensor1S2, S3: gpio.DefaultSensor1S3,
				Out: gpio.DefaultSensor1Out, Mapping: "standard", Scaling: 20,
			},
			{
				S0: gpio.DefaultSensor2S0, S1: gpio.DefaultSensor2S1,
				S2: gpio.DefaultSensor2S2, S3: gpio.DefaultSensor2S3,
				Out: gpio.DefaultSensor2Out, Mapping: "swapped", Scaling: 20,
			},
		},
		Pump: PumpConfig{
			PWM:          PWMConfig{Channel: 0},
			DefaultSpeed: 60,
			Calibration: []CalibrationPoint{
				{Speed: 20, FlowRate: 0.25},
				{Speed: 40, FlowRate: 0.6},
				{Speed: 60, FlowRate: 1.0},
				{Speed: 89, FlowRate: 1.6},
			},
		},
		Pump2: PWMConfig{Channel: 1},
		LED:   PWMConfig{Channel: 2},
		Analog: AnalogConfig{
			Device:      "iio:device0",
			Temperature: 0,
			UV:          1,
			Photodiode:  2,
			Turbidity:   3,
			Samples:     10,
			Delay:       2 * time.Millisecond,
			VRef:        3.3,
			Bits:        12,
		},
		Loop: LoopConfig{FinalDelay: 200 * time.Millisecond},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations the hardware cannot run.
func (c *Config) Validate() error {
	if len(c.Sensors) != 2 {
		return fmt.Errorf("expected 2 sensors, got %d", len(c.Sensors))
	}
	for i, s := range c.Sensors {
		if s.Mapping != "standard" && s.Mapping != "swapped" {
			return fmt.Errorf("sensor %d: unknown mapping %q", i+1, s.Mapping)
		}
	}
	if c.Pump.DefaultSpeed < 0 || c.Pump.DefaultSpeed > 89 {
		return fmt.Errorf("pump default_speed %d out of range 0-89", c.Pump.DefaultSpeed)
	}
	for _, p := range c.Pump.Calibration {
		if p.FlowRate < 0 {
			return fmt.Errorf("pump calibration at speed %d has negative flow rate", p.Speed)
		}
	}
	if c.Pump.PWM.Channel == c.Pump2.Channel || c.Pump.PWM.Channel == c.LED.Channel || c.Pump2.Channel == c.LED.Channel {
		return fmt.Errorf("pump, pump2 and led need distinct pwm channels")
	}
	for ch, points := range c.Analog.Calibration {
		if len(points) > 2 {
			return fmt.Errorf("analog channel %d: at most 2 calibration points, got %d", ch, len(points))
		}
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}

	if len(c.Sensors) == 0 {
		c.Sensors = def.Sensors
	}
	for i := range c.Sensors {
		if i >= len(def.Sensors) {
			break
		}
		if c.Sensors[i].Mapping == "" {
			c.Sensors[i].Mapping = def.Sensors[i].Mapping
		}
		if c.Sensors[i].Scaling == 0 {
			c.Sensors[i].Scaling = def.Sensors[i].Scaling
		}
	}

	if c.Pump.DefaultSpeed == 0 {
		c.Pump.DefaultSpeed = def.Pump.DefaultSpeed
	}
	if len(c.Pump.Calibration) == 0 {
		c.Pump.Calibration = def.Pump.Calibration
	}

	if c.Analog.Samples == 0 {
		c.Analog.Samples = def.Analog.Samples
	}
	if c.Analog.VRef == 0 {
		c.Analog.VRef = def.Analog.VRef
	}
	if c.Analog.Bits == 0 {
		c.Analog.Bits = def.Analog.Bits
	}

	if c.Loop.FinalDelay == 0 {
		c.Loop.FinalDelay = def.Loop.FinalDelay
	}
}
