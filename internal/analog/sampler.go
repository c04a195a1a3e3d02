package analog

import "fmt"

// Channels assigns ADC inputs to sensors.
type Channels struct {
	Temperature int
	UV          int
	Photodiode  int
	Turbidity   int
}

// Readings are the converted sensor values for one loop cycle.
type Readings struct {
	Temperature float32 // °C
	UV          float32 // UV index
	Photodiode  float32 // volts
	Turbidity   float32 // NTU
}

// Sampler reads every auxiliary sensor once per cycle.
type Sampler struct {
	avg  *Averager
	ch   Channels
	conv Converter
}

// NewSampler binds the averager to a channel map and conversion.
func NewSampler(avg *Averager, ch Channels, conv Converter) *Sampler {
	return &Sampler{avg: avg, ch: ch, conv: conv}
}

// Read samples all four channels. On error the readings gathered so far are
// returned with the error.
func (s *Sampler) Read() (Readings, error) {
	var r Readings
	v, err := s.volts(s.ch.Temperature)
	if err != nil {
		return r, fmt.Errorf("temperature: %w", err)
	}
	r.Temperature = TemperatureC(v)

	if v, err = s.volts(s.ch.UV); err != nil {
		return r, fmt.Errorf("uv: %w", err)
	}
	r.UV = UVIndex(v)

	if v, err = s.volts(s.ch.Photodiode); err != nil {
		return r, fmt.Errorf("photodiode: %w", err)
	}
	r.Photodiode = v

	if v, err = s.volts(s.ch.Turbidity); err != nil {
		return r, fmt.Errorf("turbidity: %w", err)
	}
	r.Turbidity = TurbidityNTU(v)
	return r, nil
}

func (s *Sampler) volts(channel int) (float32, error) {
	raw, err := s.avg.Read(channel)
	if err != nil {
		return 0, err
	}
	return s.conv.Voltage(raw), nil
}
