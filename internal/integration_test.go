package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/dye-reactor/internal/actuator"
	"github.com/sweeney/dye-reactor/internal/analog"
	"github.com/sweeney/dye-reactor/internal/clock"
	"github.com/sweeney/dye-reactor/internal/color"
	"github.com/sweeney/dye-reactor/internal/device"
	"github.com/sweeney/dye-reactor/internal/gpio"
	"github.com/sweeney/dye-reactor/internal/logic"
	"github.com/sweeney/dye-reactor/internal/mqtt"
	"github.com/sweeney/dye-reactor/internal/reactor"
	"github.com/sweeney/dye-reactor/internal/status"
)

// eofReader closes done once the wrapped reader is exhausted.
type eofReader struct {
	r    io.Reader
	done chan struct{}
}

func (e *eofReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err == io.EOF {
		select {
		case <-e.done:
		default:
			close(e.done)
		}
	}
	return n, err
}

type rig struct {
	clk     *clock.Fake
	chip    *gpio.FakeChip
	out     *bytes.Buffer
	dev     *device.Line
	pumpPWM *actuator.FakePWM
	servo   *actuator.FakePWM
	led     *actuator.FakePWM
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	reactor *reactor.Reactor
}

// newRig wires the full loop with the host's command script already queued
// on the serial link. Both sensors see the same light: the OUT line of
// whichever sensor is selected pulses at the rate of its selected channel.
func newRig(t *testing.T, script string) *rig {
	t.Helper()
	r := &rig{
		clk:     clock.NewFake(0),
		chip:    gpio.NewFakeChip(),
		out:     &bytes.Buffer{},
		pumpPWM: &actuator.FakePWM{},
		servo:   &actuator.FakePWM{},
		led:     &actuator.FakePWM{},
		pub:     mqtt.NewFakePublisher(),
		tracker: status.NewTracker(time.Now(), status.Config{Port: "-"}),
	}

	in := &eofReader{r: strings.NewReader(script), done: make(chan struct{})}
	r.dev = device.New(in, r.out, nil, 32)
	t.Cleanup(func() { r.dev.Close() })
	select {
	case <-in.done:
	case <-time.After(time.Second):
		require.FailNow(t, "command script not consumed")
	}

	type pins struct{ s2, s3, out int }
	layout := []pins{
		{gpio.DefaultSensor1S2, gpio.DefaultSensor1S3, gpio.DefaultSensor1Out},
		{gpio.DefaultSensor2S2, gpio.DefaultSensor2S3, gpio.DefaultSensor2Out},
	}
	mappings := []color.Mapping{color.StandardMapping, color.SwappedMapping}
	rate := map[color.Channel]int{color.Red: 4, color.Green: 4, color.Blue: 2, color.Clear: 9}

	var sensors [2]*color.Sensor
	for i, p := range layout {
		s2, err := r.chip.Output(p.s2)
		require.NoError(t, err)
		s3, err := r.chip.Output(p.s3)
		require.NoError(t, err)
		sensors[i] = color.NewSensor("rgb", s2, s3, mappings[i], r.clk)
		_, err = r.chip.WatchRising(p.out, sensors[i].Edge)
		require.NoError(t, err)
	}
	r.clk.OnAdvance = func(uint32) {
		for i, p := range layout {
			lv := color.Levels{S2: r.chip.Line(p.s2).Level(), S3: r.chip.Line(p.s3).Level()}
			for _, ch := range color.Channels {
				if mappings[i].Levels(ch) == lv {
					r.chip.Pulse(p.out, rate[ch])
				}
			}
		}
	}

	cal := actuator.NewCalibration([]actuator.CalPoint{{Speed: 0, FlowRate: 0}, {Speed: 80, FlowRate: 2.0}})
	pump := actuator.NewPump(r.pumpPWM, cal, 40)
	adc := &analog.FakeADC{Values: map[int]int{0: 4095 / 4}}

	r.reactor = reactor.New(reactor.Deps{
		Clock:      r.clk,
		Controller: logic.NewController(pump, actuator.NewServo(r.servo)),
		LED:        actuator.NewLED(r.led),
		Flow:       pump,
		Analog: analog.NewSampler(analog.NewAverager(adc, 4, 0),
			analog.Channels{Temperature: 0, UV: 1, Photodiode: 2, Turbidity: 3},
			analog.Converter{VRef: 3.3, Bits: 12}),
		Sensors: sensors,
		Device:  r.dev,
		Mirror:  r.pub,
		Tracker: r.tracker,
	})
	return r
}

// output splits the serial output into telemetry objects and advisory text.
func (r *rig) output(t *testing.T) ([]status.Telemetry, []string) {
	t.Helper()
	var tel []status.Telemetry
	var msgs []string
	for _, line := range strings.Split(strings.TrimSuffix(r.out.String(), "\n"), "\n") {
		if strings.HasPrefix(line, "{") {
			var v status.Telemetry
			require.NoError(t, json.Unmarshal([]byte(line), &v), "invalid telemetry %q", line)
			tel = append(tel, v)
			continue
		}
		msgs = append(msgs, line)
	}
	return tel, msgs
}

func TestIntegrationDosingSession(t *testing.T) {
	script := "led on at intensity:128\n" +
		"pump:0.5 at speed:80\n" +
		"pump2:0.2\n" +
		"led off\n"
	r := newRig(t, script)

	// Each cycle is eight 100 ms gate windows.
	//   t=0     led on
	//   t=800   pump 1: 0.5 mL at 2 mL/s, ends at 1050
	//   t=1600  pump 1 expires; pump 2: 0.2 mL at 0.5 mL/s, ends at 2000
	//   t=2400  pump 2 expires; led off
	for i := 0; i < 4; i++ {
		r.reactor.Cycle()
	}

	tel, msgs := r.output(t)
	require.Len(t, tel, 4)

	wantPump := []int{0, 1, 0, 0}
	wantPump2 := []int{0, 0, 1, 0}
	wantLED := []int{1, 1, 1, 0}
	for i := range tel {
		assert.Equal(t, wantPump[i], tel[i].Pump, "cycle %d pump", i)
		assert.Equal(t, wantPump2[i], tel[i].Pump2, "cycle %d pump2", i)
		assert.Equal(t, wantLED[i], tel[i].UVLed, "cycle %d uvLed", i)
	}
	assert.Equal(t, -1, tel[0].PumpSpeed)
	assert.Equal(t, 80, tel[1].PumpSpeed)
	assert.Equal(t, 80, tel[3].PumpSpeed)
	assert.Equal(t, float32(2), tel[1].FlowRate, "flow rate at speed 80")
	assert.Equal(t, 128, tel[3].UVIntensity, "intensity survives led off")

	assert.Equal(t, []string{
		"led on at intensity 128",
		"pump started: 0.5 mL at speed 80 for 250 ms",
		"pump2 started: 0.2 mL for 400 ms",
		"led off",
	}, msgs)

	assert.False(t, r.pumpPWM.Enabled, "pump idle")
	assert.False(t, r.servo.Enabled, "servo idle")
	assert.False(t, r.led.Enabled, "led idle")
}

func TestIntegrationColourTelemetry(t *testing.T) {
	r := newRig(t, "")

	r.reactor.Cycle()
	r.reactor.Cycle()

	tel, _ := r.output(t)
	require.Len(t, tel, 2)

	// 400 edges per window → 120, then 0.3*400 + 0.7*120
	assert.InDelta(t, 120, tel[0].Raw1R, 1e-3)
	assert.InDelta(t, 204, tel[1].Raw1R, 1e-3)
	assert.Equal(t, tel[1].Raw1C, tel[1].Raw2C, "both sensors see the same light")
	assert.Equal(t, tel[1].RGB1R, tel[1].RGB1G)
	assert.Greater(t, tel[1].RGB1R, tel[1].RGB1B)
	assert.InDelta(t, 32.5, tel[1].Temp, 0.5)
	assert.Zero(t, tel[1].Turbidity2, "turbidity2 must stay 0")
}

func TestIntegrationRejectionsAndSilence(t *testing.T) {
	script := "pump:1 at speed:95\n" + // rejected speed
		"pump:0\n" + // silent
		"pump:0\n" + // duplicate of the silent command
		"bogus\n" + // silent
		"led on at intensity:256\n" // rejected intensity
	r := newRig(t, script)

	for i := 0; i < 5; i++ {
		r.reactor.Cycle()
	}

	tel, msgs := r.output(t)
	assert.Equal(t, []string{
		logic.ErrPumpSpeed.Error(),
		logic.ErrDuplicate.Error(),
		logic.ErrLEDIntensity.Error(),
	}, msgs)
	for i, v := range tel {
		assert.Zero(t, v.Pump, "cycle %d: nothing should have started", i)
		assert.Zero(t, v.UVLed, "cycle %d: nothing should have started", i)
	}
	assert.Zero(t, r.pumpPWM.Writes, "pump driver should not have been touched")
}

func TestIntegrationMirrorMatchesSerial(t *testing.T) {
	r := newRig(t, "pump stop\n")

	r.reactor.Cycle()
	r.reactor.Cycle()

	var serial []string
	for _, l := range strings.Split(strings.TrimSuffix(r.out.String(), "\n"), "\n") {
		if strings.HasPrefix(l, "{") {
			serial = append(serial, l)
		}
	}
	require.Len(t, r.pub.Telemetry, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i], string(r.pub.Telemetry[i]), "payload %d", i)
	}
}

func TestIntegrationShutdownEvent(t *testing.T) {
	r := newRig(t, "pump:3\npump2:2\n")
	r.reactor.Cycle()
	r.reactor.Cycle()

	require.NoError(t, r.reactor.Shutdown())

	snap := r.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     "SIGTERM",
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"),
	}
	require.NoError(t, r.pub.PublishSystem(event))

	var parsed status.StatusJSON
	require.NoError(t, json.Unmarshal(r.pub.SystemPayloads[0], &parsed))
	assert.EqualValues(t, 2, parsed.Status.Cycles)
	require.NotNil(t, parsed.Status.Telemetry)
	assert.Equal(t, 1, parsed.Status.Telemetry.Pump2, "last telemetry should show pump2 dosing")
	assert.False(t, r.pumpPWM.Enabled, "shutdown should park both pumps")
	assert.False(t, r.servo.Enabled)
	assert.Equal(t, actuator.PulseForAngle(logic.Pump2NeutralAngle), r.servo.Duty, "servo neutral")
}
