// Command dye-reactor runs the photochemical dye reactor: it samples two
// colour sensors and the analog sensors, doses from two pumps on serial
// command, and streams telemetry back over the serial link.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reef-pi/rpi/pwm"
	"github.com/sweeney/dye-reactor/internal/actuator"
	"github.com/sweeney/dye-reactor/internal/analog"
	"github.com/sweeney/dye-reactor/internal/clock"
	"github.com/sweeney/dye-reactor/internal/color"
	"github.com/sweeney/dye-reactor/internal/config"
	"github.com/sweeney/dye-reactor/internal/device"
	"github.com/sweeney/dye-reactor/internal/gpio"
	"github.com/sweeney/dye-reactor/internal/logic"
	"github.com/sweeney/dye-reactor/internal/mqtt"
	"github.com/sweeney/dye-reactor/internal/reactor"
	"github.com/sweeney/dye-reactor/internal/status"
)

func main() {
	cfgPath := flag.String("config", "/etc/dye-reactor.yaml", "YAML configuration file (missing file uses defaults)")
	port := flag.String("port", "", `serial port, "-" for stdin/stdout (overrides config)`)
	broker := flag.String("broker", "", "MQTT broker address, empty disables (overrides config)")
	printState := flag.Bool("print-state", false, "Acquire one colour reading per sensor, print it and exit")
	listPorts := flag.Bool("list-ports", false, "List serial ports and exit")

	flag.Parse()

	if *listPorts {
		ports, err := device.Ports()
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, printState bool) error {
	chip, err := gpio.NewRealChip(cfg.GPIO.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	clk := clock.NewReal(0)
	sensors, err := wireSensors(chip, cfg.Sensors, clk)
	if err != nil {
		return err
	}

	if printState {
		rd, err := reactor.New(reactor.Deps{Sensors: sensors}).Acquire()
		if err != nil {
			return fmt.Errorf("acquire: %w", err)
		}
		printReadings(os.Stdout, rd)
		return nil
	}

	hw, err := openActuators(cfg)
	if err != nil {
		return err
	}
	defer hw.Close()

	dev, err := openDevice(cfg.Serial)
	if err != nil {
		return err
	}
	defer dev.Close()

	var sampler reactor.AnalogReader
	if cfg.Analog.Device != "" {
		s, err := openAnalog(cfg.Analog)
		if err != nil {
			return err
		}
		sampler = s
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Port:   cfg.Serial.Port,
		Broker: cfg.MQTT.Broker,
	})

	var publisher mqtt.Publisher
	var mirror reactor.Mirror
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID,
			TelemetryTopic:     cfg.MQTT.TelemetryTopic,
			SystemTopic:        cfg.MQTT.SystemTopic,
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mirror, mqttStatus = p, p, p
	}

	ctrl := logic.NewController(hw.pump, hw.servo)
	r := reactor.New(reactor.Deps{
		Clock:      clk,
		Controller: ctrl,
		LED:        hw.led,
		Flow:       hw.pump,
		Analog:     sampler,
		Sensors:    sensors,
		Device:     dev,
		Mirror:     mirror,
		Tracker:    tracker,
		FinalDelay: cfg.Loop.FinalDelay,
	})

	publishSystem(publisher, tracker, "STARTUP", "")
	log.Printf("started: port=%s broker=%q final_delay=%v", cfg.Serial.Port, cfg.MQTT.Broker, cfg.Loop.FinalDelay)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(r, publisher, mqttStatus, tracker, sigCh)
}

// Cycler is the control loop as seen by runLoop.
type Cycler interface {
	Cycle() status.Telemetry
	Shutdown() error
}

// runLoop cycles until a signal arrives, then parks the actuators and
// publishes a SHUTDOWN event. A signal is noticed between cycles.
func runLoop(r Cycler, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if err := r.Shutdown(); err != nil {
				log.Printf("shutdown: %v", err)
			}
			if mqttStatus != nil && tracker != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
			publishSystem(publisher, tracker, "SHUTDOWN", signalName(s))
			return nil
		default:
		}
		r.Cycle()
	}
}

func publishSystem(publisher mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	if publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		snap := tracker.Snapshot()
		e.Timestamp = snap.Now
		e.RawPayload = status.FormatStatusEvent(snap, event, reason)
	}
	if err := publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// wireSensors requests the select, scaling and OUT lines of both sensors
// and routes each OUT edge to its sensor's counter.
func wireSensors(chip gpio.Chip, cfgs []config.SensorConfig, clk clock.Clock) ([2]*color.Sensor, error) {
	var sensors [2]*color.Sensor
	if len(cfgs) != len(sensors) {
		return sensors, fmt.Errorf("expected %d sensors, got %d", len(sensors), len(cfgs))
	}
	for i, sc := range cfgs {
		name := fmt.Sprintf("rgb%d", i+1)
		mapping, err := color.MappingByName(sc.Mapping)
		if err != nil {
			return sensors, fmt.Errorf("%s: %w", name, err)
		}
		scaling, err := color.ScalingByPercent(sc.Scaling)
		if err != nil {
			return sensors, fmt.Errorf("%s: %w", name, err)
		}

		var lines [4]gpio.Line
		for j, off := range []int{sc.S0, sc.S1, sc.S2, sc.S3} {
			l, err := chip.Output(off)
			if err != nil {
				return sensors, fmt.Errorf("%s: request line %d: %w", name, off, err)
			}
			lines[j] = l
		}
		if err := color.SetScaling(lines[0], lines[1], scaling); err != nil {
			return sensors, fmt.Errorf("%s: %w", name, err)
		}

		s := color.NewSensor(name, lines[2], lines[3], mapping, clk)
		if _, err := chip.WatchRising(sc.Out, s.Edge); err != nil {
			return sensors, fmt.Errorf("%s: watch line %d: %w", name, sc.Out, err)
		}
		sensors[i] = s
	}
	return sensors, nil
}

type actuators struct {
	pwms  []actuator.PWM
	pump  *actuator.Pump
	servo *actuator.Servo
	led   *actuator.LED
}

func (a *actuators) Close() error {
	var errs []error
	for _, p := range a.pwms {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

func openActuators(cfg *config.Config) (*actuators, error) {
	a := &actuators{}
	drv := pwm.New()
	open := func(what string, pc config.PWMConfig) (actuator.PWM, error) {
		p, err := actuator.OpenChannel(drv, pc.Channel)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init %s pwm: %w", what, err)
		}
		a.pwms = append(a.pwms, p)
		return p, nil
	}

	pumpPWM, err := open("pump", cfg.Pump.PWM)
	if err != nil {
		return nil, err
	}
	servoPWM, err := open("pump2", cfg.Pump2)
	if err != nil {
		return nil, err
	}
	ledPWM, err := open("led", cfg.LED)
	if err != nil {
		return nil, err
	}

	a.pump = actuator.NewPump(pumpPWM, calibration(cfg.Pump.Calibration), cfg.Pump.DefaultSpeed)
	a.servo = actuator.NewServo(servoPWM)
	a.led = actuator.NewLED(ledPWM)
	return a, nil
}

func calibration(points []config.CalibrationPoint) *actuator.Calibration {
	cps := make([]actuator.CalPoint, len(points))
	for i, p := range points {
		cps[i] = actuator.CalPoint{Speed: p.Speed, FlowRate: p.FlowRate}
	}
	return actuator.NewCalibration(cps)
}

func openDevice(sc config.SerialConfig) (*device.Line, error) {
	if sc.Port == "-" {
		return device.OpenStdio(), nil
	}
	dev, err := device.Open(sc.Port, sc.Baud)
	if err != nil {
		return nil, fmt.Errorf("init serial: %w", err)
	}
	return dev, nil
}

func openAnalog(ac config.AnalogConfig) (*analog.Sampler, error) {
	adc, err := analog.OpenIIO(ac.Device)
	if err != nil {
		return nil, fmt.Errorf("init analog: %w", err)
	}
	for ch, points := range ac.Calibration {
		pin, err := adc.AnalogInputPin(ch)
		if err != nil {
			return nil, fmt.Errorf("init analog: %w", err)
		}
		if err := pin.Calibrate(points); err != nil {
			return nil, fmt.Errorf("init analog: %w", err)
		}
	}
	return analog.NewSampler(
		analog.NewAverager(adc, ac.Samples, ac.Delay),
		analog.Channels{
			Temperature: ac.Temperature,
			UV:          ac.UV,
			Photodiode:  ac.Photodiode,
			Turbidity:   ac.Turbidity,
		},
		analog.Converter{VRef: ac.VRef, Bits: ac.Bits},
	), nil
}

func printReadings(w io.Writer, rd [2]color.Reading) {
	for i, r := range rd {
		fmt.Fprintf(w, "rgb%d: R=%d G=%d B=%d raw r=%.1f g=%.1f b=%.1f c=%.1f\n", i+1,
			r.R, r.G, r.B,
			r.Raw[color.Red], r.Raw[color.Green], r.Raw[color.Blue], r.Raw[color.Clear])
	}
}
