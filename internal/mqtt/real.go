package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 2 * time.Second

	// DefaultBacklog is how many messages are kept while disconnected.
	DefaultBacklog = 300
)

// Options configures a RealPublisher.
type Options struct {
	Broker         string
	ClientID       string
	TelemetryTopic string
	SystemTopic    string
	Backlog        int

	// OnConnectionChange, if set, is called on connect and on loss.
	OnConnectionChange func(connected bool)
}

func (o *Options) defaults() {
	if o.ClientID == "" {
		o.ClientID = DefaultClientID
	}
	if o.TelemetryTopic == "" {
		o.TelemetryTopic = DefaultTelemetryTopic
	}
	if o.SystemTopic == "" {
		o.SystemTopic = DefaultSystemTopic
	}
	if o.Backlog == 0 {
		o.Backlog = DefaultBacklog
	}
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while disconnected are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	opts   Options

	mu        sync.Mutex
	connected bool // set by onConnect, cleared by onLost
	pending   *backlog
}

// NewRealPublisher connects to opts.Broker. If the first connection attempt
// does not complete within the connect timeout the publisher keeps retrying
// in the background and buffers until it succeeds.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	opts.defaults()
	p := &RealPublisher{opts: opts, pending: newBacklog(opts.Backlog)}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(opts.SystemTopic, will, 1, false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onLost)

	p.client = paho.NewClient(co)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: %s not reachable yet, buffering", opts.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	msgs, dropped := p.pending.take()
	p.connected = true
	p.mu.Unlock()

	if len(msgs) > 0 || dropped > 0 {
		log.Printf("mqtt: connected, replaying %d buffered messages (%d dropped)", len(msgs), dropped)
	}
	for _, m := range msgs {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if p.opts.OnConnectionChange != nil {
		p.opts.OnConnectionChange(true)
	}
}

func (p *RealPublisher) onLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()

	log.Printf("mqtt: connection lost: %v", err)
	if p.opts.OnConnectionChange != nil {
		p.opts.OnConnectionChange(false)
	}
}

// IsConnected reports whether the client currently has a broker session.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// publish queues m until onConnect has replayed the backlog, so nothing
// queued can miss the replay.
func (p *RealPublisher) publish(m message) error {
	p.mu.Lock()
	if !p.connected {
		p.pending.add(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", m.topic, err)
	}
	return nil
}

// PublishTelemetry sends one telemetry line at QoS 0.
func (p *RealPublisher) PublishTelemetry(payload []byte) error {
	return p.publish(message{topic: p.opts.TelemetryTopic, payload: payload})
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: p.opts.SystemTopic, payload: payload, qos: 1, retained: event.Retained})
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
