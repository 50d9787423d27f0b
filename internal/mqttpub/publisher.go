// Package mqttpub adapts an MQTT client to the pipeline's Publisher port.
// The broker is typically Flespi, which authenticates with a token passed
// as the username.
package mqttpub

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Fernanda3920/smokesense/internal/observability"
	"github.com/Fernanda3920/smokesense/internal/ports"
)

// ErrNotConnected is returned by Publish while the link is down. The attempt
// is an error by contract; it is never queued or retried.
var ErrNotConnected = errors.New("mqttpub: not connected to broker")

// ErrConnectTimeout is returned when the broker does not acknowledge the
// connection within the configured bound.
var ErrConnectTimeout = errors.New("mqttpub: connect timeout")

// Config holds the broker connection details. Credentials and topics are
// external configuration, not part of the pipeline contract.
type Config struct {
	BrokerURL      string
	Token          string
	ClientID       string
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	KeepAlive      time.Duration
}

func (c *Config) applyDefaults() {
	if c.ClientID == "" {
		c.ClientID = fmt.Sprintf("smokesense-%d", time.Now().Unix())
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 60 * time.Second
	}
}

// client is the slice of mqtt.Client the publisher needs; narrowed so tests
// can substitute a fake.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

type Publisher struct {
	cfg    Config
	client client
	obs    ports.Observability
}

// New builds a publisher around a real paho client. The connection-state
// callbacks registered here keep the connected gauge current; the delivery
// loop itself runs on the client's own goroutines.
func New(cfg Config, obs ports.Observability) *Publisher {
	cfg.applyDefaults()
	p := &Publisher{cfg: cfg, obs: obs}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername("FlespiToken " + cfg.Token).
		SetPassword("").
		SetKeepAlive(cfg.KeepAlive).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		p.obs.SetGauge(observability.MetricMQTTConnected, 1)
		p.obs.LogInfo("mqtt_connected", ports.Field{Key: "broker", Value: cfg.BrokerURL})
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.obs.SetGauge(observability.MetricMQTTConnected, 0)
		p.obs.LogError("mqtt_connection_lost", err)
	})

	p.client = mqtt.NewClient(opts)
	return p
}

// Connect dials the broker and waits up to the configured bound for the
// acknowledgment. The context can cut the wait short.
func (p *Publisher) Connect(ctx context.Context) error {
	tok := p.client.Connect()

	timer := time.NewTimer(p.cfg.ConnectTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrConnectTimeout, p.cfg.ConnectTimeout)
	case <-tok.Done():
	}

	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Publish sends one payload. QoS 0 is fire-and-forget; QoS 1 waits for the
// broker acknowledgment within the publish timeout.
func (p *Publisher) Publish(topic string, qos ports.QoS, payload []byte) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}

	tok := p.client.Publish(topic, byte(qos), false, payload)
	if qos == ports.QoSAtMostOnce {
		return nil
	}

	if !tok.WaitTimeout(p.cfg.PublishTimeout) {
		return fmt.Errorf("mqttpub: publish to %s not acknowledged within %s", topic, p.cfg.PublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Connected() bool {
	return p.client.IsConnected()
}

// Close disconnects after letting in-flight work quiesce.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
	p.obs.SetGauge(observability.MetricMQTTConnected, 0)
}

var _ ports.Publisher = (*Publisher)(nil)
