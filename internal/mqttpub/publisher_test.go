package mqttpub

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Fernanda3920/smokesense/internal/ports"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

// stuckToken never completes, to exercise the bounded connect wait.
type stuckToken struct{}

func (stuckToken) Wait() bool                     { select {} }
func (stuckToken) WaitTimeout(time.Duration) bool { return false }
func (stuckToken) Done() <-chan struct{}          { return make(chan struct{}) }
func (stuckToken) Error() error                   { return nil }

type fakeClient struct {
	connected  bool
	connectErr error
	publishErr error
	stuck      bool

	published []publishCall
}

type publishCall struct {
	topic   string
	qos     byte
	payload string
}

func (c *fakeClient) Connect() mqtt.Token {
	if c.stuck {
		return stuckToken{}
	}
	if c.connectErr == nil {
		c.connected = true
	}
	return newFakeToken(c.connectErr)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, publishCall{topic: topic, qos: qos, payload: string(payload.([]byte))})
	return newFakeToken(c.publishErr)
}

func (c *fakeClient) Disconnect(uint)   { c.connected = false }
func (c *fakeClient) IsConnected() bool { return c.connected }

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)            {}
func (nopObs) LogError(string, error, ...ports.Field)    {}
func (nopObs) LogCritical(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)                {}
func (nopObs) SetGauge(string, float64)                  {}
func (nopObs) ObserveLatency(string, float64)            {}

func newTestPublisher(c client) *Publisher {
	cfg := Config{BrokerURL: "tcp://broker:1883", ConnectTimeout: 100 * time.Millisecond}
	cfg.applyDefaults()
	return &Publisher{cfg: cfg, client: c, obs: nopObs{}}
}

func TestConnectSuccess(t *testing.T) {
	c := &fakeClient{}
	p := newTestPublisher(c)

	if err := p.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !p.Connected() {
		t.Fatalf("expected connected state after successful connect")
	}
}

func TestConnectError(t *testing.T) {
	c := &fakeClient{connectErr: errors.New("bad credentials")}
	p := newTestPublisher(c)

	if err := p.Connect(context.Background()); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestConnectBoundedWait(t *testing.T) {
	c := &fakeClient{stuck: true}
	p := newTestPublisher(c)

	start := time.Now()
	err := p.Connect(context.Background())
	if !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("expected ErrConnectTimeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("connect wait was not bounded")
	}
}

func TestPublishWhileDisconnected(t *testing.T) {
	c := &fakeClient{connected: false}
	p := newTestPublisher(c)

	err := p.Publish("arduino/anomalias", ports.QoSAtLeastOnce, []byte(`{}`))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if len(c.published) != 0 {
		t.Fatalf("payload must not reach the client while disconnected")
	}
}

func TestPublishAtLeastOnceWaitsForAck(t *testing.T) {
	c := &fakeClient{connected: true}
	p := newTestPublisher(c)

	if err := p.Publish("arduino/anomalias", ports.QoSAtLeastOnce, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(c.published) != 1 || c.published[0].qos != 1 {
		t.Fatalf("unexpected publish calls: %+v", c.published)
	}
}

func TestPublishAtLeastOnceSurfacesAckError(t *testing.T) {
	c := &fakeClient{connected: true, publishErr: errors.New("broker refused")}
	p := newTestPublisher(c)

	if err := p.Publish("t", ports.QoSAtLeastOnce, []byte(`{}`)); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestPublishFireAndForgetIgnoresAck(t *testing.T) {
	c := &fakeClient{connected: true, publishErr: errors.New("never checked")}
	p := newTestPublisher(c)

	if err := p.Publish("satnet/agrodrone/telemetry", ports.QoSAtMostOnce, []byte(`{}`)); err != nil {
		t.Fatalf("qos0 publish must not wait on the token: %v", err)
	}
	if c.published[0].qos != 0 {
		t.Fatalf("expected qos 0, got %d", c.published[0].qos)
	}
}
