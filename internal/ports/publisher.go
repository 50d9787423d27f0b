package ports

import "context"

// QoS selects the delivery quality for one publish.
type QoS byte

const (
	// QoSAtMostOnce is fire-and-forget.
	QoSAtMostOnce QoS = 0
	// QoSAtLeastOnce waits for broker acknowledgment.
	QoSAtLeastOnce QoS = 1
)

// Publisher sends topic-addressed JSON payloads over a publish/subscribe link.
// Publish while the link is down is an error, never a retry.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(topic string, qos QoS, payload []byte) error
	Connected() bool
	Close()
}
