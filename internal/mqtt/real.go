package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/sweeney/relay-driver/internal/relay"
)

// outboxLimit is the number of messages kept while disconnected.
const outboxLimit = 100

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down wait in an outbox and
// are replayed in order once the client reconnects.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	outbox    *outbox
	connected bool
	connects  int
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting. A broker that is not reachable within the timeout is not an
// error: the client keeps retrying and events queue in the outbox meanwhile.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := newRealPublisher()

	will, err := FormatSystemPayload(WillEvent(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.WithField("broker", broker).Warn("mqtt: connection timeout, retrying in background")
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

func newRealPublisher() *RealPublisher {
	return &RealPublisher{outbox: newOutbox(outboxLimit)}
}

// onConnect replays the outbox with p.mu held, so a concurrent send cannot
// overtake an older queued message on the same retained topic.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connected = true
	p.connects++
	pending, dropped := p.outbox.take()

	log.WithFields(log.Fields{"queued": len(pending), "dropped": dropped}).Info("mqtt: connected")

	if p.connects > 1 {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(TopicSystem, 1, false, payload)
	}
	for _, msg := range pending {
		c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.WithError(err).Warn("mqtt: connection lost")
}

// Publish sends a relay state event. State messages are retained so new
// subscribers see the current state.
func (p *RealPublisher) Publish(event relay.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(pendingMsg{topic: StateTopic(event.Pin), payload: payload, retained: true})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for system events
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// send hands msg to the client, or queues it while disconnected. The
// hand-off happens under p.mu so publishes reach paho in call order; only
// the wait for the broker happens outside it.
func (p *RealPublisher) send(msg pendingMsg) error {
	p.mu.Lock()
	if !p.connected {
		p.outbox.add(msg)
		p.mu.Unlock()
		return nil
	}
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	p.mu.Unlock()

	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the client currently holds a broker connection.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
