package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/turn-indicator/internal/logsink"
	"github.com/sweeney/turn-indicator/internal/ringbuf"
)

const (
	publishTimeout = 5 * time.Second
	bufferSize     = 500
)

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger
	now    func() time.Time

	mu      sync.Mutex
	pending *ringbuf.Buffer[bufferedMsg]
	// replaying is set while onConnect drains pending; new messages queue
	// behind the backlog instead of overtaking it.
	replaying bool
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is established in the background and retried until Close.
func NewRealPublisher(broker, clientID string, log *zap.SugaredLogger) *RealPublisher {
	p := newPublisher(nil, log)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warnw("mqtt connection lost", "err", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newPublisher(client paho.Client, log *zap.SugaredLogger) *RealPublisher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RealPublisher{
		client:  client,
		log:     log,
		now:     time.Now,
		pending: ringbuf.New[bufferedMsg](bufferSize),
	}
}

// WriteLine sends a log line to the MQTT broker.
func (p *RealPublisher) WriteLine(line logsink.Line) error {
	payload, err := FormatLogPayload(line)
	if err != nil {
		return fmt.Errorf("format log payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.publish(bufferedMsg{topic: TopicLog, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	p.mu.Lock()
	if p.replaying || !p.client.IsConnectionOpen() {
		if !p.pending.Push(msg) {
			p.log.Debugw("mqtt buffer full, dropped oldest", "capacity", bufferSize)
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(msg)
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays buffered messages and announces the reconnection.
// Messages published during the replay are queued and sent after the
// backlog, so the broker sees them in publish order.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.replaying = true
	p.mu.Unlock()

	replayed := 0
	for {
		p.mu.Lock()
		msgs := p.pending.DrainAll()
		if len(msgs) == 0 {
			p.replaying = false
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		for _, msg := range msgs {
			if err := p.send(msg); err != nil {
				p.log.Warnw("mqtt replay failed", "topic", msg.topic, "err", err)
			}
		}
		replayed += len(msgs)
	}
	p.log.Infow("mqtt connected", "replay", replayed)

	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
	if err := p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
		p.log.Warnw("mqtt reconnect announce failed", "err", err)
	}
}

// Pending returns the number of messages waiting for a connection.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.Len()
}

// IsConnected reports whether the broker connection is open.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
