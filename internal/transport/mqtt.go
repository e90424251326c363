package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/relicwatch/internal/config"
	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/model"
)

// MQTTChannel talks to the watch through an MQTT bridge. Outbound messages go
// to {prefix}/outbox, the bridge reports delivery on {prefix}/ack and
// forwards watch messages on {prefix}/inbox.
type MQTTChannel struct {
	log        *slog.Logger
	client     mqtt.Client
	qos        byte
	ackTimeout time.Duration
	backoff    connectBackoff

	outboxTopic string
	ackTopic    string
	inboxTopic  string

	mu      sync.Mutex
	pending map[string]chan Ack
	handler Handler
}

func NewMQTTChannel(log *slog.Logger, cfg *config.DeviceConfig) *MQTTChannel {
	c := &MQTTChannel{
		log:         log,
		qos:         cfg.QoS,
		ackTimeout:  cfg.AckTimeout,
		backoff:     connectBackoff{base: time.Second, limit: 30 * time.Second},
		outboxTopic: cfg.TopicPrefix + "/outbox",
		ackTopic:    cfg.TopicPrefix + "/ack",
		inboxTopic:  cfg.TopicPrefix + "/inbox",
		pending:     make(map[string]chan Ack),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = c.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.log.Warn("device channel connection lost", sl.Err(err))
	}

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect dials the broker, retrying with backoff until it succeeds or ctx
// is done.
func (c *MQTTChannel) Connect(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		token := c.client.Connect()
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		err := token.Error()
		if err == nil {
			return nil
		}

		c.log.Warn("device channel connect failed",
			slog.Int("attempt", attempt+1),
			sl.Err(err),
		)
		if err := c.backoff.sleep(ctx, attempt); err != nil {
			return err
		}
	}
}

func (c *MQTTChannel) onConnect(client mqtt.Client) {
	c.log.Info("device channel connected")

	subs := map[string]mqtt.MessageHandler{
		c.ackTopic:   func(_ mqtt.Client, m mqtt.Message) { c.resolve(m.Payload()) },
		c.inboxTopic: func(_ mqtt.Client, m mqtt.Message) { c.dispatch(m.Payload()) },
	}
	for topic, h := range subs {
		if token := client.Subscribe(topic, c.qos, h); token.Wait() && token.Error() != nil {
			c.log.Error("device channel subscribe failed", slog.String("topic", topic), sl.Err(token.Error()))
		} else {
			c.log.Debug("subscribed", slog.String("topic", topic))
		}
	}
}

func (c *MQTTChannel) Send(ctx context.Context, msg *model.Message) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	acks := make(chan Ack, 1)
	c.mu.Lock()
	c.pending[msg.ID] = acks
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.ID)
		c.mu.Unlock()
	}()

	if err := c.publish(ctx, msg); err != nil {
		return err
	}

	timer := time.NewTimer(c.ackTimeout)
	defer timer.Stop()

	select {
	case ack := <-acks:
		if !ack.OK {
			return fmt.Errorf("%w: %s", ErrNotAcknowledged, ack.Reason)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: no ack within %s", ErrNotAcknowledged, c.ackTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MQTTChannel) Post(ctx context.Context, msg *model.Message) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	return c.publish(ctx, msg)
}

func (c *MQTTChannel) publish(ctx context.Context, msg *model.Message) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	token := c.client.Publish(c.outboxTopic, c.qos, false, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// resolve routes an ack to the Send call waiting on it.
func (c *MQTTChannel) resolve(data []byte) {
	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		c.log.Warn("malformed ack from watch", sl.Err(err))
		return
	}

	c.mu.Lock()
	waiter, ok := c.pending[ack.ID]
	c.mu.Unlock()
	if !ok {
		c.log.Debug("ack for unknown message", slog.String("id", ack.ID))
		return
	}

	select {
	case waiter <- ack:
	default:
	}
}

func (c *MQTTChannel) dispatch(data []byte) {
	msg, err := model.MessageFromJSON(data)
	if err != nil {
		c.log.Warn("malformed message from watch", sl.Err(err))
		return
	}

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h == nil {
		c.log.Debug("no handler for watch message", slog.String("id", msg.ID))
		return
	}
	h(msg)
}

func (c *MQTTChannel) Subscribe(handler Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	return nil
}

func (c *MQTTChannel) Connected() bool {
	return c.client.IsConnectionOpen()
}

func (c *MQTTChannel) Close() error {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
	}
	return nil
}
