package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/speedwagon-io/relicwatch/internal/config"
	"github.com/speedwagon-io/relicwatch/internal/lib/logger/sl"
	"github.com/speedwagon-io/relicwatch/internal/model"
)

func newTestChannel() *MQTTChannel {
	return NewMQTTChannel(sl.Discard(), &config.DeviceConfig{
		BrokerURL:   "tcp://127.0.0.1:1",
		ClientID:    "test",
		TopicPrefix: "test/watch",
		QoS:         1,
		AckTimeout:  time.Second,
	})
}

func TestMQTTChannelTopics(t *testing.T) {
	c := newTestChannel()
	if c.outboxTopic != "test/watch/outbox" || c.ackTopic != "test/watch/ack" || c.inboxTopic != "test/watch/inbox" {
		t.Errorf("unexpected topics: %s %s %s", c.outboxTopic, c.ackTopic, c.inboxTopic)
	}
}

func TestMQTTChannelSendWhileDisconnected(t *testing.T) {
	c := newTestChannel()
	msg := model.NewMessage(model.UpdateFreqMessage{Minutes: 5}.Payload())

	if err := c.Send(context.Background(), msg); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected from Send, got %v", err)
	}
	if err := c.Post(context.Background(), msg); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected from Post, got %v", err)
	}
	if c.Connected() {
		t.Error("expected channel to report disconnected")
	}
}

func TestMQTTChannelResolve(t *testing.T) {
	c := newTestChannel()
	waiter := make(chan Ack, 1)
	c.pending["m-1"] = waiter

	c.resolve([]byte(`{"id":"m-1","ok":false,"reason":"APP_MSG_BUSY"}`))

	select {
	case ack := <-waiter:
		if ack.OK || ack.Reason != "APP_MSG_BUSY" {
			t.Errorf("unexpected ack %+v", ack)
		}
	default:
		t.Fatal("expected ack to be delivered to waiter")
	}
}

func TestMQTTChannelResolveIgnoresUnknownAndMalformed(t *testing.T) {
	c := newTestChannel()
	waiter := make(chan Ack, 1)
	c.pending["m-1"] = waiter

	c.resolve([]byte(`{"id":"other","ok":true}`))
	c.resolve([]byte(`not json`))

	select {
	case ack := <-waiter:
		t.Fatalf("unexpected ack %+v", ack)
	default:
	}
}

func TestMQTTChannelResolveDoesNotBlockOnDuplicateAck(t *testing.T) {
	c := newTestChannel()
	c.pending["m-1"] = make(chan Ack, 1)

	done := make(chan struct{})
	go func() {
		c.resolve([]byte(`{"id":"m-1","ok":true}`))
		c.resolve([]byte(`{"id":"m-1","ok":true}`))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("duplicate ack blocked")
	}
}

func TestMQTTChannelDispatch(t *testing.T) {
	c := newTestChannel()

	// No handler yet: dropped without panicking.
	c.dispatch([]byte(`{"id":"w-1","payload":{"UPDATE_REQ_KEY":1}}`))

	got := make(chan *model.Message, 1)
	if err := c.Subscribe(func(msg *model.Message) { got <- msg }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	c.dispatch([]byte(`garbage`))
	c.dispatch([]byte(`{"id":"w-2","payload":{"UPDATE_REQ_KEY":1}}`))

	select {
	case msg := <-got:
		if msg.ID != "w-2" || !msg.RefreshRequested() {
			t.Errorf("unexpected message %+v", msg)
		}
	default:
		t.Fatal("expected handler to receive message")
	}
}

func TestMQTTChannelConnectHonorsContext(t *testing.T) {
	c := newTestChannel()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := c.Connect(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestLogChannel(t *testing.T) {
	c := NewLogChannel(sl.Discard())
	msg := model.NewMessage(model.IdleDeviceMessage("app").Payload())

	if err := c.Send(context.Background(), msg); err != nil {
		t.Errorf("send: %v", err)
	}
	if err := c.Post(context.Background(), msg); err != nil {
		t.Errorf("post: %v", err)
	}
	if !c.Connected() {
		t.Error("log channel should always report connected")
	}
}

func TestConnectBackoff(t *testing.T) {
	b := connectBackoff{base: time.Second, limit: 10 * time.Second}

	if d := b.delay(0); d < 900*time.Millisecond || d > 1100*time.Millisecond {
		t.Errorf("first delay out of jitter range: %s", d)
	}
	if d := b.delay(2); d < 3600*time.Millisecond || d > 4400*time.Millisecond {
		t.Errorf("third delay out of jitter range: %s", d)
	}

	for n := 0; n < 50; n++ {
		if d := b.delay(n); d > 10*time.Second {
			t.Fatalf("attempt %d exceeded limit: %s", n, d)
		}
	}
}

func TestConnectBackoffSleepHonorsContext(t *testing.T) {
	b := connectBackoff{base: time.Minute, limit: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.sleep(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
