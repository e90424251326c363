// Package transport carries app messages between the relay and the watch.
package transport

import (
	"context"
	"errors"

	"github.com/speedwagon-io/relicwatch/internal/model"
)

var (
	ErrNotAcknowledged = errors.New("watch did not acknowledge message")
	ErrNotConnected    = errors.New("device channel not connected")
)

// Handler receives messages sent by the watch.
type Handler func(msg *model.Message)

type Channel interface {
	// Send delivers msg and waits for the watch to acknowledge it. A nil
	// error means the watch acked.
	Send(ctx context.Context, msg *model.Message) error
	// Post hands msg to the channel without waiting for an acknowledgment.
	Post(ctx context.Context, msg *model.Message) error
	Subscribe(handler Handler) error
	Connected() bool
	Close() error
}

// Ack is the watch bridge's answer to a sent message.
type Ack struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}
