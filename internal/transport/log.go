package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/speedwagon-io/relicwatch/internal/model"
)

// LogChannel logs messages instead of delivering them and acks every send.
// Used for dry runs.
type LogChannel struct {
	log *slog.Logger
}

func NewLogChannel(log *slog.Logger) *LogChannel {
	return &LogChannel{log: log}
}

func (c *LogChannel) Send(ctx context.Context, msg *model.Message) error {
	return c.write("SEND", msg)
}

func (c *LogChannel) Post(ctx context.Context, msg *model.Message) error {
	return c.write("POST", msg)
}

func (c *LogChannel) write(op string, msg *model.Message) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	c.log.Info(op,
		slog.String("id", msg.ID),
		slog.String("payload", string(data)),
	)
	return nil
}

// Subscribe accepts the handler but the log channel never receives anything.
func (c *LogChannel) Subscribe(Handler) error { return nil }

func (c *LogChannel) Connected() bool { return true }

func (c *LogChannel) Close() error { return nil }
