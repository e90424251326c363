package health

import "context"

// ChannelChecker reports whether the watch channel is connected. A dropped
// connection degrades the relay; paho reconnects on its own.
type ChannelChecker struct {
	connected func() bool
}

func NewChannelChecker(connected func() bool) *ChannelChecker {
	return &ChannelChecker{connected: connected}
}

func (c *ChannelChecker) Name() string {
	return "device_channel"
}

func (c *ChannelChecker) Check(context.Context) (Status, string) {
	if !c.connected() {
		return StatusDegraded, "not connected"
	}
	return StatusHealthy, ""
}

type StoreChecker struct {
	ping func(ctx context.Context) error
}

func NewStoreChecker(ping func(ctx context.Context) error) *StoreChecker {
	return &StoreChecker{ping: ping}
}

func (c *StoreChecker) Name() string {
	return "store"
}

func (c *StoreChecker) Check(ctx context.Context) (Status, string) {
	if err := c.ping(ctx); err != nil {
		return StatusUnhealthy, err.Error()
	}
	return StatusHealthy, ""
}

// SyncChecker degrades while an interval update is still waiting for the
// watch to acknowledge it.
type SyncChecker struct {
	pending func() bool
}

func NewSyncChecker(pending func() bool) *SyncChecker {
	return &SyncChecker{pending: pending}
}

func (c *SyncChecker) Name() string {
	return "config_sync"
}

func (c *SyncChecker) Check(context.Context) (Status, string) {
	if c.pending() {
		return StatusDegraded, "interval not yet acknowledged"
	}
	return StatusHealthy, ""
}
