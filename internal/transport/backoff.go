package transport

import (
	"context"
	"math/rand"
	"time"
)

// connectBackoff spaces out broker connection attempts: the delay doubles
// from base up to limit, with ±10% jitter.
type connectBackoff struct {
	base  time.Duration
	limit time.Duration
}

const backoffJitter = 0.1

// delay returns the pause after failed attempt n, counting from zero.
func (b connectBackoff) delay(n int) time.Duration {
	d := b.base
	for i := 0; i < n && d < b.limit; i++ {
		d *= 2
	}
	d = min(d, b.limit)

	spread := float64(d) * backoffJitter * (2*rand.Float64() - 1)
	return min(d+time.Duration(spread), b.limit)
}

// sleep waits out the delay for attempt n. It returns early with ctx's error
// when ctx is done.
func (b connectBackoff) sleep(ctx context.Context, n int) error {
	t := time.NewTimer(b.delay(n))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
