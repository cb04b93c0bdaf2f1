package workflow

import (
	"context"
	"sync"
	"time"
)

// Countdown is the advisory resend timer shown next to the code input. It
// never gates submission; reaching zero only allows a resend.
type Countdown struct {
	mu        sync.Mutex
	window    time.Duration
	remaining time.Duration
	interval  time.Duration
}

// NewCountdown starts a countdown at window, truncated to whole seconds.
func NewCountdown(window time.Duration) *Countdown {
	window = window.Truncate(time.Second)
	if window < 0 {
		window = 0
	}
	return &Countdown{window: window, remaining: window, interval: time.Second}
}

// Tick advances the countdown by one second and returns what is left.
func (c *Countdown) Tick() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining -= time.Second
	}
	return c.remaining
}

func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) CanResend() bool {
	return c.Remaining() == 0
}

// Reset restarts the countdown from the full window.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = c.window
}

// Run ticks once per interval until the countdown reaches zero or ctx is
// done. onTick, if set, receives the remaining time after every tick.
func (c *Countdown) Run(ctx context.Context, onTick func(time.Duration)) {
	if c.CanResend() {
		return
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			left := c.Tick()
			if onTick != nil {
				onTick(left)
			}
			if left == 0 {
				return
			}
		}
	}
}
