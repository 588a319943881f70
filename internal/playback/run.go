package playback

import (
	"context"
	"time"

	"github.com/iksnae/deskcorder/internal"
)

// Run plays c to the end, ticking every interval with the measured elapsed
// time. It returns when playback stops, a tick fails, or ctx is done; a
// cancelled context stops playback at the next tick boundary.
func Run(ctx context.Context, c *Controller, sink Sink, interval time.Duration) error {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	if c.State() == Stopped {
		if err := c.Play(); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			if err := c.Stop(); err != nil {
				internal.LogWarn("stopping playback: %v", err)
			}
			return ctx.Err()
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			if err := c.Tick(delta, sink); err != nil {
				internal.LogError("playback failed: %v", err)
				return err
			}
			if c.State() == Stopped {
				return nil
			}
		}
	}
}
