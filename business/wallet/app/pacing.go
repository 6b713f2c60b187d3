package app

import (
	"context"
	"time"
)

// slowDown pauses between steps for the configured interval.
func (s *Session) slowDown(ctx context.Context) error {
	return pause(ctx, s.cfg.SlowDown)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
