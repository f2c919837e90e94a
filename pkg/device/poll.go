package device

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poll triggers a measurement on c every interval and streams the captures.
// A failed measurement is delivered with Err set; the next tick is the retry.
// The channel is closed when ctx is done.
func Poll(ctx context.Context, c Capturer, interval, timeout time.Duration, logger *zap.Logger) <-chan Capture {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("poll")
	out := make(chan Capture, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			capture, err := c.Capture(ctx, timeout)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				logger.Warn("measurement failed", zap.Error(err))
				capture = Capture{Timestamp: time.Now(), Err: err}
			}

			select {
			case out <- capture:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
