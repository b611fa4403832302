// Package progress runs a cosmetic progress indicator while slow work runs.
package progress

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultInterval is the pause between indicator updates.
const DefaultInterval = 200 * time.Millisecond

// Bar receives indicator values in 0..100.
type Bar interface {
	Set(percent int)
}

// Run calls fn on the calling goroutine while a background task advances bar
// every interval, wrapping at 100. When fn returns the task is cancelled and
// joined, the bar is set to 100, and fn's error is returned. The background
// task touches nothing but bar.
func Run(ctx context.Context, bar Bar, interval time.Duration, fn func(ctx context.Context) error) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	tickCtx, stop := context.WithCancel(ctx)
	defer stop()

	var g errgroup.Group
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	g.Go(func() error {
		for i := 0; ; i++ {
			if err := limiter.Wait(tickCtx); err != nil {
				return nil
			}
			bar.Set(i % 100)
		}
	})

	err := fn(ctx)
	stop()
	_ = g.Wait()
	bar.Set(100)
	return err
}
