// Package timers provides the periodic event sources that drive the clock
// refresh and the demo counter.  Each source is its own goroutine; the
// shared display bus is protected by the display's own lock, so a tick that
// fires while a button write is in progress waits rather than interleaving
// frames.
package timers

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missedTicksCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "missed_ticks",
		Help: "count of ticks that were generated but never received by anything",
	})

	tickDelayMetric = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tick_delay",
		Help:    "amount of time between an interval boundary and when the tick is sent to the channel, in nanoseconds",
		Buckets: prometheus.ExponentialBuckets(1000, 10, 20),
	})

	channelFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodic_channel_failures",
		Help: "count of periodic channels halted by a callback error",
	})
)

// Tick sends the current time to the provided channel at the exact instant
// each interval boundary passes.  An absent listener will not receive an
// outdated time; the tick is skipped and missedTicksCounter incremented.
// Cancelling the context causes this to return immediately.
func Tick(ctx context.Context, interval time.Duration, ch chan time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("tick interval %s must be positive", interval)
	}
	for {
		next := time.Now().Add(interval).Truncate(interval)

		// Wait until the next boundary.
		select {
		case <-time.After(time.Until(next)):
		case <-ctx.Done():
			return fmt.Errorf("waiting for next tick: %w", ctx.Err())
		}

		// Send the time to the channel, but don't hold a stale tick past
		// the middle of the interval.
		select {
		case <-time.After(interval / 2):
			missedTicksCounter.Inc()
		case <-ctx.Done():
			return fmt.Errorf("waiting to send tick: %w", ctx.Err())
		case ch <- next:
			tickDelayMetric.Observe(float64(time.Since(next).Nanoseconds()))
		}
	}
}

// Periodic invokes fn at every interval boundary until the context is
// cancelled or fn fails.  The first error halts this channel only and is
// returned to whoever installed it; other channels and the process keep
// running.
func Periodic(ctx context.Context, interval time.Duration, fn func() error) error {
	// Halting this channel also tears down its ticker.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tickCh := make(chan time.Time)
	tickErrCh := make(chan error)
	go func() {
		err := Tick(ctx, interval, tickCh)
		select {
		case tickErrCh <- err:
		case <-ctx.Done():
		}
		close(tickErrCh)
	}()

	for {
		select {
		case <-tickCh:
			if err := fn(); err != nil {
				channelFailures.Inc()
				return fmt.Errorf("periodic callback: %w", err)
			}
		case err := <-tickErrCh:
			if err == nil {
				// The ticker goroutine was cancelled before it could
				// report why.
				err = ctx.Err()
			}
			return fmt.Errorf("ticker: %w", err)
		}
	}
}
