package pacer

import (
	"context"
	"time"
)

// Pacer enforces a sequencing policy between consecutive outbound calls.
// The bulk action processor pauses through it after each email send to stay
// inside the provider's rate limit.
type Pacer interface {
	Pause(ctx context.Context)
}

// Fixed pauses for a constant interval. The sleep function is injectable so
// tests can run with a fake clock.
type Fixed struct {
	delay time.Duration
	sleep func(time.Duration)
}

// NewFixed builds a fixed-interval pacer.
func NewFixed(delay time.Duration) *Fixed {
	return &Fixed{delay: delay, sleep: time.Sleep}
}

// NewFixedWithSleep builds a fixed-interval pacer with a custom sleep
// function.
func NewFixedWithSleep(delay time.Duration, sleep func(time.Duration)) *Fixed {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Fixed{delay: delay, sleep: sleep}
}

// Pause waits out the configured interval. A cancelled context shortens the
// wait but never fails: batches run to completion regardless.
func (f *Fixed) Pause(ctx context.Context) {
	if f.delay <= 0 {
		return
	}
	if ctx.Err() != nil {
		return
	}
	f.sleep(f.delay)
}

// Noop never pauses.
type Noop struct{}

// Pause implements Pacer.
func (Noop) Pause(context.Context) {}
