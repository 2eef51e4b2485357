package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedPauseUsesConfiguredDelay(t *testing.T) {
	var slept []time.Duration
	p := NewFixedWithSleep(600*time.Millisecond, func(d time.Duration) {
		slept = append(slept, d)
	})

	p.Pause(context.Background())
	p.Pause(context.Background())

	assert.Equal(t, []time.Duration{600 * time.Millisecond, 600 * time.Millisecond}, slept)
}

func TestFixedPauseZeroDelayIsNoop(t *testing.T) {
	called := false
	p := NewFixedWithSleep(0, func(time.Duration) { called = true })

	p.Pause(context.Background())

	assert.False(t, called)
}

func TestFixedPauseSkipsWhenContextCancelled(t *testing.T) {
	called := false
	p := NewFixedWithSleep(time.Second, func(time.Duration) { called = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Pause(ctx)

	assert.False(t, called)
}
