package messagepipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/illmade-knight/go-jobsink/pkg/messagepipeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDutyCycle_AlternatesUntilCancelled(t *testing.T) {
	consumer := NewMockMessageConsumer(1)
	cycle := messagepipeline.DutyCycle{ClosedFor: 5 * time.Millisecond, OpenFor: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- messagepipeline.RunDutyCycle(ctx, consumer, cycle, zerolog.Nop()) }()

	require.Eventually(t, func() bool { return consumer.GetCloseCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("duty cycle did not return after cancellation")
	}

	assert.False(t, consumer.IsOpen(), "subscription must be closed when the loop exits")
	events := consumer.Events()
	for i, e := range events {
		if i%2 == 0 {
			assert.Equal(t, "open", e)
		} else {
			assert.Equal(t, "close", e)
		}
	}
}

func TestRunDutyCycle_OpenErrorIsNotFatal(t *testing.T) {
	consumer := NewMockMessageConsumer(1)
	consumer.SetOpenError(errors.New("permission denied"))
	cycle := messagepipeline.DutyCycle{ClosedFor: time.Millisecond, OpenFor: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- messagepipeline.RunDutyCycle(ctx, consumer, cycle, zerolog.Nop()) }()

	require.Eventually(t, func() bool { return consumer.GetOpenCount() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 0, consumer.GetCloseCount())
}

func TestRunDutyCycle_CancelledWhileClosed(t *testing.T) {
	consumer := NewMockMessageConsumer(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := messagepipeline.RunDutyCycle(ctx, consumer, messagepipeline.DefaultDutyCycle(), zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, consumer.GetOpenCount())
}

func TestDefaultDutyCycle(t *testing.T) {
	c := messagepipeline.DefaultDutyCycle()
	assert.Equal(t, 2*time.Second, c.ClosedFor)
	assert.Equal(t, 10*time.Second, c.OpenFor)
}
