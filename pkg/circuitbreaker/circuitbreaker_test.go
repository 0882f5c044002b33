package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func failing(context.Context) error { return errors.New("upstream down") }
func passing(context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 2, RecoveryTimeout: time.Minute, SuccessThreshold: 1}, clock.Now)
	ctx := context.Background()

	assert.Error(t, cb.Call(ctx, failing))
	assert.Equal(t, Closed, cb.State())
	assert.Error(t, cb.Call(ctx, failing))
	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not invoke fn")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 1}, clock.Now)
	ctx := context.Background()

	assert.Error(t, cb.Call(ctx, failing))
	assert.Equal(t, Open, cb.State())

	clock.t = clock.t.Add(time.Minute)
	assert.NoError(t, cb.Call(ctx, passing))
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 2}, clock.Now)
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	clock.t = clock.t.Add(2 * time.Minute)

	assert.Error(t, cb.Call(ctx, failing))
	assert.Equal(t, Open, cb.State())
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	notCounted := errors.New("client error")
	cb := newCircuitBreaker(&Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		SuccessThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, notCounted) },
	}, time.Now)

	err := cb.Call(context.Background(), func(context.Context) error { return notCounted })
	assert.ErrorIs(t, err, notCounted)
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Hour, SuccessThreshold: 1})
	_ = cb.Call(context.Background(), failing)
	assert.Equal(t, Open, cb.State())

	cb.Reset()
	assert.Equal(t, Closed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestCircuitBreaker_HalfOpenAdmitsOneTrialCall(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 1}, clock.Now)
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	clock.t = clock.t.Add(time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Call(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	called := false
	err := cb.Call(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "second call must not run while the trial is in flight")
	assert.Equal(t, HalfOpen, cb.State())

	close(release)
	assert.NoError(t, <-done)
	assert.Equal(t, Closed, cb.State())
	assert.NoError(t, cb.Call(ctx, passing))
}

func TestCircuitBreaker_HalfOpenNeedsSequentialSuccesses(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 2}, clock.Now)
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	clock.t = clock.t.Add(time.Minute)

	assert.NoError(t, cb.Call(ctx, passing))
	assert.Equal(t, HalfOpen, cb.State())
	assert.NoError(t, cb.Call(ctx, passing))
	assert.Equal(t, Closed, cb.State())
}
