package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"saferoute-api/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(2, 10, time.Second)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.True(t, d.Submit("count", func(context.Context) { ran.Add(1) }))
	}
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int32(5), ran.Load())
}

func TestDispatcherSubmitNeverBlocks(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := NewDispatcher(1, 1, time.Second, WithMetrics(m))

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, d.Submit("blocker", func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.True(t, d.Submit("queued", func(context.Context) {}))

	done := make(chan bool)
	go func() { done <- d.Submit("overflow", func(context.Context) {}) }()
	select {
	case accepted := <-done:
		assert.False(t, accepted, "full queue drops the task")
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("dropped")))

	close(release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcherAppliesTaskTimeout(t *testing.T) {
	d := NewDispatcher(1, 1, 20*time.Millisecond)

	errCh := make(chan error, 1)
	d.Submit("slow", func(ctx context.Context) {
		<-ctx.Done()
		errCh <- ctx.Err()
	})
	require.NoError(t, d.Close(context.Background()))
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	d := NewDispatcher(1, 4, time.Second, WithMetrics(m))

	var after atomic.Bool
	d.Submit("boom", func(context.Context) { panic("smtp exploded") })
	d.Submit("after", func(context.Context) { after.Store(true) })
	require.NoError(t, d.Close(context.Background()))

	assert.True(t, after.Load(), "worker survives a panicking task")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("panicked")))
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(1, 1, time.Second)
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()), "close is idempotent")
	assert.False(t, d.Submit("late", func(context.Context) {}))
}

func TestDispatcherCloseHonoursDeadline(t *testing.T) {
	d := NewDispatcher(1, 1, time.Minute)
	started := make(chan struct{})
	d.Submit("stubborn", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Close(ctx), context.DeadlineExceeded)
}
