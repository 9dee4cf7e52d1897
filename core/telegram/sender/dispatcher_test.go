package sender

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tele "gopkg.in/telebot.v4"
)

func TestDispatcherRunsEachJobOnce(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var results []error

	d := NewDispatcher(Options{
		Workers: 1,
		OnResult: func(action string, err error) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, err)
		},
	})

	boom := errors.New("boom")
	require.NoError(t, d.Enqueue(context.Background(), "relay", "sendMessage", func(context.Context) error {
		calls.Add(1)
		return boom
	}))
	require.NoError(t, d.Enqueue(context.Background(), "relay", "sendMessage", func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	d.Close()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
	require.Len(t, results, 2)
	assert.ErrorIs(t, results[0], boom)
	assert.NoError(t, results[1])
}

func TestDispatcherEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "relay", "", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestDispatcherQueueFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	defer d.Close()

	require.NoError(t, d.Enqueue(context.Background(), "block", "", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "queued", "", func(context.Context) error { return nil }))

	err := d.Enqueue(context.Background(), "overflow", "", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)
	close(release)
}

func TestDispatcherNilRun(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	defer d.Close()
	assert.Error(t, d.Enqueue(context.Background(), "relay", "", nil))
}

func TestDispatcherJobIgnoresCallerCancellation(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	require.NoError(t, d.Enqueue(ctx, "relay", "", func(jobCtx context.Context) error {
		ran.Store(true)
		return jobCtx.Err()
	}))
	d.Close()

	assert.True(t, ran.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherThrottle(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2, RatePerSecond: 20, Burst: 1})
	var stamps []time.Time
	var mu sync.Mutex
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Enqueue(context.Background(), "relay", "", func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			stamps = append(stamps, time.Now())
			return nil
		}))
	}
	d.Close()

	require.Len(t, stamps, 3)
	// Burst 1 at 20/s spaces three jobs by at least ~100ms in total.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"wrapped deadline", fmt.Errorf("throttle: %w", context.DeadlineExceeded), "timeout"},
		{"api 400", &tele.Error{Code: 400, Description: "Bad Request: chat not found"}, "http_4xx"},
		{"api 502", &tele.Error{Code: 502, Description: "Bad Gateway"}, "http_5xx"},
		{"api without code", &tele.Error{Description: "custom"}, "api"},
		{"status in message", errors.New("telegram: internal error (500)"), "http_5xx"},
		{"dns", &net.DNSError{Err: "no such host", Name: "api.telegram.org"}, "network"},
		{"dns timeout", &net.DNSError{Err: "timeout", IsTimeout: true}, "timeout"},
		{"plain", errors.New("nope"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	assert.NotPanics(t, d.Close)
}
