// Package sender runs outbound Bot API calls off the update goroutine.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/infobot/core/logger"
	"golang.org/x/time/rate"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the queue has no room for the job.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the outbound dispatcher. Zero values pick defaults.
type Options struct {
	QueueSize int
	Workers   int
	// RatePerSecond throttles job starts across workers; 0 disables throttling.
	RatePerSecond float64
	Burst         int
	// MaxDuration bounds throttle wait plus run time of a single job.
	MaxDuration time.Duration
	// OnResult observes every finished job; err is nil on success.
	OnResult func(action string, err error)
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func(ctx context.Context) error
}

// Dispatcher executes queued jobs exactly once each. Failures are logged
// and counted, never retried.
type Dispatcher struct {
	opts    Options
	limiter *rate.Limiter
	jobs    chan job
	closed  bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	errs    atomic.Uint64
}

// NewDispatcher starts the worker goroutines.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	if opts.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), max(opts.Burst, 1))
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run without blocking. The context passed to run keeps
// the values of ctx, drops its cancellation and carries the job deadline.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits until queued ones have run.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.jobs {
		d.handle(j)
	}
}

func (d *Dispatcher) handle(j job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(j.ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	err := d.throttle(ctx)
	if err == nil {
		err = j.run(ctx)
	}
	if d.opts.OnResult != nil {
		d.opts.OnResult(j.action, err)
	}

	attrs := []slog.Attr{
		slog.String("action", j.action),
		slog.String("endpoint", j.endpoint),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		d.errs.Add(1)
		logger.Error(j.ctx, "tg.sender", "send.fail", append(attrs,
			slog.String("status", "fail"),
			slog.String("err", logger.RedactToken(err.Error())),
			slog.String("error_kind", classifyError(err)),
		)...)
		return
	}
	logger.Debug(j.ctx, "tg.sender", "send.ok", append(attrs, slog.String("status", "ok"))...)
}

func (d *Dispatcher) throttle(ctx context.Context) error {
	if d.limiter == nil {
		return nil
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}

// apiStatusRe matches the "(code)" suffix of Bot API errors telebot
// returns as plain strings.
var apiStatusRe = regexp.MustCompile(`\((\d{3})\)$`)

func classifyError(err error) string {
	var (
		apiErr *tele.Error
		netErr net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, new(tele.FloodError)):
		return "flood"
	case errors.As(err, &apiErr):
		return statusKind(apiErr.Code)
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	if m := apiStatusRe.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return statusKind(code)
	}
	return "unknown"
}

func statusKind(code int) string {
	switch {
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return "api"
}
