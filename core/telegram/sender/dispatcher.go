package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/gatekeeper/core/logger"
	"github.com/m3rciful/gatekeeper/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the queue is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	Workers   int
	// MaxDuration bounds a single job.
	MaxDuration time.Duration
}

const (
	defaultQueueSize   = 256
	defaultWorkers     = 4
	defaultMaxDuration = 12 * time.Second
)

var errJobPanicked = errors.New("telegram sender: job panicked")

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// attrs describes the job; update ids come from ctx.
func (j job) attrs(extra ...slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, 2+len(extra))
	out = append(out, slog.String("action", j.action))
	if j.endpoint != "" {
		out = append(out, slog.String("endpoint", j.endpoint))
	}
	return append(out, extra...)
}

// Dispatcher executes outbound Telegram calls on a small worker pool.
// Every job runs exactly once; failures are logged and counted.
type Dispatcher struct {
	maxDuration time.Duration
	jobs        chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	sent atomic.Uint64
	errs atomic.Uint64
}

// NewDispatcher starts a dispatcher with sane defaults if options are zeroed.
func NewDispatcher(opts Options) *Dispatcher {
	d := &Dispatcher{
		maxDuration: orDefault(opts.MaxDuration, defaultMaxDuration),
		jobs:        make(chan job, orDefault(opts.QueueSize, defaultQueueSize)),
	}
	workers := orDefault(opts.Workers, defaultWorkers)
	d.wg.Add(workers)
	for range workers {
		go d.worker()
	}
	return d
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// Enqueue schedules run for asynchronous execution. It never blocks.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
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

// SentCount returns the number of jobs that completed without error.
func (d *Dispatcher) SentCount() uint64 { return d.sent.Load() }

// ErrorCount returns the number of failed jobs.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

// Close rejects new jobs, drains the queue and waits for workers.
// Calling it again is a no-op.
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
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Debug(ctx, "tg.sender", "send.start", j.attrs()...)

	start := time.Now()
	err := d.runBounded(ctx, j.run)
	elapsed := slog.Duration("elapsed", time.Since(start))

	if err != nil {
		d.errs.Add(1)
		logger.Error(ctx, "tg.sender", "send.fail", j.attrs(
			slog.String("err", logger.RedactToken(err.Error())),
			slog.String("error_kind", netutil.Classify(err)),
			elapsed,
		)...)
		return
	}
	d.sent.Add(1)
	logger.Debug(ctx, "tg.sender", "send.success", j.attrs(elapsed)...)
}

// runBounded waits for run at most maxDuration. A run that outlives the
// bound keeps going in its goroutine but the job is reported as failed.
func (d *Dispatcher) runBounded(ctx context.Context, run func() error) error {
	ctx, cancel := context.WithTimeout(ctx, d.maxDuration)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if recover() != nil {
				done <- errJobPanicked
			}
		}()
		done <- run()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
