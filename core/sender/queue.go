// Package sender runs outbound platform calls off the caller's goroutine while keeping their order.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/directorbot/core/logger"
)

const component = "sender"

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("sender: queue closed")
	// ErrNilJob is returned when Enqueue receives no function to run.
	ErrNilJob = errors.New("sender: nil run function")

	secretRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+|xox[abprs]-[A-Za-z0-9-]+|xapp-[A-Za-z0-9-]+`)
)

// Options controls the behaviour of a Queue.
type Options struct {
	// QueueSize is the number of jobs buffered ahead of the worker.
	QueueSize int
	// MaxDuration bounds a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx    context.Context
	action string
	run    func(context.Context) error
}

// Queue executes jobs one at a time in submission order. The first failing job
// poisons the queue: Failed is closed, Err reports the failure and every job
// still queued is skipped. Calls are never retried.
type Queue struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool

	failOnce sync.Once
	failed   chan struct{}
	err      error

	done chan struct{}
	sent atomic.Uint64
}

// NewQueue starts the worker with defaults for zeroed options.
func NewQueue(opts Options) *Queue {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}
	q := &Queue{
		opts:   opts,
		jobs:   make(chan job, opts.QueueSize),
		failed: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go q.worker()
	return q
}

// Enqueue schedules run after every previously enqueued job. It blocks while the
// buffer is full and gives up when ctx ends or the queue has already failed.
func (q *Queue) Enqueue(ctx context.Context, action string, run func(context.Context) error) error {
	if run == nil {
		return ErrNilJob
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case <-q.failed:
		return q.err
	default:
	}

	select {
	case q.jobs <- job{ctx: ctx, action: action, run: run}:
		return nil
	case <-q.failed:
		return q.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failed is closed once a job has failed.
func (q *Queue) Failed() <-chan struct{} {
	return q.failed
}

// Err returns the first job failure, or nil.
func (q *Queue) Err() error {
	select {
	case <-q.failed:
		return q.err
	default:
		return nil
	}
}

// Sent reports how many jobs completed successfully.
func (q *Queue) Sent() uint64 {
	return q.sent.Load()
}

// Close stops accepting jobs, waits until the queued ones ran (or were skipped
// after a failure) and returns the first failure.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	<-q.done
	return q.Err()
}

func (q *Queue) worker() {
	defer close(q.done)
	for j := range q.jobs {
		select {
		case <-q.failed:
			continue
		default:
		}
		if err := q.handle(j); err != nil {
			q.failOnce.Do(func() {
				q.err = err
				close(q.failed)
			})
		}
	}
}

func (q *Queue) handle(j job) error {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, q.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	err := j.run(runCtx)
	if err != nil {
		logger.Error(ctx, component, "send.fail",
			slog.String("op", j.action),
			slog.String("err", sanitizeErrorMessage(err)),
			slog.String("err_code", classifyError(err)),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
		return err
	}
	q.sent.Add(1)
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, component, "send.success",
			slog.String("op", j.action),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}
	return nil
}

// classifyError buckets transport failures for logs.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "timeout"
	}

	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		switch status := coded.StatusCode(); {
		case status >= 500:
			return "http_5xx"
		case status >= 400:
			return "http_4xx"
		}
	}
	return "unknown"
}

// sanitizeErrorMessage keeps platform credentials echoed in request URLs out of the logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return secretRe.ReplaceAllString(err.Error(), "<redacted>")
}
