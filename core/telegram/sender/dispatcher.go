package sender

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"time"

	"github.com/m3rciful/bookbot/core/logger"
	"github.com/m3rciful/bookbot/core/metrics"
	"github.com/m3rciful/bookbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the job was rejected because the queue is saturated.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the outbound dispatcher. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound replies on a worker pool with retries.
// A single worker keeps replies to one chat in order.
type Dispatcher struct {
	opts Options
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker pool.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules run. run must be safe to repeat when retries are enabled.
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

// Close stops accepting jobs and waits for queued ones to finish.
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
	deadline, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			attrs := j.attrs(slog.Int("attempts", attempt), slog.Duration("duration", logger.Took(start)))
			logger.Debug(ctx, "tg.sender", "send.success", attrs...)
			return
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := d.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(ctx, "tg.sender", "send.retry", j.attrs(slog.Int("attempts", attempt), slog.Duration("backoff", delay))...)
		timer := time.NewTimer(delay)
		select {
		case <-deadline.Done():
			timer.Stop()
			err = errors.Join(err, deadline.Err())
			attempt = attempts
		case <-timer.C:
		}
	}

	metrics.IncSendFailure()
	logger.Error(ctx, "tg.sender", "send.fail", j.attrs(
		slog.String("status", "fail"),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("err_code", classifyError(err)),
		slog.Duration("duration", logger.Took(start)),
	)...)
}

func (j job) attrs(extra ...slog.Attr) []slog.Attr {
	attrs := []slog.Attr{slog.String("op", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return append(attrs, extra...)
}

func classifyError(err error) string {
	var (
		flood  tele.FloodError
		apiErr *tele.Error
		netErr net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &flood):
		return "flood"
	case errors.As(err, &apiErr):
		if apiErr.Code >= 500 {
			return "http_5xx"
		}
		return "http_4xx"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &netErr):
		return "network"
	}
	return "unknown"
}

// sanitizeErrorMessage strips bot tokens that net/http embeds in URL errors.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
