package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/metrics"
)

var (
	ErrQueueFull        = errors.New("notification queue full")
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

type job struct {
	kind string
	ctx  context.Context
	run  func(ctx context.Context) error
}

type DispatcherOptions struct {
	Workers   int
	QueueSize int
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// Dispatcher is a Sink that queues deliveries for a fixed pool of workers.
// Enqueueing never blocks; when the queue is full the message is dropped.
type Dispatcher struct {
	sink    Sink
	queue   chan job
	workers int
	timeout time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(sink Sink, opts DispatcherOptions, logger zerolog.Logger) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Dispatcher{
		sink:    sink,
		queue:   make(chan job, opts.QueueSize),
		workers: opts.Workers,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "notify_dispatcher").Logger(),
	}
}

// Start launches the workers. Call Close to drain and stop them.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

// Close stops accepting messages and waits for queued ones to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, n AppointmentNotice) error {
	return d.enqueue(ctx, "confirmation", func(ctx context.Context) error {
		return d.sink.SendConfirmation(ctx, n)
	})
}

func (d *Dispatcher) SendCancellation(ctx context.Context, n AppointmentNotice) error {
	return d.enqueue(ctx, "cancellation", func(ctx context.Context) error {
		return d.sink.SendCancellation(ctx, n)
	})
}

func (d *Dispatcher) SendVerificationCode(ctx context.Context, phone, code string) error {
	return d.enqueue(ctx, "verification_code", func(ctx context.Context) error {
		return d.sink.SendVerificationCode(ctx, phone, code)
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, kind string, run func(ctx context.Context) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	// the request context ends with the response; keep only its values
	j := job{kind: kind, ctx: context.WithoutCancel(ctx), run: run}
	select {
	case d.queue <- j:
		d.metrics.ObserveNotification(kind, "queued")
		return nil
	default:
		d.metrics.ObserveNotification(kind, "dropped")
		d.logger.Warn().Str("kind", kind).Msg("notification queue full, dropping message")
		return ErrQueueFull
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.ObserveNotification(j.kind, "failed")
			d.logger.Error().Interface("panic", r).Str("kind", j.kind).Msg("notification delivery panicked")
		}
	}()

	if err := j.run(ctx); err != nil {
		d.metrics.ObserveNotification(j.kind, "failed")
		d.logger.Error().Err(err).Str("kind", j.kind).Msg("notification delivery failed")
		return
	}
	d.metrics.ObserveNotification(j.kind, "sent")
}
