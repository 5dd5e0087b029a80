package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ib-77/statechart/pkg/statechart"
)

var (
	ErrClosed   = errors.New("runner closed")
	ErrRunning  = errors.New("runner already running")
	ErrNilEvent = errors.New("cannot post a nil event")
)

// Outcome describes one dispatched (or cancelled) event.
type Outcome struct {
	EventID uuid.UUID
	Event   *statechart.Event
	Handled bool
	Err     error
	Active  []string
	At      time.Time
}

type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver is called on the Run goroutine after every event.
func WithObserver(fn func(Outcome)) Option {
	return func(r *Runner) { r.observer = fn }
}

// StopOnFinish makes Run return once the chart reaches its final state.
func StopOnFinish() Option {
	return func(r *Runner) { r.stopOnFinish = true }
}

// WithStopTimeout bounds how long Run waits for do activities on exit.
func WithStopTimeout(d time.Duration) Option {
	return func(r *Runner) { r.stopTimeout = d }
}

type Runner struct {
	chart        *statechart.Statechart
	logger       *zap.Logger
	observer     func(Outcome)
	stopOnFinish bool
	stopTimeout  time.Duration

	queueOnce sync.Once
	queue     chan *statechart.Event

	closeOnce sync.Once
	closed    chan struct{}
	running   atomic.Bool
}

func New(chart *statechart.Statechart, opts ...Option) *Runner {
	r := &Runner{
		chart:       chart,
		logger:      chart.Logger(),
		stopTimeout: 5 * time.Second,
		closed:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Chart() *statechart.Statechart {
	return r.chart
}

// queueFor creates the queue on first use, sized from whichever context gets
// there first.
func (r *Runner) queueFor(ctx context.Context) chan *statechart.Event {
	r.queueOnce.Do(func() {
		r.queue = make(chan *statechart.Event, GetQueueSize(ctx, DefaultQueueSize))
	})
	return r.queue
}

// Post enqueues ev, blocking while the queue is full.
func (r *Runner) Post(ctx context.Context, ev *statechart.Event) error {
	if ev == nil {
		return ErrNilEvent
	}
	select {
	case <-r.closed:
		return ErrClosed
	default:
	}

	queue := r.queueFor(ctx)
	select {
	case queue <- ev:
		r.logger.Debug("event posted", zap.String("event", ev.Name), zap.Stringer("id", ev.Id()))
		return nil
	case <-r.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events. Run dispatches what is already queued and
// returns. Safe to call more than once.
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.closed) })
}

// Run starts the chart if needed and dispatches queued events until ctx ends,
// Close is called or, with StopOnFinish, the chart finishes. The chart is
// stopped before Run returns.
func (r *Runner) Run(ctx context.Context) (err error) {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer r.running.Store(false)

	queue := r.queueFor(ctx)

	if !r.chart.Running() {
		if err := r.chart.Start(ctx); err != nil {
			return errors.Wrapf(err, "start statechart %q", r.chart.Name())
		}
	}
	defer func() {
		if stopErr := r.stop(ctx); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	r.logger.Info("runner started", zap.String("statechart", r.chart.Name()))
	for {
		if r.stopOnFinish && r.chart.Finished() {
			r.logger.Info("statechart finished", zap.String("statechart", r.chart.Name()))
			return nil
		}
		if ctx.Err() != nil {
			r.cancelRemaining(ctx, queue)
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			r.cancelRemaining(ctx, queue)
			return ctx.Err()
		case <-r.closed:
			r.drain(ctx, queue)
			return nil
		case ev := <-queue:
			// ctx may have ended while the select picked the queue.
			if ctx.Err() != nil {
				r.cancelEvent(ctx, ev)
				r.cancelRemaining(ctx, queue)
				return ctx.Err()
			}
			r.report(r.dispatch(ctx, ev))
		}
	}
}

// drain dispatches the events queued before Close.
func (r *Runner) drain(ctx context.Context, queue <-chan *statechart.Event) {
	for {
		if ctx.Err() != nil || (r.stopOnFinish && r.chart.Finished()) {
			r.cancelRemaining(ctx, queue)
			return
		}
		select {
		case ev := <-queue:
			if ctx.Err() != nil {
				r.cancelEvent(ctx, ev)
				r.cancelRemaining(ctx, queue)
				return
			}
			r.report(r.dispatch(ctx, ev))
		default:
			return
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, ev *statechart.Event) Outcome {
	handled, err := r.chart.Dispatch(ctx, ev)
	if err != nil {
		r.logger.Warn("dispatch failed", zap.String("event", ev.Name), zap.Error(err))
	} else if !handled {
		r.logger.Debug("event ignored", zap.String("event", ev.Name))
	}
	return Outcome{
		EventID: ev.Id(),
		Event:   ev,
		Handled: handled,
		Err:     err,
		Active:  r.chart.ActiveStateNames(),
		At:      time.Now().UTC(),
	}
}

func (r *Runner) report(out Outcome) {
	if r.observer != nil {
		r.observer(out)
	}
}

func (r *Runner) stop(ctx context.Context) error {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.stopTimeout)
	defer cancel()

	if err := r.chart.Stop(stopCtx); err != nil {
		r.logger.Error("stop statechart", zap.Error(err))
		return errors.Wrapf(err, "stop statechart %q", r.chart.Name())
	}
	r.logger.Info("runner stopped", zap.String("statechart", r.chart.Name()))
	return nil
}
