package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/ib-77/statechart/pkg/statechart"
)

var ErrCancelled = errors.New("event cancelled before dispatch")

// cancelRemaining reports every event left in the queue as cancelled, unless
// the context disables it.
func (r *Runner) cancelRemaining(ctx context.Context, queue <-chan *statechart.Event) {
	for {
		select {
		case ev := <-queue:
			r.cancelEvent(ctx, ev)
		default:
			return
		}
	}
}

func (r *Runner) cancelEvent(ctx context.Context, ev *statechart.Event) {
	if !IsProcessRemainingEnabled(ctx, true) {
		return
	}
	r.report(Outcome{
		EventID: ev.Id(),
		Event:   ev,
		Err:     ErrCancelled,
		At:      time.Now().UTC(),
	})
}
