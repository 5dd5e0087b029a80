package statechart

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Version is reported in generated diagrams.
const Version = "0.5.0"

type ChartOption func(*Statechart)

func WithLogger(logger *zap.Logger) ChartOption {
	return func(sc *Statechart) {
		if logger != nil {
			sc.md.logger = logger
		}
	}
}

// WithRootScope seeds the chart level scope shared by every vertex.
func WithRootScope(vars map[string]any) ChartOption {
	return func(sc *Statechart) {
		for k, v := range vars {
			sc.scope.vars[k] = v
		}
	}
}

// WithChartInternal sets a handler that sees every dispatched event before
// any state does.
func WithChartInternal(h InternalHandler) ChartOption {
	return func(sc *Statechart) { sc.internal = h }
}

// Statechart is the root context and the entry point for dispatching events.
//
// Start, Stop, Dispatch and the queries are serialised. Hooks, guards and
// actions run while the chart is locked and must not call back into it on the
// same goroutine; post events through a runner or from a do activity instead.
type Statechart struct {
	node
	container

	mu       sync.Mutex
	md       *Metadata
	vertices []Vertex
}

func NewStatechart(name string, opts ...ChartOption) *Statechart {
	sc := &Statechart{md: NewMetadata(nil)}
	sc.node = newNode(sc, name, nil, nil)
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

func (sc *Statechart) Metadata() *Metadata {
	return sc.md
}

func (sc *Statechart) Logger() *zap.Logger {
	return sc.md.logger
}

// Vertices returns every vertex created under the chart, in creation order.
func (sc *Statechart) Vertices() []Vertex {
	out := make([]Vertex, len(sc.vertices))
	copy(out, sc.vertices)
	return out
}

// Find returns the first vertex created with name.
func (sc *Statechart) Find(name string) Vertex {
	for _, v := range sc.vertices {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

// Start activates the chart and follows its initial transition.
func (sc *Statechart) Start(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.active {
		return ErrAlreadyStarted
	}
	if sc.initial == nil {
		return errors.Wrapf(ErrNoInitialState, "statechart %q", sc.name)
	}

	sc.md.logger.Info("start", zap.String("statechart", sc.name))
	sc.md.begin(ctx)
	if err := sc.md.activate(sc); err != nil {
		return err
	}
	sc.active = true

	if err := sc.initial.activate(ctx, sc.md, nil); err != nil {
		_ = sc.shutdown(ctx)
		return err
	}
	return nil
}

// Stop exits every active state, cancels do activities and waits for them
// to return or for ctx to end.
func (sc *Statechart) Stop(ctx context.Context) error {
	sc.mu.Lock()
	if !sc.active {
		sc.mu.Unlock()
		return nil
	}
	sc.md.logger.Info("stop", zap.String("statechart", sc.name))
	err := sc.shutdown(ctx)
	sc.mu.Unlock()

	if waitErr := sc.md.wait(ctx); waitErr != nil && err == nil {
		err = errors.Wrap(waitErr, "waiting for do activities")
	}
	return err
}

func (sc *Statechart) shutdown(ctx context.Context) error {
	var err error
	if sc.current != nil && sc.current.Active() {
		err = sc.current.deactivate(ctx, sc.md, nil)
	}
	sc.md.logger.Info("deactivate", zap.String("state", sc.name))
	sc.active = false
	sc.container.reset()
	sc.md.deactivate(sc)
	sc.md.end()
	return err
}

// Dispatch routes ev to the active configuration and reports whether a
// transition fired.
func (sc *Statechart) Dispatch(ctx context.Context, ev *Event) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.active {
		return false, ErrNotStarted
	}

	sc.md.setEvent(ev)
	defer sc.md.setEvent(nil)

	sc.handleInternal(ctx, ev)

	if sc.current == nil {
		return false, nil
	}
	return sc.current.dispatch(ctx, sc.md, ev)
}

func (sc *Statechart) IsActive(name string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.container.isActive(&sc.node, name)
}

func (sc *Statechart) Running() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.active
}

func (sc *Statechart) Finished() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.finished
}

// ActiveStates returns the active configuration, the chart first, then
// depth first through current children and every region.
func (sc *Statechart) ActiveStates() []Vertex {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if !sc.active {
		return nil
	}
	states := []Vertex{sc}
	return collectActive(states, sc.current)
}

func (sc *Statechart) ActiveStateNames() []string {
	states := sc.ActiveStates()
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.Name())
	}
	return names
}

func collectActive(states []Vertex, v Vertex) []Vertex {
	if v == nil || !v.Active() {
		return states
	}
	states = append(states, v)
	switch s := v.(type) {
	case holder:
		return collectActive(states, s.holder().current)
	case *ConcurrentState:
		for _, r := range s.regions {
			states = collectActive(states, r)
		}
	}
	return states
}

func (sc *Statechart) addTransition(*Transition) error {
	return ErrStatechartTransition
}

func (sc *Statechart) activate(context.Context, *Metadata, *Event) error {
	return errors.Wrap(ErrInvalidParent, "a statechart cannot be a transition target")
}

func (sc *Statechart) deactivate(ctx context.Context, _ *Metadata, _ *Event) error {
	return sc.shutdown(ctx)
}

func (sc *Statechart) dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	if sc.current == nil {
		return false, nil
	}
	return sc.current.dispatch(ctx, md, ev)
}

func (sc *Statechart) String() string {
	return fmt.Sprintf("Statechart(name=%q, active=%t, current=%v, finished=%t)",
		sc.name, sc.active, sc.current, sc.finished)
}

func stringify(kind string, n *node) string {
	return fmt.Sprintf("%s(name=%q, active=%t)", kind, n.name, n.active)
}
