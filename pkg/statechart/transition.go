package statechart

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Transition is a directed relationship between a source and a target
// vertex, optionally triggered by an event, gated by a guard and carrying an
// action.
type Transition struct {
	start    Vertex
	end      Vertex
	trigger  string
	guard    Guard
	action   Action
	internal bool

	// exitSet is ordered innermost first, entrySet outermost first.
	exitSet  []Vertex
	entrySet []Vertex
}

type TransitionOption func(*Transition)

// WithEvent sets the name of the triggering event. Transitions without one
// are completion transitions and only fire on a nil event.
func WithEvent(name string) TransitionOption {
	return func(t *Transition) { t.trigger = name }
}

func WithGuard(g Guard) TransitionOption {
	return func(t *Transition) { t.guard = g }
}

func WithAction(a Action) TransitionOption {
	return func(t *Transition) { t.action = a }
}

// NewTransition creates a transition and registers it on start.
func NewTransition(start, end Vertex, opts ...TransitionOption) (*Transition, error) {
	if start == nil || end == nil {
		return nil, ErrNilVertex
	}
	t := &Transition{start: start, end: end}
	for _, opt := range opts {
		opt(t)
	}
	t.exitSet, t.entrySet = stateSets(start, end)

	if err := start.addTransition(t); err != nil {
		return nil, errors.Wrapf(err, "transition %q -> %q", start.Name(), end.Name())
	}
	return t, nil
}

// NewInternalTransition reacts to an event inside state without exiting or
// entering it.
func NewInternalTransition(state Vertex, opts ...TransitionOption) (*Transition, error) {
	if state == nil {
		return nil, ErrNilVertex
	}
	t := &Transition{start: state, end: state, internal: true}
	for _, opt := range opts {
		opt(t)
	}
	if t.trigger == "" {
		return nil, errors.Wrapf(ErrInternalTrigger, "in %q", state.Name())
	}
	if err := state.addTransition(t); err != nil {
		return nil, errors.Wrapf(err, "internal transition in %q", state.Name())
	}
	return t, nil
}

func (t *Transition) Start() Vertex      { return t.start }
func (t *Transition) End() Vertex        { return t.end }
func (t *Transition) Event() string      { return t.trigger }
func (t *Transition) Guard() Guard       { return t.guard }
func (t *Transition) Action() Action     { return t.action }
func (t *Transition) Internal() bool     { return t.internal }
func (t *Transition) ExitSet() []Vertex  { return append([]Vertex(nil), t.exitSet...) }
func (t *Transition) EntrySet() []Vertex { return append([]Vertex(nil), t.entrySet...) }

// Allowed reports whether ev triggers the transition and its guard passes.
func (t *Transition) Allowed(ctx context.Context, ev *Event) bool {
	if t.trigger == "" {
		if ev != nil {
			return false
		}
	} else if ev == nil || ev.Name != t.trigger {
		return false
	}

	if t.guard != nil {
		return t.guard.Check(ctx, ev)
	}
	return true
}

func (t *Transition) execute(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	if !t.Allowed(ctx, ev) {
		return false, nil
	}
	return true, t.fire(ctx, md, ev)
}

func (t *Transition) fire(ctx context.Context, md *Metadata, ev *Event) error {
	restore := md.push(t, t.end)
	defer restore()

	switch {
	case t.internal:
		md.logger.Info("internal transition",
			zap.String("state", t.start.Name()), zap.String("event", eventName(ev)))
	case ev != nil:
		md.logger.Info("transition",
			zap.String("from", t.start.Name()), zap.String("to", t.end.Name()), zap.String("event", ev.Name))
	default:
		md.logger.Info("default transition",
			zap.String("from", t.start.Name()), zap.String("to", t.end.Name()))
	}

	for _, s := range t.exitSet {
		if err := s.deactivate(ctx, md, ev); err != nil {
			return err
		}
	}

	if t.action != nil {
		if err := t.action.Execute(ctx, ev); err != nil {
			return errors.Wrapf(err, "action %s", t)
		}
	}

	for _, s := range t.entrySet {
		if err := s.activate(ctx, md, ev); err != nil {
			return err
		}
	}
	return nil
}

func (t *Transition) String() string {
	if t.trigger == "" {
		return fmt.Sprintf("%s -> %s", t.start.Name(), t.end.Name())
	}
	return fmt.Sprintf("%s -> %s on %s", t.start.Name(), t.end.Name(), t.trigger)
}

// stateSets computes the vertices a transition exits and enters, below the
// least common ancestor of start and end.
func stateSets(start, end Vertex) (exit, entry []Vertex) {
	startChain := lineage(start)
	endChain := lineage(end)

	shortest := min(len(startChain), len(endChain))
	lca := shortest - 1
	if start != end {
		lca = 0
		for lca < shortest && startChain[lca] == endChain[lca] {
			lca++
		}
	}
	if lca < 0 {
		lca = 0
	}

	for i := len(startChain) - 1; i >= lca; i-- {
		exit = append(exit, startChain[i])
	}
	if lca < len(endChain) {
		entry = append(entry, endChain[lca:]...)
	}
	return exit, entry
}

// lineage lists v and its ancestors, outermost first, excluding the
// statechart.
func lineage(v Vertex) []Vertex {
	var chain []Vertex
	for cur := v; cur != nil; cur = cur.Parent() {
		if _, ok := cur.(*Statechart); ok {
			break
		}
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
