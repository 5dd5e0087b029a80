package statechart

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Vertex is any node of a statechart: states, pseudostates and the chart
// itself. The set of vertex kinds is closed; behaviour is customised with
// StateOption hooks.
type Vertex interface {
	Name() string
	Parent() Vertex
	Active() bool
	// IsActive reports whether the named vertex is this one or an active
	// descendant of it.
	IsActive(name string) bool
	Transitions() []*Transition
	Scope() *Scope

	base() *node
	activate(ctx context.Context, md *Metadata, ev *Event) error
	deactivate(ctx context.Context, md *Metadata, ev *Event) error
	dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error)
	addTransition(t *Transition) error
}

type StateOption func(*node)

func WithEntry(h Hook) StateOption {
	return func(n *node) { n.entry = h }
}

func WithExit(h Hook) StateOption {
	return func(n *node) { n.exit = h }
}

func WithDo(a Activity) StateOption {
	return func(n *node) { n.do = a }
}

func WithInternal(h InternalHandler) StateOption {
	return func(n *node) { n.internal = h }
}

func WithScope(vars map[string]any) StateOption {
	return func(n *node) {
		for k, v := range vars {
			n.scope.vars[k] = v
		}
	}
}

type node struct {
	self        Vertex
	name        string
	parent      Vertex
	transitions []*Transition
	active      bool
	scope       *Scope

	entry    Hook
	exit     Hook
	do       Activity
	internal InternalHandler
	stopDo   context.CancelFunc
}

func newNode(self Vertex, name string, parent Vertex, opts []StateOption) node {
	var parentScope *Scope
	if parent != nil {
		parentScope = parent.Scope()
	}
	n := node{
		self:   self,
		name:   name,
		parent: parent,
		scope:  newScope(parentScope, nil),
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Parent() Vertex {
	return n.parent
}

func (n *node) Active() bool {
	return n.active
}

func (n *node) IsActive(name string) bool {
	return n.active && n.name == name
}

func (n *node) Transitions() []*Transition {
	out := make([]*Transition, len(n.transitions))
	copy(out, n.transitions)
	return out
}

func (n *node) Scope() *Scope {
	return n.scope
}

func (n *node) base() *node {
	return n
}

// addTransition keeps guarded transitions ahead of unguarded ones.
func (n *node) addTransition(t *Transition) error {
	if t == nil {
		return errors.New("cannot add nil transition")
	}
	if t.guard != nil {
		n.transitions = append([]*Transition{t}, n.transitions...)
	} else {
		n.transitions = append(n.transitions, t)
	}
	return nil
}

// mark records the vertex as active without running any behaviour.
func (n *node) mark(md *Metadata) error {
	if n.parent != nil && !n.parent.Active() {
		return errors.Wrapf(ErrParentInactive, "activate %q", n.name)
	}
	if err := md.activate(n.self); err != nil {
		return err
	}
	n.active = true
	if h, ok := n.parent.(holder); ok {
		h.holder().current = n.self
	}
	return nil
}

func (n *node) enter(ctx context.Context, md *Metadata, ev *Event) error {
	md.logger.Info("activate", zap.String("state", n.name))

	if err := n.mark(md); err != nil {
		return err
	}

	if n.entry != nil {
		if err := n.entry(ctx, ev); err != nil {
			return errors.Wrapf(err, "entry %q", n.name)
		}
	}

	if n.do != nil {
		n.startDo(md, ev)
	}
	return nil
}

func (n *node) startDo(md *Metadata, ev *Event) {
	actx, cancel := context.WithCancel(md.runContext())
	n.stopDo = cancel

	do, name, logger := n.do, n.name, md.logger
	md.activities.Add(1)
	go func() {
		defer md.activities.Done()
		defer cancel()

		if err := do(actx, ev); err != nil && !isCancellation(err) {
			logger.Error("do activity failed", zap.String("state", name), zap.Error(err))
		}
	}()
}

func (n *node) leave(ctx context.Context, md *Metadata, ev *Event) error {
	if !n.active {
		return nil
	}
	md.logger.Info("deactivate", zap.String("state", n.name))

	if n.stopDo != nil {
		md.logger.Debug("cancelling do activity", zap.String("state", n.name))
		n.stopDo()
		n.stopDo = nil
	}

	var err error
	if n.exit != nil {
		if exitErr := n.exit(ctx, ev); exitErr != nil {
			err = errors.Wrapf(exitErr, "exit %q", n.name)
		}
	}

	n.active = false
	md.deactivate(n.self)
	if c, ok := n.parent.(*CompositeState); ok {
		c.remember(n.self)
	}
	if h, ok := n.parent.(holder); ok && h.holder().current == n.self {
		h.holder().current = nil
	}
	return err
}

func (n *node) handleInternal(ctx context.Context, ev *Event) {
	if n.internal != nil && ev != nil {
		n.internal(ctx, ev)
	}
}

// fire executes the first allowed outgoing transition.
func (n *node) fire(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	for _, t := range n.transitions {
		ok, err := t.execute(ctx, md, ev)
		if err != nil {
			return true, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (n *node) activate(ctx context.Context, md *Metadata, ev *Event) error {
	return n.enter(ctx, md, ev)
}

func (n *node) deactivate(ctx context.Context, md *Metadata, ev *Event) error {
	return n.leave(ctx, md, ev)
}

func (n *node) dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	n.handleInternal(ctx, ev)
	return n.fire(ctx, md, ev)
}

// holder is implemented by vertices that contain substates with a single
// current child: the statechart and composite states.
type holder interface {
	Vertex
	holder() *container
}

type container struct {
	initial  *InitialState
	current  Vertex
	finished bool
}

func (c *container) holder() *container {
	return c
}

// InitialState returns the initial pseudostate, or nil.
func (c *container) InitialState() *InitialState {
	return c.initial
}

// Current returns the active child, or nil.
func (c *container) Current() Vertex {
	return c.current
}

func (c *container) Finished() bool {
	return c.finished
}

func (c *container) isActive(n *node, name string) bool {
	if !n.active {
		return false
	}
	if n.name == name {
		return true
	}
	return c.current != nil && c.current.IsActive(name)
}

func (c *container) reset() {
	c.current = nil
	c.finished = false
}

func parentHolder(parent Vertex) (*container, error) {
	if parent == nil {
		return nil, ErrNilParent
	}
	h, ok := parent.(holder)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidParent, "%q cannot contain states", parent.Name())
	}
	return h.holder(), nil
}

func rootOf(v Vertex) *Statechart {
	for cur := v; cur != nil; cur = cur.Parent() {
		if sc, ok := cur.(*Statechart); ok {
			return sc
		}
	}
	return nil
}

func register(v Vertex) {
	if sc := rootOf(v.Parent()); sc != nil {
		sc.vertices = append(sc.vertices, v)
	}
}

func isPseudo(v Vertex) bool {
	switch v.(type) {
	case *InitialState, *ShallowHistoryState, *ChoiceState:
		return true
	default:
		return false
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
