package statechart

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// pseudo activation only marks the vertex: pseudostates are transient and
// carry no entry, exit or do behaviour.
func (n *node) enterPseudo(md *Metadata) error {
	md.logger.Debug("activate pseudostate", zap.String("state", n.name))
	return n.mark(md)
}

// InitialState is the source of the single default transition of its
// context.
type InitialState struct {
	node
}

func NewInitialState(parent Vertex) (*InitialState, error) {
	c, err := parentHolder(parent)
	if err != nil {
		return nil, errors.Wrap(err, "initial state")
	}
	if c.initial != nil {
		return nil, errors.Wrapf(ErrInitialExists, "in %q", parent.Name())
	}
	s := &InitialState{}
	s.node = newNode(s, "Initial", parent, nil)
	c.initial = s
	register(s)
	return s, nil
}

func (s *InitialState) addTransition(t *Transition) error {
	switch {
	case len(s.transitions) != 0:
		return ErrInitialMultiple
	case t.trigger != "":
		return ErrInitialTrigger
	case t.guard != nil:
		return ErrInitialGuard
	}
	return s.node.addTransition(t)
}

func (s *InitialState) activate(ctx context.Context, md *Metadata, _ *Event) error {
	if err := s.enterPseudo(md); err != nil {
		return err
	}
	_, err := s.dispatch(ctx, md, nil)
	return err
}

func (s *InitialState) dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	handled, err := s.fire(ctx, md, ev)
	if err != nil {
		return handled, err
	}
	if !handled {
		return false, errors.Wrapf(ErrInitialNoTransition, "in %q", s.parent.Name())
	}
	return true, nil
}

func (s *InitialState) String() string {
	return stringify("InitialState", &s.node)
}

// ShallowHistoryState remembers the most recent direct substate of its
// composite. Entering it re-enters that substate; without one it follows its
// default transition.
type ShallowHistoryState struct {
	node
	state Vertex
}

func NewShallowHistoryState(parent Vertex) (*ShallowHistoryState, error) {
	if parent == nil {
		return nil, errors.Wrap(ErrNilParent, "history state")
	}
	composite, ok := parent.(*CompositeState)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidParent, "history state requires a composite parent, got %q", parent.Name())
	}
	if composite.history != nil {
		return nil, errors.Wrapf(ErrHistoryExists, "in %q", parent.Name())
	}
	s := &ShallowHistoryState{}
	s.node = newNode(s, "Shallow history", parent, nil)
	composite.history = s
	register(s)
	return s, nil
}

// Remembered returns the substate that will be restored, or nil.
func (s *ShallowHistoryState) Remembered() Vertex {
	return s.state
}

func (s *ShallowHistoryState) addTransition(t *Transition) error {
	if len(s.transitions) != 0 {
		return ErrHistoryTransitions
	}
	return s.node.addTransition(t)
}

func (s *ShallowHistoryState) activate(ctx context.Context, md *Metadata, ev *Event) error {
	if err := s.enterPseudo(md); err != nil {
		return err
	}

	if s.state != nil {
		target := s.state
		md.logger.Info("restore history",
			zap.String("state", s.parent.Name()), zap.String("target", target.Name()))

		s.active = false
		md.deactivate(s)

		restore := md.push(md.transition, target)
		defer restore()
		return target.activate(ctx, md, ev)
	}

	handled, err := s.fire(ctx, md, nil)
	if err != nil {
		return err
	}
	if !handled {
		return errors.Wrapf(ErrHistoryNoDefault, "in %q", s.parent.Name())
	}
	return nil
}

func (s *ShallowHistoryState) String() string {
	return stringify("ShallowHistoryState", &s.node)
}

// ChoiceState evaluates the guards of its outgoing transitions in
// declaration order and follows the first that passes.
type ChoiceState struct {
	node
}

func NewChoiceState(parent Vertex) (*ChoiceState, error) {
	if _, err := parentHolder(parent); err != nil {
		return nil, errors.Wrap(err, "choice state")
	}
	s := &ChoiceState{}
	s.node = newNode(s, "Choice", parent, nil)
	register(s)
	return s, nil
}

func (s *ChoiceState) addTransition(t *Transition) error {
	if t == nil {
		return errors.New("cannot add nil transition")
	}
	s.transitions = append(s.transitions, t)
	return nil
}

func (s *ChoiceState) activate(ctx context.Context, md *Metadata, _ *Event) error {
	if err := s.enterPseudo(md); err != nil {
		return err
	}
	handled, err := s.fire(ctx, md, nil)
	if err != nil {
		return err
	}
	if !handled {
		return errors.Wrapf(ErrNoChoice, "in %q", s.parent.Name())
	}
	return nil
}

func (s *ChoiceState) String() string {
	return stringify("ChoiceState", &s.node)
}
