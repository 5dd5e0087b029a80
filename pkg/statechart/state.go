package statechart

import (
	"context"

	"github.com/pkg/errors"
)

// State is a simple state with no regions or substates.
type State struct {
	node
}

// NewState creates a state inside a statechart or composite state.
func NewState(name string, parent Vertex, opts ...StateOption) (*State, error) {
	if _, err := parentHolder(parent); err != nil {
		return nil, errors.Wrapf(err, "state %q", name)
	}
	s := &State{}
	s.node = newNode(s, name, parent, opts)
	register(s)
	return s, nil
}

func (s *State) String() string {
	return stringify("State", &s.node)
}

// FinalState signifies that the enclosing context has completed. It cannot
// have outgoing transitions.
type FinalState struct {
	node
}

func NewFinalState(parent Vertex) (*FinalState, error) {
	if _, err := parentHolder(parent); err != nil {
		return nil, errors.Wrap(err, "final state")
	}
	s := &FinalState{}
	s.node = newNode(s, "Final", parent, nil)
	register(s)
	return s, nil
}

func (s *FinalState) addTransition(*Transition) error {
	return ErrFinalTransition
}

func (s *FinalState) activate(ctx context.Context, md *Metadata, ev *Event) error {
	if err := s.enter(ctx, md, ev); err != nil {
		return err
	}
	s.parent.(holder).holder().finished = true
	return nil
}

func (s *FinalState) deactivate(ctx context.Context, md *Metadata, ev *Event) error {
	err := s.leave(ctx, md, ev)
	s.parent.(holder).holder().finished = false
	return err
}

func (s *FinalState) String() string {
	return stringify("FinalState", &s.node)
}
