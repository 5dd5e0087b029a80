package statechart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// builder keeps chart construction in tests free of error plumbing.
type builder struct {
	t *testing.T
}

func newBuilder(t *testing.T) builder {
	t.Helper()
	return builder{t: t}
}

func (b builder) state(name string, parent Vertex, opts ...StateOption) *State {
	b.t.Helper()
	s, err := NewState(name, parent, opts...)
	require.NoError(b.t, err)
	return s
}

func (b builder) composite(name string, parent Vertex, opts ...StateOption) *CompositeState {
	b.t.Helper()
	s, err := NewCompositeState(name, parent, opts...)
	require.NoError(b.t, err)
	return s
}

func (b builder) concurrent(name string, parent Vertex, opts ...StateOption) *ConcurrentState {
	b.t.Helper()
	s, err := NewConcurrentState(name, parent, opts...)
	require.NoError(b.t, err)
	return s
}

func (b builder) initial(parent Vertex) *InitialState {
	b.t.Helper()
	s, err := NewInitialState(parent)
	require.NoError(b.t, err)
	return s
}

func (b builder) final(parent Vertex) *FinalState {
	b.t.Helper()
	s, err := NewFinalState(parent)
	require.NoError(b.t, err)
	return s
}

func (b builder) history(parent Vertex) *ShallowHistoryState {
	b.t.Helper()
	s, err := NewShallowHistoryState(parent)
	require.NoError(b.t, err)
	return s
}

func (b builder) choice(parent Vertex) *ChoiceState {
	b.t.Helper()
	s, err := NewChoiceState(parent)
	require.NoError(b.t, err)
	return s
}

func (b builder) transition(start, end Vertex, opts ...TransitionOption) *Transition {
	b.t.Helper()
	tr, err := NewTransition(start, end, opts...)
	require.NoError(b.t, err)
	return tr
}

func ev(name string) *Event {
	return NewEvent(name, nil)
}
