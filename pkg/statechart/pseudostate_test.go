package statechart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState_Errors(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	a := b.state("a", sc)
	other := b.state("b", sc)

	_, err := NewInitialState(sc)
	assert.ErrorIs(t, err, ErrInitialExists)

	_, err = NewInitialState(a)
	assert.ErrorIs(t, err, ErrInvalidParent)

	_, err = NewInitialState(nil)
	assert.ErrorIs(t, err, ErrNilParent)

	_, err = NewTransition(initial, a, WithEvent("go"))
	assert.ErrorIs(t, err, ErrInitialTrigger)

	_, err = NewTransition(initial, a, WithGuard(ElseGuard{}))
	assert.ErrorIs(t, err, ErrInitialGuard)

	b.transition(initial, a)
	_, err = NewTransition(initial, other)
	assert.ErrorIs(t, err, ErrInitialMultiple)
	assert.Len(t, initial.Transitions(), 1)
}

func TestInitialState_MissingTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	b.initial(sc)
	b.state("a", sc)

	err := sc.Start(ctx)
	assert.ErrorIs(t, err, ErrInitialNoTransition)
	assert.False(t, sc.Running())
}

func TestInitialState_MissingInComposite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	cs := b.composite("cs", sc)
	b.state("inner", cs)
	b.transition(initial, cs)

	assert.ErrorIs(t, sc.Start(ctx), ErrNoInitialState)
}

// historyChart builds a composite with a shallow history and a state
// outside it:
//
//	initial -> cs{initial -> a, a -next-> b, b -next-> inner{x -go-> y}}
//	cs -leave-> out, out -back-> cs.history
func historyChart(b builder) (*Statechart, *ShallowHistoryState) {
	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	cs := b.composite("cs", sc)
	out := b.state("out", sc)
	h := b.history(cs)

	csInit := b.initial(cs)
	a := b.state("a", cs)
	bState := b.state("b", cs)
	inner := b.composite("inner", cs)
	innerInit := b.initial(inner)
	x := b.state("x", inner)
	y := b.state("y", inner)

	b.transition(initial, cs)
	b.transition(csInit, a)
	b.transition(a, bState, WithEvent("next"))
	b.transition(bState, inner, WithEvent("next"))
	b.transition(innerInit, x)
	b.transition(x, y, WithEvent("go"))
	b.transition(cs, out, WithEvent("leave"))
	b.transition(out, h, WithEvent("back"))
	b.transition(h, a)
	return sc, h
}

func dispatchAll(t *testing.T, sc *Statechart, names ...string) {
	t.Helper()
	for _, name := range names {
		handled, err := sc.Dispatch(context.Background(), ev(name))
		require.NoError(t, err, name)
		require.True(t, handled, name)
	}
}

func TestShallowHistory_RestoresLastSubstate(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc, h := historyChart(b)
	require.NoError(t, sc.Start(context.Background()))

	dispatchAll(t, sc, "next", "leave")
	assert.True(t, sc.IsActive("out"))
	assert.Equal(t, "b", h.Remembered().Name())

	dispatchAll(t, sc, "back")
	assert.Equal(t, []string{"statechart", "cs", "b"}, sc.ActiveStateNames())
	assert.False(t, h.Active())
}

func TestShallowHistory_DefaultTransition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	out := b.state("out", sc)
	cs := b.composite("cs", sc)
	h := b.history(cs)
	a := b.state("a", cs)
	b.transition(initial, out)
	b.transition(out, h, WithEvent("enter"))
	b.transition(h, a)

	require.NoError(t, sc.Start(ctx))
	assert.Nil(t, h.Remembered())

	dispatchAll(t, sc, "enter")
	assert.Equal(t, []string{"statechart", "cs", "a"}, sc.ActiveStateNames())
}

func TestShallowHistory_IsShallow(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc, h := historyChart(b)
	require.NoError(t, sc.Start(context.Background()))

	dispatchAll(t, sc, "next", "next", "go")
	assert.True(t, sc.IsActive("y"))

	dispatchAll(t, sc, "leave", "back")
	assert.Equal(t, "inner", h.Remembered().Name())
	// inner is restored, its own substates start over.
	assert.Equal(t, []string{"statechart", "cs", "inner", "x"}, sc.ActiveStateNames())
}

func TestShallowHistory_TransitionFromSubstate(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	cs := b.composite("cs", sc)
	out := b.state("out", sc)
	h := b.history(cs)
	a := b.state("a", cs)
	bState := b.state("b", cs)
	b.transition(initial, cs)
	b.transition(b.initial(cs), a)
	b.transition(a, bState, WithEvent("next"))
	b.transition(bState, out, WithEvent("exit"))
	b.transition(out, h, WithEvent("back"))
	b.transition(h, a)

	require.NoError(t, sc.Start(context.Background()))
	dispatchAll(t, sc, "next", "exit")
	assert.Equal(t, "b", h.Remembered().Name())

	dispatchAll(t, sc, "back")
	assert.Equal(t, []string{"statechart", "cs", "b"}, sc.ActiveStateNames())
}

func TestShallowHistory_Nested(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	cs := b.composite("cs", sc)
	out := b.state("out", sc)
	h := b.history(cs)
	csInit := b.initial(cs)
	a := b.state("a", cs)
	inner := b.composite("inner", cs)
	innerHistory := b.history(inner)
	innerInit := b.initial(inner)
	x := b.state("x", inner)
	y := b.state("y", inner)

	b.transition(initial, cs)
	b.transition(csInit, a)
	b.transition(a, inner, WithEvent("next"))
	b.transition(innerInit, innerHistory)
	b.transition(innerHistory, x)
	b.transition(x, y, WithEvent("go"))
	b.transition(cs, out, WithEvent("leave"))
	b.transition(out, h, WithEvent("back"))
	b.transition(h, a)

	require.NoError(t, sc.Start(context.Background()))
	dispatchAll(t, sc, "next", "go", "leave")
	assert.Equal(t, []string{"statechart", "out"}, sc.ActiveStateNames())

	dispatchAll(t, sc, "back")
	assert.Equal(t, []string{"statechart", "cs", "inner", "y"}, sc.ActiveStateNames())
	assert.False(t, h.Active())
	assert.False(t, innerHistory.Active())
}

func TestShallowHistory_RemembersConcurrentState(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	cs := b.composite("cs", sc)
	out := b.state("out", sc)
	h := b.history(cs)
	csInit := b.initial(cs)
	a := b.state("a", cs)
	cc := b.concurrent("cc", cs)
	for _, names := range [][2]string{{"r1", "p"}, {"r2", "q"}} {
		region := b.composite(names[0], cc)
		b.transition(b.initial(region), b.state(names[1], region))
	}

	b.transition(initial, cs)
	b.transition(csInit, a)
	b.transition(a, cc, WithEvent("next"))
	b.transition(cs, out, WithEvent("leave"))
	b.transition(out, h, WithEvent("back"))
	b.transition(h, a)

	require.NoError(t, sc.Start(context.Background()))
	dispatchAll(t, sc, "next", "leave")
	assert.Equal(t, "cc", h.Remembered().Name())

	dispatchAll(t, sc, "back")
	assert.Equal(t,
		[]string{"statechart", "cs", "cc", "r1", "p", "r2", "q"},
		sc.ActiveStateNames())
}

func TestShallowHistory_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	cs := b.composite("cs", sc)
	a := b.state("a", cs)

	_, err := NewShallowHistoryState(nil)
	assert.ErrorIs(t, err, ErrNilParent)

	_, err = NewShallowHistoryState(sc)
	assert.ErrorIs(t, err, ErrInvalidParent)

	h := b.history(cs)
	assert.Same(t, h, cs.History())

	_, err = NewShallowHistoryState(cs)
	assert.ErrorIs(t, err, ErrHistoryExists)

	b.transition(h, a)
	_, err = NewTransition(h, a)
	assert.ErrorIs(t, err, ErrHistoryTransitions)

	noDefault := NewStatechart("no default")
	initial := b.initial(noDefault)
	out := b.state("out", noDefault)
	empty := b.composite("empty", noDefault)
	b.transition(initial, out)
	b.transition(out, b.history(empty), WithEvent("back"))

	require.NoError(t, noDefault.Start(ctx))
	_, err = noDefault.Dispatch(ctx, ev("back"))
	assert.ErrorIs(t, err, ErrHistoryNoDefault)
}

func TestChoiceState(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		pick string
		want string
	}{
		{pick: "a", want: "a"},
		{pick: "b", want: "b"},
		{pick: "anything", want: "b"},
	} {
		tt := tt
		t.Run(tt.pick, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			b := newBuilder(t)

			sc := NewStatechart("statechart", WithRootScope(map[string]any{"pick": tt.pick}))
			initial := b.initial(sc)
			def := b.state("default", sc)
			choice := b.choice(sc)
			a := b.state("a", sc)
			other := b.state("b", sc)

			isA := CallGuard{Name: "is a", Fn: func(context.Context, *Event) bool {
				v, _ := choice.Scope().Get("pick")
				return v == "a"
			}}

			b.transition(initial, def)
			b.transition(def, choice, WithEvent("choose"))
			b.transition(choice, a, WithGuard(isA))
			b.transition(choice, other, WithGuard(ElseGuard{}))

			require.NoError(t, sc.Start(ctx))
			dispatchAll(t, sc, "choose")
			assert.Equal(t, []string{"statechart", tt.want}, sc.ActiveStateNames())
			assert.False(t, choice.Active())
		})
	}
}

func TestChoiceState_KeepsDeclarationOrder(t *testing.T) {
	t.Parallel()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	choice := b.choice(sc)
	first := b.transition(choice, b.state("a", sc), WithGuard(EqualGuard{A: 1, B: 1}))
	second := b.transition(choice, b.state("b", sc), WithGuard(ElseGuard{}))

	assert.Equal(t, []*Transition{first, second}, choice.Transitions())
}

func TestChoiceState_NoChoice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBuilder(t)

	sc := NewStatechart("statechart")
	initial := b.initial(sc)
	def := b.state("default", sc)
	choice := b.choice(sc)
	b.transition(initial, def)
	b.transition(def, choice, WithEvent("choose"))
	b.transition(choice, b.state("a", sc), WithGuard(EqualGuard{A: 1, B: 2}))

	require.NoError(t, sc.Start(ctx))
	handled, err := sc.Dispatch(ctx, ev("choose"))
	assert.True(t, handled)
	assert.ErrorIs(t, err, ErrNoChoice)
}
