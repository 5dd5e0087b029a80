package display

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/ib-77/statechart/pkg/statechart"
)

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func must[T any](t *testing.T) func(T, error) T {
	return func(v T, err error) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

func link(t *testing.T, start, end sc.Vertex, opts ...sc.TransitionOption) {
	t.Helper()
	_, err := sc.NewTransition(start, end, opts...)
	require.NoError(t, err)
}

func nestedChart(t *testing.T) *sc.Statechart {
	chart := sc.NewStatechart("chart")
	initial := must[*sc.InitialState](t)(sc.NewInitialState(chart))
	a := must[*sc.State](t)(sc.NewState("a", chart))
	cs := must[*sc.CompositeState](t)(sc.NewCompositeState("cs", chart))
	final := must[*sc.FinalState](t)(sc.NewFinalState(chart))
	csInit := must[*sc.InitialState](t)(sc.NewInitialState(cs))
	x := must[*sc.State](t)(sc.NewState("x", cs))
	csFinal := must[*sc.FinalState](t)(sc.NewFinalState(cs))

	ready := sc.CallGuard{Name: "ready", Fn: func(context.Context, *sc.Event) bool { return true }}
	logAction := sc.CallAction{Name: "log"}

	link(t, initial, a)
	link(t, a, cs, sc.WithEvent("go"), sc.WithGuard(ready), sc.WithAction(logAction))
	link(t, cs, final)
	link(t, csInit, x)
	link(t, x, csFinal, sc.WithEvent("end"))
	return chart
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	chart := nestedChart(t)
	desc := New(WithIDGenerator(sequence())).Describe(chart)

	names := make([]string, 0, len(desc.Vertices))
	ids := make([]string, 0, len(desc.Vertices))
	for _, v := range desc.Vertices {
		names = append(names, v.Name())
		ids = append(ids, desc.ID(v))
	}

	if diff := cmp.Diff([]string{"Initial", "a", "cs", "Final", "Initial", "x", "Final"}, names); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"n1", "n2", "n3", "n4", "n5", "n6", "n7"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, desc.Transitions, 5)
}

func TestPlantUML(t *testing.T) {
	t.Parallel()

	out, err := New(WithIDGenerator(sequence())).PlantUML(nestedChart(t))
	require.NoError(t, err)

	want := strings.Join([]string{
		"@startuml",
		`state n2 as "a"`,
		`state n3 as "cs" {`,
		`state n6 as "x"`,
		"n6 --> [*] : end",
		"[*] --> n6",
		"}",
		"n3 --> [*]",
		"[*] --> n2",
		"n2 --> n3 : go [ready] / log",
		"right footer generated by statechart v" + sc.Version,
		"@enduml",
	}, "\n")

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("plantuml mismatch (-want +got):\n%s", diff)
	}
}

func TestPlantUML_ConcurrentChoiceHistory(t *testing.T) {
	t.Parallel()

	chart := sc.NewStatechart("device")
	initial := must[*sc.InitialState](t)(sc.NewInitialState(chart))
	kb := must[*sc.ConcurrentState](t)(sc.NewConcurrentState("keyboard", chart))
	for _, key := range []string{"caps", "num"} {
		region := must[*sc.CompositeState](t)(sc.NewCompositeState(key, kb))
		regionInit := must[*sc.InitialState](t)(sc.NewInitialState(region))
		off := must[*sc.State](t)(sc.NewState(key+" off", region))
		on := must[*sc.State](t)(sc.NewState(key+" on", region))
		link(t, regionInit, off)
		link(t, off, on, sc.WithEvent(key+"_lock"))
	}

	menu := must[*sc.CompositeState](t)(sc.NewCompositeState("menu", chart))
	history := must[*sc.ShallowHistoryState](t)(sc.NewShallowHistoryState(menu))
	item := must[*sc.State](t)(sc.NewState("item", menu))
	choice := must[*sc.ChoiceState](t)(sc.NewChoiceState(chart))
	idle := must[*sc.State](t)(sc.NewState("idle", chart))

	link(t, initial, kb)
	link(t, kb, choice, sc.WithEvent("eject"))
	link(t, choice, idle, sc.WithGuard(sc.GuardFunc(func(context.Context, *sc.Event) bool { return false })))
	link(t, choice, history, sc.WithGuard(sc.ElseGuard{}))
	link(t, history, item)
	_, err := sc.NewInternalTransition(item, sc.WithEvent("tick"), sc.WithAction(sc.ActionFunc(func(context.Context, *sc.Event) error {
		return nil
	})))
	require.NoError(t, err)

	d := New(WithIDGenerator(sequence()))
	out, err := d.PlantUML(chart)
	require.NoError(t, err)
	desc := d.Describe(chart)

	lines := strings.Split(out, "\n")
	id := func(v sc.Vertex) string { return desc.ID(v) }
	assert.Contains(t, lines, fmt.Sprintf("state %s as %q {", id(kb), "keyboard"))
	assert.Contains(t, lines, "--")
	assert.Contains(t, lines, fmt.Sprintf("state %s <<choice>>", id(choice)))
	assert.Contains(t, lines, fmt.Sprintf("state %s as %q", id(history), "H"))
	assert.Contains(t, lines, fmt.Sprintf("%s --> %s : [guard]", id(choice), id(idle)))
	assert.Contains(t, lines, fmt.Sprintf("%s --> %s : [else]", id(choice), id(history)))
	assert.Contains(t, lines, fmt.Sprintf("%s : tick / action", id(item)))
	assert.Equal(t, 1, strings.Count(out, "--\n"), "two regions need one separator")
}

func TestPlantUML_DeepTarget(t *testing.T) {
	t.Parallel()

	chart := sc.NewStatechart("chart")
	initial := must[*sc.InitialState](t)(sc.NewInitialState(chart))
	x := must[*sc.State](t)(sc.NewState("x", chart))
	c := must[*sc.CompositeState](t)(sc.NewCompositeState("c", chart))
	cInit := must[*sc.InitialState](t)(sc.NewInitialState(c))
	a := must[*sc.State](t)(sc.NewState("a", c))
	b := must[*sc.State](t)(sc.NewState("b", c))

	link(t, initial, x)
	link(t, cInit, a)
	link(t, x, b, sc.WithEvent("go"))

	out, err := New(WithIDGenerator(sequence())).PlantUML(chart)
	require.NoError(t, err)

	want := strings.Join([]string{
		"@startuml",
		`state n2 as "x"`,
		`state n3 as "c" {`,
		`state n5 as "a"`,
		`state n6 as "b"`,
		"[*] --> n5",
		"}",
		"[*] --> n2",
		"n2 --> n6 : go",
		"right footer generated by statechart v" + sc.Version,
		"@enduml",
	}, "\n")

	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("plantuml mismatch (-want +got):\n%s", diff)
	}
	assert.NotContains(t, strings.Split(out, "\n"), "[*] --> ")
}

func TestPlantUML_DeepTargetInRegion(t *testing.T) {
	t.Parallel()

	chart := sc.NewStatechart("chart")
	initial := must[*sc.InitialState](t)(sc.NewInitialState(chart))
	x := must[*sc.State](t)(sc.NewState("x", chart))
	cc := must[*sc.ConcurrentState](t)(sc.NewConcurrentState("cc", chart))
	var targets []*sc.State
	for _, name := range []string{"r1", "r2"} {
		region := must[*sc.CompositeState](t)(sc.NewCompositeState(name, cc))
		regionInit := must[*sc.InitialState](t)(sc.NewInitialState(region))
		p := must[*sc.State](t)(sc.NewState(name+" p", region))
		q := must[*sc.State](t)(sc.NewState(name+" q", region))
		link(t, regionInit, p)
		targets = append(targets, q)
	}
	link(t, initial, x)
	link(t, x, targets[0], sc.WithEvent("go"))

	d := New(WithIDGenerator(sequence()))
	desc := d.Describe(chart)
	names := make([]string, 0, len(desc.Vertices))
	for _, v := range desc.Vertices {
		names = append(names, v.Name())
		assert.NotEmpty(t, desc.ID(v))
	}
	assert.Subset(t, names, []string{"cc", "r1", "r2", "r1 p", "r2 p", "r1 q"})

	out, err := d.PlantUML(chart)
	require.NoError(t, err)
	assert.NotContains(t, strings.Split(out, "\n"), "[*] --> ")
}

func TestPlantUML_NoInitialState(t *testing.T) {
	t.Parallel()

	_, err := New().PlantUML(sc.NewStatechart("empty"))
	assert.ErrorIs(t, err, sc.ErrNoInitialState)
}

func TestDefaultIDs(t *testing.T) {
	t.Parallel()

	desc := New().Describe(nestedChart(t))
	seen := map[string]bool{}
	for _, v := range desc.Vertices {
		id := desc.ID(v)
		assert.True(t, strings.HasPrefix(id, "node_"), id)
		assert.NotContains(t, id, "-")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ready", GuardName(sc.CallGuard{Name: "ready"}))
	assert.Equal(t, "1==1", GuardName(sc.EqualGuard{A: 1, B: 1}))
	assert.Equal(t, "not else", GuardName(sc.NotGuard{Guard: sc.ElseGuard{}}))
	assert.Equal(t, "guard", GuardName(sc.GuardFunc(func(context.Context, *sc.Event) bool { return true })))
	assert.Equal(t, "log", ActionName(sc.CallAction{Name: "log"}))
	assert.Equal(t, "action", ActionName(sc.CallAction{}))
}
