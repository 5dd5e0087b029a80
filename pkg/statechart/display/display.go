package display

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ib-77/statechart/pkg/statechart"
)

type Option func(*Display)

// WithIDGenerator replaces the uuid based diagram ids, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(d *Display) {
		if fn != nil {
			d.newID = fn
		}
	}
}

type Display struct {
	newID func() string
}

func New(opts ...Option) *Display {
	d := &Display{newID: nodeID}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func nodeID() string {
	return "node_" + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// Description is the result of walking a chart: every reachable vertex and
// transition in discovery order, each vertex with its diagram id.
type Description struct {
	Vertices    []statechart.Vertex
	Transitions []*statechart.Transition

	ids  map[statechart.Vertex]string
	seen map[*statechart.Transition]bool
}

func (d *Description) ID(v statechart.Vertex) string {
	return d.ids[v]
}

// Describe explores each transition path as far as possible before
// backtracking. Every composite reached continues from its initial state and
// every concurrent state from each of its regions.
func (d *Display) Describe(sc *statechart.Statechart) *Description {
	desc := &Description{
		ids:  map[statechart.Vertex]string{},
		seen: map[*statechart.Transition]bool{},
	}
	if initial := sc.InitialState(); initial != nil {
		d.visit(desc, initial)
	}
	return desc
}

func (d *Display) visit(desc *Description, v statechart.Vertex) {
	if v == nil {
		return
	}
	if _, ok := desc.ids[v]; ok {
		return
	}
	// Deep targets need their enclosing states in the diagram too.
	if p := v.Parent(); p != nil {
		if _, root := p.(*statechart.Statechart); !root {
			d.visit(desc, p)
		}
		if _, ok := desc.ids[v]; ok {
			return
		}
	}

	desc.ids[v] = d.newID()
	desc.Vertices = append(desc.Vertices, v)

	for _, t := range v.Transitions() {
		if !desc.seen[t] {
			desc.seen[t] = true
			desc.Transitions = append(desc.Transitions, t)
		}
		d.visit(desc, t.End())
	}

	// Entering a context, directly or through a deep target, also enters its
	// defaults.
	switch s := v.(type) {
	case *statechart.CompositeState:
		if s.InitialState() != nil {
			d.visit(desc, s.InitialState())
		}
	case *statechart.ConcurrentState:
		for _, r := range s.Regions() {
			d.visit(desc, r)
		}
	}
}

// PlantUML returns the @startuml description of sc.
func (d *Display) PlantUML(sc *statechart.Statechart) (string, error) {
	if sc.InitialState() == nil {
		return "", errors.Wrapf(statechart.ErrNoInitialState, "render %q", sc.Name())
	}
	desc := d.Describe(sc)

	lines := []string{"@startuml"}
	lines = append(lines, desc.context(sc)...)
	for _, t := range desc.Transitions {
		if isInitial(t.Start()) || isFinal(t.End()) {
			continue
		}
		lines = append(lines, desc.transition(t))
	}
	lines = append(lines,
		fmt.Sprintf("right footer generated by statechart v%s", statechart.Version),
		"@enduml")
	return strings.Join(lines, "\n"), nil
}

func (d *Description) context(ctx statechart.Vertex) []string {
	var lines []string
	for _, v := range d.Vertices {
		if v.Parent() != ctx {
			continue
		}
		switch s := v.(type) {
		case *statechart.CompositeState:
			lines = append(lines, fmt.Sprintf("state %s as %q {", d.ID(s), s.Name()))
			lines = append(lines, d.context(s)...)
			lines = append(lines, "}")
		case *statechart.ConcurrentState:
			lines = append(lines, d.concurrent(s)...)
		default:
			if line := d.state(v); line != "" {
				lines = append(lines, line)
			}
		}
		for _, t := range v.Transitions() {
			if isFinal(t.End()) {
				lines = append(lines, d.transition(t))
			}
		}
	}

	if id := d.ID(initialTarget(ctx)); id != "" {
		lines = append(lines, fmt.Sprintf("[*] --> %s", id))
	}
	return lines
}

func (d *Description) concurrent(c *statechart.ConcurrentState) []string {
	lines := []string{fmt.Sprintf("state %s as %q {", d.ID(c), c.Name())}
	regions := c.Regions()
	for i, r := range regions {
		lines = append(lines, d.context(r)...)
		if i < len(regions)-1 {
			lines = append(lines, "--")
		}
	}
	return append(lines, "}")
}

func (d *Description) state(v statechart.Vertex) string {
	switch v.(type) {
	case *statechart.InitialState, *statechart.FinalState:
		return ""
	case *statechart.ChoiceState:
		return fmt.Sprintf("state %s <<choice>>", d.ID(v))
	case *statechart.ShallowHistoryState:
		return fmt.Sprintf("state %s as %q", d.ID(v), "H")
	default:
		return fmt.Sprintf("state %s as %q", d.ID(v), v.Name())
	}
}

func (d *Description) transition(t *statechart.Transition) string {
	start, end := d.ID(t.Start()), d.ID(t.End())
	switch {
	case isInitial(t.Start()):
		start = "[*]"
	case isFinal(t.End()):
		end = "[*]"
	}

	var label strings.Builder
	if t.Event() != "" {
		label.WriteString(" " + t.Event())
	}
	if t.Guard() != nil {
		label.WriteString(" [" + GuardName(t.Guard()) + "]")
	}
	if t.Action() != nil {
		label.WriteString(" / " + ActionName(t.Action()))
	}

	if t.Internal() {
		return fmt.Sprintf("%s :%s", start, label.String())
	}
	if label.Len() == 0 {
		return fmt.Sprintf("%s --> %s", start, end)
	}
	return fmt.Sprintf("%s --> %s :%s", start, end, label.String())
}

// GuardName labels a guard in diagrams: the name of a named guard, or
// "guard".
func GuardName(g statechart.Guard) string {
	if s, ok := g.(fmt.Stringer); ok && s.String() != "" {
		return s.String()
	}
	return "guard"
}

// ActionName labels an action in diagrams: the name of a named action, or
// "action".
func ActionName(a statechart.Action) string {
	if s, ok := a.(fmt.Stringer); ok && s.String() != "" {
		return s.String()
	}
	return "action"
}

func initialTarget(ctx statechart.Vertex) statechart.Vertex {
	var initial *statechart.InitialState
	switch s := ctx.(type) {
	case *statechart.Statechart:
		initial = s.InitialState()
	case *statechart.CompositeState:
		initial = s.InitialState()
	}
	if initial == nil {
		return nil
	}
	transitions := initial.Transitions()
	if len(transitions) == 0 {
		return nil
	}
	return transitions[0].End()
}

func isInitial(v statechart.Vertex) bool {
	_, ok := v.(*statechart.InitialState)
	return ok
}

func isFinal(v statechart.Vertex) bool {
	_, ok := v.(*statechart.FinalState)
	return ok
}
