package model

import (
	"github.com/pkg/errors"

	"github.com/ib-77/statechart/pkg/statechart"
)

// Build validates the definition and compiles it into a chart. A nil
// registry only resolves the built-in guards.
func (d *Definition) Build(reg *Registry, opts ...statechart.ChartOption) (*statechart.Statechart, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if len(d.Scope) > 0 {
		opts = append([]statechart.ChartOption{statechart.WithRootScope(d.Scope)}, opts...)
	}

	sc := statechart.NewStatechart(d.Name, opts...)
	b := &builder{reg: reg, vertices: map[string]statechart.Vertex{}}

	if err := b.context(sc, d.Initial, d.States); err != nil {
		return nil, err
	}
	for i, t := range d.Transitions {
		if err := b.transition(t); err != nil {
			return nil, errors.Wrapf(err, "transition %d", i)
		}
	}
	return sc, nil
}

type builder struct {
	reg      *Registry
	vertices map[string]statechart.Vertex
}

// context creates the children of parent, then its initial and history
// default transitions, which may point at any sibling.
func (b *builder) context(parent statechart.Vertex, initial string, states []StateDef) error {
	var initialState *statechart.InitialState
	if initial != "" {
		var err error
		if initialState, err = statechart.NewInitialState(parent); err != nil {
			return err
		}
	}

	for i := range states {
		if err := b.state(parent, &states[i]); err != nil {
			return err
		}
	}

	if initialState != nil {
		if _, err := statechart.NewTransition(initialState, b.vertices[initial]); err != nil {
			return err
		}
	}
	for _, s := range states {
		if s.kind() != KindHistory || s.HistoryDefault == "" {
			continue
		}
		if _, err := statechart.NewTransition(b.vertices[s.Name], b.vertices[s.HistoryDefault]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) state(parent statechart.Vertex, s *StateDef) error {
	opts, err := b.options(s)
	if err != nil {
		return errors.Wrapf(err, "state %q", s.Name)
	}

	var v statechart.Vertex
	switch s.kind() {
	case KindState:
		v, err = statechart.NewState(s.Name, parent, opts...)
	case KindComposite:
		var cs *statechart.CompositeState
		if cs, err = statechart.NewCompositeState(s.Name, parent, opts...); err == nil {
			v = cs
			b.vertices[s.Name] = v
			err = b.context(cs, s.Initial, s.States)
		}
	case KindConcurrent:
		var cc *statechart.ConcurrentState
		if cc, err = statechart.NewConcurrentState(s.Name, parent, opts...); err == nil {
			v = cc
			b.vertices[s.Name] = v
			err = b.regions(cc, s.Regions)
		}
	case KindFinal:
		v, err = statechart.NewFinalState(parent)
	case KindChoice:
		v, err = statechart.NewChoiceState(parent)
	case KindHistory:
		v, err = statechart.NewShallowHistoryState(parent)
	default:
		err = errors.Wrapf(ErrUnknownKind, "%q: %s", s.Name, s.kind())
	}
	if err != nil {
		return err
	}
	b.vertices[s.Name] = v
	return nil
}

func (b *builder) regions(cc *statechart.ConcurrentState, regions []StateDef) error {
	for i := range regions {
		r := &regions[i]
		opts, err := b.options(r)
		if err != nil {
			return errors.Wrapf(err, "region %q", r.Name)
		}
		region, err := statechart.NewCompositeState(r.Name, cc, opts...)
		if err != nil {
			return err
		}
		b.vertices[r.Name] = region
		if err := b.context(region, r.Initial, r.States); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) options(s *StateDef) ([]statechart.StateOption, error) {
	var opts []statechart.StateOption
	if len(s.Scope) > 0 {
		opts = append(opts, statechart.WithScope(s.Scope))
	}
	if s.Entry != "" {
		h, err := b.reg.hook(s.Entry)
		if err != nil {
			return nil, errors.Wrap(err, "entry")
		}
		opts = append(opts, statechart.WithEntry(h))
	}
	if s.Exit != "" {
		h, err := b.reg.hook(s.Exit)
		if err != nil {
			return nil, errors.Wrap(err, "exit")
		}
		opts = append(opts, statechart.WithExit(h))
	}
	if s.Do != "" {
		a, err := b.reg.activity(s.Do)
		if err != nil {
			return nil, errors.Wrap(err, "do")
		}
		opts = append(opts, statechart.WithDo(a))
	}
	return opts, nil
}

func (b *builder) transition(t TransitionDef) error {
	var opts []statechart.TransitionOption
	if t.Event != "" {
		opts = append(opts, statechart.WithEvent(t.Event))
	}
	if t.Guard != "" {
		g, err := b.reg.guard(t.Guard)
		if err != nil {
			return err
		}
		opts = append(opts, statechart.WithGuard(g))
	}
	if t.Action != "" {
		a, err := b.reg.action(t.Action)
		if err != nil {
			return err
		}
		opts = append(opts, statechart.WithAction(a))
	}

	from := b.vertices[t.From]
	if t.Internal {
		_, err := statechart.NewInternalTransition(from, opts...)
		return err
	}
	_, err := statechart.NewTransition(from, b.vertices[t.To], opts...)
	return err
}
