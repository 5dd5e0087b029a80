package model

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrMissingName       = errors.New("name is required")
	ErrDuplicateState    = errors.New("duplicate state name")
	ErrUnknownKind       = errors.New("unknown state kind")
	ErrUnknownState      = errors.New("unknown state")
	ErrInvalidInitial    = errors.New("initial must name a direct child")
	ErrInvalidState      = errors.New("invalid state definition")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Validate reports every structural problem of the definition at once.
func (d *Definition) Validate() error {
	var result error

	if d.Name == "" {
		result = multierror.Append(result, errors.Wrap(ErrMissingName, "statechart"))
	}
	if !hasChild(d.States, d.Initial) {
		result = multierror.Append(result, errors.Wrapf(ErrInvalidInitial, "statechart initial %q", d.Initial))
	}

	regions := map[*StateDef]bool{}
	d.walk(func(s, _ *StateDef) {
		for i := range s.Regions {
			regions[&s.Regions[i]] = true
		}
	})

	byName := map[string]*StateDef{}
	d.walk(func(s, parent *StateDef) {
		if s.Name == "" {
			result = multierror.Append(result, errors.Wrap(ErrMissingName, "state"))
		} else if _, dup := byName[s.Name]; dup {
			result = multierror.Append(result, errors.Wrapf(ErrDuplicateState, "%q", s.Name))
		} else {
			byName[s.Name] = s
		}

		composite := parent != nil && (parent.kind() == KindComposite || regions[parent])
		for _, err := range validateState(s, parent, regions[s], composite) {
			result = multierror.Append(result, err)
		}
	})

	for i, t := range d.Transitions {
		for _, err := range validateTransition(t, byName) {
			result = multierror.Append(result, errors.Wrapf(err, "transition %d", i))
		}
	}
	return result
}

func validateState(s, parent *StateDef, region, inComposite bool) []error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, errors.Wrapf(ErrInvalidState, "%q: %s", s.Name, fmt.Sprintf(format, args...)))
	}

	kind := s.kind()
	if region {
		if s.Kind != "" && kind != KindComposite {
			invalid("a region must be a composite state, got %s", kind)
		}
		if s.Initial == "" {
			errs = append(errs, errors.Wrapf(ErrInvalidInitial, "region %q has no initial", s.Name))
		}
		kind = KindComposite
	}

	switch kind {
	case KindState, KindComposite, KindConcurrent, KindFinal, KindChoice, KindHistory:
	default:
		errs = append(errs, errors.Wrapf(ErrUnknownKind, "%q: %s", s.Name, kind))
		return errs
	}

	if len(s.States) > 0 && kind != KindComposite {
		invalid("only composite states have substates")
	}
	if len(s.Regions) > 0 && kind != KindConcurrent {
		invalid("only concurrent states have regions")
	}
	if kind == KindConcurrent && len(s.Regions) == 0 {
		invalid("a concurrent state needs at least one region")
	}
	if s.Initial != "" {
		if kind != KindComposite {
			invalid("only composite states have an initial state")
		} else if !hasChild(s.States, s.Initial) {
			errs = append(errs, errors.Wrapf(ErrInvalidInitial, "%q initial %q", s.Name, s.Initial))
		}
	}

	pseudo := kind == KindChoice || kind == KindHistory
	if (pseudo || kind == KindFinal) && (s.Entry != "" || s.Exit != "" || s.Do != "") {
		invalid("%s states have no entry, exit or do behaviour", kind)
	}
	if (pseudo || kind == KindFinal) && len(s.Scope) > 0 {
		invalid("%s states cannot hold a scope", kind)
	}

	if kind == KindHistory {
		if !inComposite {
			invalid("a history state must be inside a composite state")
		}
		if s.HistoryDefault != "" && (!inComposite || !hasChild(parent.States, s.HistoryDefault)) {
			errs = append(errs, errors.Wrapf(ErrUnknownState, "%q history default %q", s.Name, s.HistoryDefault))
		}
	} else if s.HistoryDefault != "" {
		invalid("only history states have a history default")
	}
	return errs
}

func validateTransition(t TransitionDef, byName map[string]*StateDef) []error {
	var errs []error

	from, ok := byName[t.From]
	if !ok {
		errs = append(errs, errors.Wrapf(ErrUnknownState, "from %q", t.From))
	} else if from.kind() == KindFinal {
		errs = append(errs, errors.Wrapf(ErrInvalidTransition, "final state %q has no outgoing transitions", t.From))
	}

	if t.Internal {
		if t.Event == "" {
			errs = append(errs, errors.Wrap(ErrInvalidTransition, "internal transition needs an event"))
		}
		if t.To != "" && t.To != t.From {
			errs = append(errs, errors.Wrapf(ErrInvalidTransition, "internal transition cannot target %q", t.To))
		}
		return errs
	}

	if _, ok := byName[t.To]; !ok {
		errs = append(errs, errors.Wrapf(ErrUnknownState, "to %q", t.To))
	}
	return errs
}

func hasChild(states []StateDef, name string) bool {
	if name == "" {
		return false
	}
	for _, s := range states {
		if s.Name == name {
			return true
		}
	}
	return false
}
