package model

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/ib-77/statechart/pkg/statechart"
)

var (
	ErrUnknownGuard    = errors.New("unknown guard")
	ErrUnknownAction   = errors.New("unknown action")
	ErrUnknownHook     = errors.New("unknown hook")
	ErrUnknownActivity = errors.New("unknown activity")
)

// Registry resolves the names used in a Definition. The guard "else" is
// always available and "not <guard>" negates a registered guard.
type Registry struct {
	guards     map[string]statechart.Guard
	actions    map[string]statechart.Action
	hooks      map[string]statechart.Hook
	activities map[string]statechart.Activity
}

func NewRegistry() *Registry {
	return &Registry{
		guards:     map[string]statechart.Guard{},
		actions:    map[string]statechart.Action{},
		hooks:      map[string]statechart.Hook{},
		activities: map[string]statechart.Activity{},
	}
}

// Guard registers fn as a named guard so diagrams show its name.
func (r *Registry) Guard(name string, fn func(ctx context.Context, ev *statechart.Event) bool) *Registry {
	r.guards[name] = statechart.CallGuard{Name: name, Fn: fn}
	return r
}

// Action registers fn as a named action.
func (r *Registry) Action(name string, fn func(ctx context.Context, ev *statechart.Event) error) *Registry {
	r.actions[name] = statechart.CallAction{Name: name, Fn: fn}
	return r
}

func (r *Registry) Hook(name string, h statechart.Hook) *Registry {
	r.hooks[name] = h
	return r
}

func (r *Registry) Activity(name string, a statechart.Activity) *Registry {
	r.activities[name] = a
	return r
}

func (r *Registry) guard(name string) (statechart.Guard, error) {
	if name == "else" {
		return statechart.ElseGuard{}, nil
	}
	if inner, ok := strings.CutPrefix(name, "not "); ok {
		g, err := r.guard(strings.TrimSpace(inner))
		if err != nil {
			return nil, err
		}
		return statechart.NotGuard{Guard: g}, nil
	}
	if g, ok := r.guards[name]; ok {
		return g, nil
	}
	return nil, errors.Wrapf(ErrUnknownGuard, "%q", name)
}

func (r *Registry) action(name string) (statechart.Action, error) {
	if a, ok := r.actions[name]; ok {
		return a, nil
	}
	return nil, errors.Wrapf(ErrUnknownAction, "%q", name)
}

func (r *Registry) hook(name string) (statechart.Hook, error) {
	if h, ok := r.hooks[name]; ok {
		return h, nil
	}
	return nil, errors.Wrapf(ErrUnknownHook, "%q", name)
}

func (r *Registry) activity(name string) (statechart.Activity, error) {
	if a, ok := r.activities[name]; ok {
		return a, nil
	}
	return nil, errors.Wrapf(ErrUnknownActivity, "%q", name)
}
