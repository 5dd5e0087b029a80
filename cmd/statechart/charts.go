package main

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ib-77/statechart/pkg/statechart"
	"github.com/ib-77/statechart/pkg/statechart/model"
)

// builtins resolves the names every chart run from the command line may use.
func builtins() *model.Registry {
	logEvent := func(what string) func(context.Context, *statechart.Event) error {
		return func(_ context.Context, ev *statechart.Event) error {
			logger.Info(what, zap.Stringer("event", ev))
			return nil
		}
	}
	return model.NewRegistry().
		Guard("has_data", func(_ context.Context, ev *statechart.Event) bool {
			return ev != nil && len(ev.Data) > 0
		}).
		Action("log", logEvent("action")).
		Hook("log", logEvent("hook"))
}

// placeholders resolves every name in def to an inert implementation, so a
// chart can be rendered without its behaviour.
func placeholders(def *model.Definition) *model.Registry {
	reg := model.NewRegistry()
	for _, t := range def.Transitions {
		if g := strings.TrimSpace(strings.TrimPrefix(t.Guard, "not ")); g != "" && g != "else" {
			reg.Guard(g, nil)
		}
		if t.Action != "" {
			reg.Action(t.Action, nil)
		}
	}

	var visit func(states []model.StateDef)
	visit = func(states []model.StateDef) {
		for _, s := range states {
			for _, h := range []string{s.Entry, s.Exit} {
				if h != "" {
					reg.Hook(h, func(context.Context, *statechart.Event) error { return nil })
				}
			}
			if s.Do != "" {
				reg.Activity(s.Do, func(context.Context, *statechart.Event) error { return nil })
			}
			visit(s.States)
			visit(s.Regions)
		}
	}
	visit(def.States)
	return reg
}

func loadChart(path string) (*statechart.Statechart, error) {
	def, err := model.Load(path)
	if err != nil {
		return nil, err
	}
	return def.Build(builtins(), statechart.WithLogger(logger))
}
