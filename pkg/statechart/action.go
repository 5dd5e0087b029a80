package statechart

import "context"

// Action is executed when a transition fires, between exiting the source
// states and entering the target states.
type Action interface {
	Execute(ctx context.Context, ev *Event) error
}

type ActionFunc func(ctx context.Context, ev *Event) error

func (f ActionFunc) Execute(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}

// CallAction is a named callback action.
type CallAction struct {
	Name string
	Fn   func(ctx context.Context, ev *Event) error
}

func (a CallAction) Execute(ctx context.Context, ev *Event) error {
	if a.Fn == nil {
		return nil
	}
	return a.Fn(ctx, ev)
}

func (a CallAction) String() string {
	return a.Name
}

// Hook runs on state entry or exit.
type Hook func(ctx context.Context, ev *Event) error

// Activity is a long running do behaviour. Its context is cancelled when the
// owning state exits.
type Activity func(ctx context.Context, ev *Event) error

// InternalHandler reacts to events routed through an active state without
// leaving it.
type InternalHandler func(ctx context.Context, ev *Event)
