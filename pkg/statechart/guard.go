package statechart

import (
	"context"
	"fmt"
	"reflect"
)

// Guard is a boolean condition evaluated when an event is dispatched.
// Checking a guard must not have side effects.
type Guard interface {
	Check(ctx context.Context, ev *Event) bool
}

type GuardFunc func(ctx context.Context, ev *Event) bool

func (f GuardFunc) Check(ctx context.Context, ev *Event) bool {
	return f(ctx, ev)
}

// CallGuard is a named callback guard.
type CallGuard struct {
	Name string
	Fn   func(ctx context.Context, ev *Event) bool
}

func (g CallGuard) Check(ctx context.Context, ev *Event) bool {
	if g.Fn == nil {
		return false
	}
	return g.Fn(ctx, ev)
}

func (g CallGuard) String() string {
	return g.Name
}

// EqualGuard passes when A and B are deeply equal.
type EqualGuard struct {
	A, B any
}

func (g EqualGuard) Check(_ context.Context, _ *Event) bool {
	return reflect.DeepEqual(g.A, g.B)
}

func (g EqualGuard) String() string {
	return fmt.Sprintf("%v==%v", g.A, g.B)
}

// ElseGuard always passes. Use it as the last branch of a choice.
type ElseGuard struct{}

func (ElseGuard) Check(_ context.Context, _ *Event) bool {
	return true
}

func (ElseGuard) String() string {
	return "else"
}

type NotGuard struct {
	Guard Guard
}

func (g NotGuard) Check(ctx context.Context, ev *Event) bool {
	return !g.Guard.Check(ctx, ev)
}

func (g NotGuard) String() string {
	if s, ok := g.Guard.(fmt.Stringer); ok {
		return "not " + s.String()
	}
	return "not guard"
}
