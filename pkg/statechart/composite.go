package statechart

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// CompositeState contains other vertices. When created inside a
// ConcurrentState it becomes one of its regions.
type CompositeState struct {
	node
	container
	history *ShallowHistoryState
}

func NewCompositeState(name string, parent Vertex, opts ...StateOption) (*CompositeState, error) {
	concurrent, isRegion := parent.(*ConcurrentState)
	if !isRegion {
		if _, err := parentHolder(parent); err != nil {
			return nil, errors.Wrapf(err, "composite state %q", name)
		}
	}

	c := &CompositeState{}
	c.node = newNode(c, name, parent, opts)
	if isRegion {
		concurrent.regions = append(concurrent.regions, c)
	}
	register(c)
	return c, nil
}

func (c *CompositeState) IsActive(name string) bool {
	return c.container.isActive(&c.node, name)
}

// History returns the shallow history pseudostate, or nil.
func (c *CompositeState) History() *ShallowHistoryState {
	return c.history
}

func (c *CompositeState) activate(ctx context.Context, md *Metadata, ev *Event) error {
	if err := c.enter(ctx, md, ev); err != nil {
		return err
	}

	// Only a transition ending here enters the default substate; deeper
	// targets are entered by the transition itself.
	if md.target == Vertex(c) {
		if c.initial == nil {
			return errors.Wrapf(ErrNoInitialState, "composite state %q", c.name)
		}
		return c.initial.activate(ctx, md, ev)
	}
	return nil
}

func (c *CompositeState) deactivate(ctx context.Context, md *Metadata, ev *Event) error {
	if !c.active {
		return nil
	}

	if c.current != nil {
		c.remember(c.current)
	}

	if c.current != nil && c.current.Active() {
		if err := c.current.deactivate(ctx, md, ev); err != nil {
			return err
		}
	}

	err := c.leave(ctx, md, ev)
	c.container.reset()
	return err
}

// remember records v in the history pseudostate, if there is one. Final and
// pseudo states are never restored.
func (c *CompositeState) remember(v Vertex) {
	if c.history == nil || isPseudo(v) {
		return
	}
	if _, final := v.(*FinalState); final {
		return
	}
	c.history.state = v
}

func (c *CompositeState) dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	if !c.active {
		return false, errors.Wrapf(ErrInactiveDispatch, "composite state %q", c.name)
	}

	c.handleInternal(ctx, ev)

	if c.current == nil && c.initial != nil {
		if err := c.initial.activate(ctx, md, nil); err != nil {
			return false, err
		}
	}

	if c.current != nil {
		handled, err := c.current.dispatch(ctx, md, ev)
		if err != nil {
			return handled, err
		}
		if handled {
			// The substate consumed the event and finished this state, so
			// completion transitions get their chance.
			if c.active && c.finished {
				if _, err := c.fireOwn(ctx, md, nil); err != nil {
					return true, err
				}
			}
			return true, nil
		}
	}

	return c.fireOwn(ctx, md, ev)
}

func (c *CompositeState) fireOwn(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	for _, t := range c.transitions {
		if !t.Allowed(ctx, ev) {
			continue
		}
		if c.isLocal(t) && c.current != nil {
			if err := c.current.deactivate(ctx, md, ev); err != nil {
				return true, err
			}
		}
		return true, t.fire(ctx, md, ev)
	}
	return false, nil
}

// isLocal reports whether t leads from this state into one of its
// descendants without exiting this state.
func (c *CompositeState) isLocal(t *Transition) bool {
	if t.start == t.end {
		return false
	}
	for _, v := range t.exitSet {
		if v == Vertex(c) {
			return false
		}
	}
	return true
}

func (c *CompositeState) String() string {
	return fmt.Sprintf("CompositeState(name=%q, active=%t, current=%v, finished=%t)",
		c.name, c.active, c.current, c.finished)
}
