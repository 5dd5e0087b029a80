package statechart

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// ConcurrentState holds composite regions that are active at the same time.
// Every dispatched event is offered to every region.
type ConcurrentState struct {
	node
	regions []*CompositeState
}

func NewConcurrentState(name string, parent Vertex, opts ...StateOption) (*ConcurrentState, error) {
	if _, err := parentHolder(parent); err != nil {
		return nil, errors.Wrapf(err, "concurrent state %q", name)
	}
	c := &ConcurrentState{}
	c.node = newNode(c, name, parent, opts)
	register(c)
	return c, nil
}

// AddRegion adopts a region. Regions created with this state as parent are
// added automatically.
func (c *ConcurrentState) AddRegion(region Vertex) error {
	composite, ok := region.(*CompositeState)
	if !ok || composite.parent != Vertex(c) {
		return ErrInvalidRegion
	}
	for _, r := range c.regions {
		if r == composite {
			return nil
		}
	}
	c.regions = append(c.regions, composite)
	return nil
}

func (c *ConcurrentState) Regions() []*CompositeState {
	out := make([]*CompositeState, len(c.regions))
	copy(out, c.regions)
	return out
}

// Finished reports whether every region reached its final state.
func (c *ConcurrentState) Finished() bool {
	for _, r := range c.regions {
		if !r.finished {
			return false
		}
	}
	return true
}

func (c *ConcurrentState) IsActive(name string) bool {
	if !c.active {
		return false
	}
	if c.name == name {
		return true
	}
	for _, r := range c.regions {
		if r.IsActive(name) {
			return true
		}
	}
	return false
}

func (c *ConcurrentState) activate(ctx context.Context, md *Metadata, ev *Event) error {
	if err := c.enter(ctx, md, ev); err != nil {
		return err
	}

	for _, r := range c.regions {
		if r.active || entersRegion(md, r) {
			continue
		}
		if err := r.activate(ctx, md, ev); err != nil {
			return err
		}
		if r.initial == nil {
			return errors.Wrapf(ErrNoInitialState, "region %q", r.name)
		}
		if err := r.initial.activate(ctx, md, ev); err != nil {
			return err
		}
	}
	return nil
}

// entersRegion reports whether the executing transition activates r itself.
func entersRegion(md *Metadata, r *CompositeState) bool {
	if md.transition == nil {
		return false
	}
	for _, v := range md.transition.entrySet {
		if v == Vertex(r) {
			return true
		}
	}
	return false
}

func (c *ConcurrentState) deactivate(ctx context.Context, md *Metadata, ev *Event) error {
	if !c.active {
		return nil
	}
	for _, r := range c.regions {
		if r.active {
			if err := r.deactivate(ctx, md, ev); err != nil {
				return err
			}
		}
	}
	return c.leave(ctx, md, ev)
}

func (c *ConcurrentState) dispatch(ctx context.Context, md *Metadata, ev *Event) (bool, error) {
	if !c.active {
		return false, errors.Wrapf(ErrInactiveDispatch, "concurrent state %q", c.name)
	}

	c.handleInternal(ctx, ev)

	handled := false
	for _, r := range c.regions {
		if !r.active {
			continue
		}
		ok, err := r.dispatch(ctx, md, ev)
		if err != nil {
			return true, err
		}
		if ok {
			handled = true
		}
		if !c.active {
			return true, nil
		}
	}

	if handled {
		if c.Finished() {
			if _, err := c.fire(ctx, md, nil); err != nil {
				return true, err
			}
		}
		return true, nil
	}

	return c.fire(ctx, md, ev)
}

func (c *ConcurrentState) String() string {
	return fmt.Sprintf("ConcurrentState(name=%q, active=%t, regions=%v, finished=%t)",
		c.name, c.active, c.regions, c.Finished())
}
