package statechart

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type runtimeData struct {
	current Vertex
}

// Metadata is the runtime data shared by every vertex of a statechart: the
// active vertex table, the transition being executed and the do activities
// in flight.
type Metadata struct {
	mu     sync.RWMutex
	active map[Vertex]*runtimeData

	transition *Transition
	target     Vertex
	event      *Event

	logger     *zap.Logger
	runCtx     context.Context
	cancelRun  context.CancelFunc
	activities sync.WaitGroup
}

func NewMetadata(logger *zap.Logger) *Metadata {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metadata{
		active: map[Vertex]*runtimeData{},
		logger: logger,
	}
}

func (m *Metadata) activate(v Vertex) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var parentData *runtimeData
	if p := v.Parent(); p != nil {
		data, ok := m.active[p]
		if !ok {
			return errors.Wrapf(ErrParentInactive, "activate %q", v.Name())
		}
		parentData = data
	}

	data, ok := m.active[v]
	if !ok {
		data = &runtimeData{}
		m.active[v] = data
	}
	data.current = nil

	if parentData != nil {
		parentData.current = v
	}
	return nil
}

func (m *Metadata) deactivate(v Vertex) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.active[v]
	if !ok {
		return
	}
	data.current = nil
	delete(m.active, v)
	if parentData, ok := m.active[v.Parent()]; ok && parentData.current == v {
		parentData.current = nil
	}
}

func (m *Metadata) IsActive(v Vertex) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.active[v]
	return ok
}

// Current returns the child most recently activated under v.
func (m *Metadata) Current(v Vertex) Vertex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.active[v]; ok {
		return data.current
	}
	return nil
}

// Transition returns the transition being executed, if any. Do activities
// may call it while the chart dispatches.
func (m *Metadata) Transition() *Transition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transition
}

// Event returns the event being dispatched, if any.
func (m *Metadata) Event() *Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.event
}

func (m *Metadata) setEvent(ev *Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.event = ev
}

func (m *Metadata) Logger() *zap.Logger {
	return m.logger
}

// Reset clears the active vertex table for reuse.
func (m *Metadata) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = map[Vertex]*runtimeData{}
	m.transition = nil
	m.target = nil
	m.event = nil
}

func (m *Metadata) begin(ctx context.Context) {
	m.runCtx, m.cancelRun = context.WithCancel(context.WithoutCancel(ctx))
}

func (m *Metadata) end() {
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
}

func (m *Metadata) runContext() context.Context {
	if m.runCtx == nil {
		return context.Background()
	}
	return m.runCtx
}

// push is only called from the dispatching goroutine, which may read
// transition and target without the lock.
func (m *Metadata) push(t *Transition, target Vertex) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	prevTransition, prevTarget := m.transition, m.target
	m.transition, m.target = t, target
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.transition, m.target = prevTransition, prevTarget
	}
}

// wait blocks until every do activity has returned or ctx is done.
func (m *Metadata) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.activities.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
