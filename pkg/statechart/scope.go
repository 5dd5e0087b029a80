package statechart

import "sync"

// Scope holds variables visible to a vertex and all of its descendants.
// Lookups walk outward; writes land in the nearest scope already defining
// the key, so inner states can mutate variables owned by an outer state.
type Scope struct {
	mu     sync.RWMutex
	parent *Scope
	vars   map[string]any
}

func newScope(parent *Scope, vars map[string]any) *Scope {
	s := &Scope{parent: parent, vars: map[string]any{}}
	for k, v := range vars {
		s.vars[k] = v
	}
	return s
}

func (s *Scope) Get(key string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.vars[key]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) Set(key string, value any) {
	owner := s.owner(key)
	if owner == nil {
		owner = s
	}
	owner.mu.Lock()
	owner.vars[key] = value
	owner.mu.Unlock()
}

// Delete removes key from the nearest scope defining it.
func (s *Scope) Delete(key string) {
	owner := s.owner(key)
	if owner == nil {
		return
	}
	owner.mu.Lock()
	delete(owner.vars, key)
	owner.mu.Unlock()
}

// Local returns a copy of the variables defined directly on this scope.
func (s *Scope) Local() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// All returns the merged view of this scope and its ancestors.
func (s *Scope) All() map[string]any {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	out := map[string]any{}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Local() {
			out[k] = v
		}
	}
	return out
}

func (s *Scope) owner(key string) *Scope {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		_, ok := cur.vars[key]
		cur.mu.RUnlock()
		if ok {
			return cur
		}
	}
	return nil
}
