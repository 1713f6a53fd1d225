package tmplog

import "sync"

// ScopeSnapshot is the rendered state of one BeginScope call.
type ScopeSnapshot struct {
	Template   string
	Message    string
	Properties Properties
}

// ScopeStack is a LIFO of scope snapshots owned by one sink provider and
// shared by every logger category routed to it. The zero value is ready to
// use.
type ScopeStack struct {
	mu    sync.Mutex
	items []ScopeSnapshot
}

// Push adds s on top of the stack.
func (s *ScopeStack) Push(snap ScopeSnapshot) {
	s.mu.Lock()
	s.items = append(s.items, snap)
	s.mu.Unlock()
}

// Pop removes the most recently pushed snapshot. Popping an empty stack is a
// no-op and reports false.
func (s *ScopeStack) Pop() (ScopeSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	if n == 0 {
		return ScopeSnapshot{}, false
	}
	top := s.items[n-1]
	s.items[n-1] = ScopeSnapshot{}
	s.items = s.items[:n-1]
	return top, true
}

// Len returns the stack depth.
func (s *ScopeStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the active scopes bottom to top.
func (s *ScopeStack) Snapshot() []ScopeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return nil
	}
	out := make([]ScopeSnapshot, len(s.items))
	copy(out, s.items)
	return out
}

// ForEach visits the active scopes bottom to top, so the innermost scope is
// visited last. The stack is copied first; visit may push or pop.
func (s *ScopeStack) ForEach(visit func(ScopeSnapshot)) {
	for _, snap := range s.Snapshot() {
		visit(snap)
	}
}

// ScopeHandle ends a scope started by Logger.BeginScope.
type ScopeHandle struct {
	stacks []*ScopeStack
	once   sync.Once
}

// End pops the scope from every stack it was pushed to. Calling End more than
// once has no further effect; ending scopes out of order pops whatever is on
// top, matching stack semantics.
func (h *ScopeHandle) End() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		for _, s := range h.stacks {
			s.Pop()
		}
	})
}
