package core

import "sync"

// Signal is a one-shot notification. Listeners registered before Fire run once, in
// registration order; listeners registered after Fire run immediately.
type Signal struct {
	mu        sync.Mutex
	fired     bool
	listeners []func()
}

// Subscribe registers fn to run when the signal fires.
func (s *Signal) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		fn()
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Fire notifies every listener. Only the first call has an effect; it reports whether
// this call was the one that fired.
func (s *Signal) Fire() bool {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return false
	}
	s.fired = true
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	// run outside the lock, listeners are free to touch the owner again
	for _, fn := range listeners {
		fn()
	}
	return true
}

// Fired reports whether the signal already fired.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
