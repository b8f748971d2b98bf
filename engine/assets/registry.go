package assets

import (
	"reflect"
	"sync"

	"golang.org/x/exp/slices"
)

// registry is the ordered list of parsers. Order is significant: the first
// matching parser wins every stage.
type registry struct {
	mu      sync.RWMutex
	parsers []Parser
}

func (r *registry) add(parsers ...Parser) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, p := range parsers {
		if p == nil || r.indexOf(p) >= 0 {
			continue
		}
		r.parsers = append(r.parsers, p)
		added++
	}
	return added
}

func (r *registry) remove(p Parser) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(p)
	if i < 0 {
		return false
	}
	r.parsers = slices.Delete(r.parsers, i, i+1)
	return true
}

// indexOf must be called with the lock held.
func (r *registry) indexOf(p Parser) int {
	return slices.IndexFunc(r.parsers, func(q Parser) bool {
		return sameParser(p, q)
	})
}

// snapshot returns the current order. Resolutions work on a snapshot so later
// registry changes never affect them.
func (r *registry) snapshot() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.parsers)
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.parsers)
}

func findLoadParser(parsers []Parser, src string) (LoadParser, bool) {
	for _, p := range parsers {
		if lp, ok := p.(LoadParser); ok && lp.Test(src) {
			return lp, true
		}
	}
	return nil, false
}

func findTransformParser(parsers []Parser, value any, src string) (TransformParser, bool) {
	for _, p := range parsers {
		if tp, ok := p.(TransformParser); ok && tp.TestTransform(value, src) {
			return tp, true
		}
	}
	return nil, false
}

// sameParser compares identities without panicking on parsers whose dynamic type
// is not comparable.
func sameParser(a, b Parser) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
