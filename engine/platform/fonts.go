package platform

import (
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// FontBook is the set of font faces registered with the platform.
type FontBook struct {
	mu    sync.RWMutex
	faces []*resources.FontFace
}

func NewFontBook() *FontBook {
	return &FontBook{}
}

// Add registers a face. Adding the same face twice is a no-op.
func (fb *FontBook) Add(face *resources.FontFace) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, f := range fb.faces {
		if f == face {
			return
		}
	}
	fb.faces = append(fb.faces, face)
}

// Delete removes a face and reports whether it was registered.
func (fb *FontBook) Delete(face *resources.FontFace) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for i, f := range fb.faces {
		if f == face {
			fb.faces = append(fb.faces[:i], fb.faces[i+1:]...)
			return true
		}
	}
	return false
}

func (fb *FontBook) Has(face *resources.FontFace) bool {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	for _, f := range fb.faces {
		if f == face {
			return true
		}
	}
	return false
}

func (fb *FontBook) Len() int {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	return len(fb.faces)
}

// Each calls fn for every registered face, in registration order.
func (fb *FontBook) Each(fn func(face *resources.FontFace)) {
	fb.mu.RLock()
	faces := make([]*resources.FontFace, len(fb.faces))
	copy(faces, fb.faces)
	fb.mu.RUnlock()

	for _, f := range faces {
		fn(f)
	}
}

func (fb *FontBook) Clear() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.faces = nil
}
