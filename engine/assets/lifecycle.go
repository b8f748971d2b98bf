package assets

import (
	"context"
	"errors"
	"reflect"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// bindLifecycle evicts e as soon as any resource of value is disposed. Siblings of
// a group all point at the same entry, only the first signal has an effect.
func (l *Loader) bindLifecycle(e *entry, value any) {
	for _, el := range elements(value) {
		d, ok := el.(resources.Disposable)
		if !ok {
			continue
		}
		d.OnDispose(func() {
			l.evictEntry(e.src, e)
		})
	}
}

// Unload releases an asset by identifier or by resource. The entry is evicted
// right away, then the owning parser unloads every element. Unknown targets are
// ignored.
func (l *Loader) Unload(ctx context.Context, target any) error {
	src, ok := target.(string)
	if !ok {
		src, ok = l.lookup(target)
		if !ok {
			core.LogDebug("unload of unknown asset %T ignored", target)
			return nil
		}
	}

	l.mu.Lock()
	e, ok := l.entries[src]
	if !ok {
		l.mu.Unlock()
		core.LogDebug("unload of '%s' ignored, not loaded", src)
		return nil
	}
	e.waiters++
	l.mu.Unlock()

	value, err := l.wait(ctx, e)
	if err != nil {
		return err
	}
	l.evictEntry(src, e)
	return l.unloadValue(e.owner, value)
}

func (l *Loader) unloadValue(owner Parser, value any) error {
	u, ok := owner.(Unloader)
	if !ok {
		return nil
	}
	var errs []error
	for _, el := range elements(value) {
		if err := u.Unload(el); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// lookup finds the identifier of a resolved resource, or of any element of a
// resolved group.
func (l *Loader) lookup(target any) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for src, e := range l.entries {
		if !e.settled() || e.err != nil {
			continue
		}
		if sameAsset(e.value, target) {
			return src, true
		}
		if g, ok := e.value.(resources.Group); ok {
			for _, el := range g {
				if sameAsset(el, target) {
					return src, true
				}
			}
		}
	}
	return "", false
}

// sameAsset reports whether a and b are the same instance.
func sameAsset(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if ta.Kind() == reflect.Slice && va.Len() != vb.Len() {
			return false
		}
		return va.Pointer() == vb.Pointer()
	}
	if ta.Comparable() {
		return a == b
	}
	return false
}
