package assets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// memResource is a disposable test resource.
type memResource struct {
	src      string
	weight   any
	disposed core.Signal
}

func (r *memResource) OnDispose(fn func()) { r.disposed.Subscribe(fn) }

func (r *memResource) Dispose() { r.disposed.Fire() }

// fakeParser claims identifiers by extension and produces memResources. When
// gate is set, Load blocks until it is closed or the context is done.
type fakeParser struct {
	name string
	ext  string
	gate chan struct{}
	load func(ctx context.Context, req Request, h Handle) (any, error)

	calls    atomic.Int32
	unloaded atomic.Int32
}

func newFakeParser(name, ext string) *fakeParser {
	return &fakeParser{name: name, ext: ext}
}

func (p *fakeParser) Name() string { return p.name }

func (p *fakeParser) Test(src string) bool { return Ext(src) == p.ext }

func (p *fakeParser) Load(ctx context.Context, req Request, h Handle) (any, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.load != nil {
		return p.load(ctx, req, h)
	}
	return &memResource{src: req.Src}, nil
}

func (p *fakeParser) Unload(asset any) error {
	p.unloaded.Add(1)
	if r, ok := asset.(*memResource); ok {
		r.Dispose()
	}
	return nil
}

// fakeTransform claims values accepted by claims and replaces them with apply.
type fakeTransform struct {
	name   string
	claims func(value any) bool
	apply  func(value any) any

	calls    atomic.Int32
	unloaded atomic.Int32
}

func (t *fakeTransform) Name() string { return t.name }

func (t *fakeTransform) TestTransform(value any, src string) bool { return t.claims(value) }

func (t *fakeTransform) Transform(ctx context.Context, value any, req Request, h Handle) (any, error) {
	t.calls.Add(1)
	return t.apply(value), nil
}

func (t *fakeTransform) Unload(asset any) error {
	t.unloaded.Add(1)
	return nil
}

var errNotFound = errors.New("not found")

// memFiles is an in-memory fetcher.
type memFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *memFiles) Fetch(ctx context.Context, src string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[src]
	if !ok {
		return nil, fmt.Errorf("'%s': %w", src, errNotFound)
	}
	return b, nil
}

func newTestLoader(t *testing.T, opts ...Option) *Loader {
	t.Helper()
	files := &memFiles{files: map[string][]byte{}}
	opts = append([]Option{WithPlatform(platform.New(files))}, opts...)
	l, err := New(opts...)
	require.NoError(t, err)
	return l
}

func group(n int, src string) resources.Group {
	g := make(resources.Group, n)
	for i := range g {
		g[i] = &memResource{src: fmt.Sprintf("%s#%d", src, i)}
	}
	return g
}
