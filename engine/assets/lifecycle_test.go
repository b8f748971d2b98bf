package assets

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/resources"
)

func TestDisposalEvicts(t *testing.T) {
	ctx := context.Background()
	p := newFakeParser("mem", "mem")
	l := newTestLoader(t)
	l.AddParser(p)

	first, err := LoadAs[*memResource](ctx, l, "a.mem")
	require.NoError(t, err)
	require.True(t, l.Has("a.mem"))

	first.Dispose()
	assert.False(t, l.Has("a.mem"))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.Metrics().Evictions))

	second, err := LoadAs[*memResource](ctx, l, "a.mem")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestDisposingOneGroupElementEvictsTheGroup(t *testing.T) {
	ctx := context.Background()
	p := newFakeParser("grp", "grp")
	p.load = func(ctx context.Context, req Request, h Handle) (any, error) {
		return group(3, req.Src), nil
	}
	l := newTestLoader(t)
	l.AddParser(p)

	v, err := l.Load(ctx, "faces.grp")
	require.NoError(t, err)
	g := v.(resources.Group)

	g[1].(*memResource).Dispose()
	assert.False(t, l.Has("faces.grp"))

	g[0].(*memResource).Dispose()
	g[2].(*memResource).Dispose()
	assert.Equal(t, 1.0, testutil.ToFloat64(l.Metrics().Evictions))
}

func TestStaleDisposalKeepsNewerEntry(t *testing.T) {
	ctx := context.Background()
	l := newTestLoader(t)
	l.AddParser(newFakeParser("mem", "mem"))

	old, err := LoadAs[*memResource](ctx, l, "a.mem")
	require.NoError(t, err)
	require.True(t, l.Evict("a.mem"))
	assert.False(t, l.Evict("a.mem"))

	fresh, err := LoadAs[*memResource](ctx, l, "a.mem")
	require.NoError(t, err)
	require.NotSame(t, old, fresh)

	old.Dispose()
	assert.True(t, l.Has("a.mem"))
}

func TestUnload(t *testing.T) {
	ctx := context.Background()

	t.Run("by identifier", func(t *testing.T) {
		p := newFakeParser("mem", "mem")
		l := newTestLoader(t)
		l.AddParser(p)

		r, err := LoadAs[*memResource](ctx, l, "a.mem")
		require.NoError(t, err)

		require.NoError(t, l.Unload(ctx, "a.mem"))
		assert.False(t, l.Has("a.mem"))
		assert.Equal(t, int32(1), p.unloaded.Load())
		assert.True(t, r.disposed.Fired())
	})

	t.Run("by resource", func(t *testing.T) {
		p := newFakeParser("mem", "mem")
		l := newTestLoader(t)
		l.AddParser(p)

		r, err := LoadAs[*memResource](ctx, l, "a.mem")
		require.NoError(t, err)

		require.NoError(t, l.Unload(ctx, r))
		assert.False(t, l.Has("a.mem"))
		assert.Equal(t, int32(1), p.unloaded.Load())
	})

	t.Run("by group element", func(t *testing.T) {
		p := newFakeParser("grp", "grp")
		p.load = func(ctx context.Context, req Request, h Handle) (any, error) {
			return group(3, req.Src), nil
		}
		l := newTestLoader(t)
		l.AddParser(p)

		v, err := l.Load(ctx, "faces.grp")
		require.NoError(t, err)

		require.NoError(t, l.Unload(ctx, v.(resources.Group)[2]))
		assert.False(t, l.Has("faces.grp"))
		assert.Equal(t, int32(3), p.unloaded.Load())
	})

	t.Run("unknown targets are ignored", func(t *testing.T) {
		p := newFakeParser("mem", "mem")
		l := newTestLoader(t)
		l.AddParser(p)

		assert.NoError(t, l.Unload(ctx, "never-loaded.mem"))
		assert.NoError(t, l.Unload(ctx, &memResource{}))
		assert.NoError(t, l.Unload(ctx, 42))
		assert.Equal(t, int32(0), p.unloaded.Load())
	})

	t.Run("waits for a pending load", func(t *testing.T) {
		p := newFakeParser("mem", "mem")
		p.gate = make(chan struct{})
		l := newTestLoader(t)
		l.AddParser(p)

		loaded := make(chan any, 1)
		go func() {
			v, _ := l.Load(ctx, "a.mem")
			loaded <- v
		}()
		require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)

		unloaded := make(chan error, 1)
		go func() { unloaded <- l.Unload(ctx, "a.mem") }()
		require.Eventually(t, func() bool {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.entries["a.mem"].waiters == 2
		}, time.Second, time.Millisecond)

		close(p.gate)
		require.NoError(t, <-unloaded)
		assert.NotNil(t, <-loaded)
		assert.False(t, l.Has("a.mem"))
		assert.Equal(t, int32(1), p.unloaded.Load())
	})
}

func TestEvictPendingStillDelivers(t *testing.T) {
	p := newFakeParser("mem", "mem")
	p.gate = make(chan struct{})
	l := newTestLoader(t)
	l.AddParser(p)

	loaded := make(chan any, 1)
	go func() {
		v, err := l.Load(context.Background(), "a.mem")
		assert.NoError(t, err)
		loaded <- v
	}()
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.True(t, l.Evict("a.mem"))
	close(p.gate)
	r := (<-loaded).(*memResource)
	assert.False(t, l.Has("a.mem"))

	// the evicted instance is not bound to the cache anymore
	r.Dispose()
	assert.Equal(t, 1.0, testutil.ToFloat64(l.Metrics().Evictions))
}

func TestEvictPendingKeepsOneResolution(t *testing.T) {
	p := newFakeParser("mem", "mem")
	p.gate = make(chan struct{})
	l := newTestLoader(t)
	l.AddParser(p)

	results := make(chan any, 2)
	load := func() {
		v, err := l.Load(context.Background(), "a.mem")
		assert.NoError(t, err)
		results <- v
	}
	go load()
	require.Eventually(t, func() bool { return p.calls.Load() == 1 }, time.Second, time.Millisecond)

	require.True(t, l.Evict("a.mem"))
	assert.False(t, l.Evict("a.mem"))
	assert.True(t, l.Has("a.mem"))

	go load()
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		e, ok := l.entries["a.mem"]
		return ok && e.waiters == 2
	}, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), p.calls.Load())

	close(p.gate)
	first, second := <-results, <-results
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), p.calls.Load())
	assert.False(t, l.Has("a.mem"))

	again, err := l.Load(context.Background(), "a.mem")
	require.NoError(t, err)
	assert.NotSame(t, first, again)
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(l.Metrics().Evictions))
}

func TestSameAsset(t *testing.T) {
	a, b := &memResource{}, &memResource{}
	g := group(2, "x")
	m := map[string]any{"k": 1}

	assert.True(t, sameAsset(a, a))
	assert.False(t, sameAsset(a, b))
	assert.True(t, sameAsset(g, g))
	assert.False(t, sameAsset(g, g[:1]))
	assert.True(t, sameAsset(m, m))
	assert.False(t, sameAsset(m, map[string]any{"k": 1}))
	assert.True(t, sameAsset("x", "x"))
	assert.False(t, sameAsset(nil, a))
	assert.False(t, sameAsset(1, "1"))
}
