package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/resources"
)

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "a.png"), []byte("png"), 0o644))

	ff := &FileFetcher{BasePath: dir}
	ctx := context.Background()

	for _, src := range []string{"img/a.png", "img/a.png?v=2", "./img/../img/a.png", filepath.Join(dir, "img", "a.png"), "file://" + filepath.Join(dir, "img", "a.png")} {
		t.Run(src, func(t *testing.T) {
			data, err := ff.Fetch(ctx, src)
			require.NoError(t, err)
			assert.Equal(t, []byte("png"), data)
		})
	}

	_, err := ff.Fetch(ctx, "img/missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ff.Fetch(cancelled, "img/a.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileFetcherPath(t *testing.T) {
	ff := &FileFetcher{BasePath: "/assets"}
	assert.Equal(t, "/assets/img/a.png", ff.Path("img/a.png#frag"))
	assert.Equal(t, "/assets/img/a.png", ff.Path("file://img/a.png"))
	assert.Equal(t, "/abs/a.png", ff.Path("file:///abs/a.png"))
	assert.Equal(t, "/abs/a.png", ff.Path("/abs/a.png"))

	assert.Equal(t, "img/a.png", (&FileFetcher{}).Path("./img/a.png"))
}

func TestHTTPFetcher(t *testing.T) {
	var flaky atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			_, _ = w.Write([]byte(`{"ok": true}`))
		case "/flaky.json":
			if flaky.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	hf := NewHTTPFetcher(HTTPOptions{Timeout: time.Second, RetryMax: 3})

	data, err := hf.Fetch(ctx, srv.URL+"/ok.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(data))

	data, err = hf.Fetch(ctx, srv.URL+"/flaky.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), data)
	assert.Equal(t, int32(3), flaky.Load())

	_, err = hf.Fetch(ctx, srv.URL+"/missing.json")
	assert.ErrorContains(t, err, "404")
}

func TestHTTPFetcherRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	hf := NewHTTPFetcher(HTTPOptions{RequestsPerSecond: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := hf.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMux(t *testing.T) {
	var remote, local atomic.Int32
	m := &Mux{
		File: FetcherFunc(func(ctx context.Context, src string) ([]byte, error) {
			local.Add(1)
			return []byte("file"), nil
		}),
		HTTP: FetcherFunc(func(ctx context.Context, src string) ([]byte, error) {
			remote.Add(1)
			return []byte("http"), nil
		}),
	}
	ctx := context.Background()

	data, err := m.Fetch(ctx, "HTTPS://cdn.test/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("http"), data)

	data, err = m.Fetch(ctx, "img/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("file"), data)
	assert.Equal(t, int32(1), remote.Load())
	assert.Equal(t, int32(1), local.Load())

	_, err = (&Mux{}).Fetch(ctx, "http://cdn.test/a.png")
	assert.Error(t, err)
	_, err = (&Mux{}).Fetch(ctx, "a.png")
	assert.Error(t, err)
}

func TestFontBook(t *testing.T) {
	fb := NewFontBook()
	a := resources.NewFontFace("Titan One", "normal", "titan-one.woff")
	b := resources.NewFontFace("Titan One", "bold", "titan-one.woff")

	fb.Add(a)
	fb.Add(a)
	fb.Add(b)
	assert.Equal(t, 2, fb.Len())
	assert.True(t, fb.Has(a))

	var weights []string
	fb.Each(func(f *resources.FontFace) { weights = append(weights, f.Weight) })
	assert.Equal(t, []string{"normal", "bold"}, weights)

	assert.True(t, fb.Delete(a))
	assert.False(t, fb.Delete(a))
	assert.False(t, fb.Has(a))

	fb.Clear()
	assert.Equal(t, 0, fb.Len())
}

func TestPlatform(t *testing.T) {
	p := New(FetcherFunc(func(ctx context.Context, src string) ([]byte, error) {
		return []byte(src), nil
	}))
	assert.True(t, p.Online())
	assert.NotNil(t, p.Fonts)

	data, err := p.Fetch(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	offline := New(nil, WithOnlineCheck(func() bool { return false }), WithFontBook(nil))
	assert.False(t, offline.Online())
	assert.Nil(t, offline.Fonts)
}

func TestIdentifierHelpers(t *testing.T) {
	assert.True(t, IsRemote("http://a"))
	assert.True(t, IsRemote("HTTPS://a"))
	assert.False(t, IsRemote("file:///a"))
	assert.False(t, IsRemote("img/a.png"))

	assert.Equal(t, "a.png", StripQuery("a.png?v=1#x"))
	assert.Equal(t, "a.png", StripQuery("a.png#x"))
	assert.Equal(t, "a.png", StripQuery("a.png"))
}
