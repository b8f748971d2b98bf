package assets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
)

// Loader resolves identifiers to resources through the registered parsers and
// caches the results. Concurrent requests for one identifier share a single
// resolution and receive the same instance.
type Loader struct {
	registry registry
	platform *platform.Platform
	metrics  *core.LoaderMetrics

	maxConcurrency     int
	maxTransformPasses int

	mu      sync.Mutex
	entries map[string]*entry
}

type Option func(*Loader) error

// WithPlatform sets the host capabilities handed to parsers.
func WithPlatform(p *platform.Platform) Option {
	return func(l *Loader) error {
		if p == nil {
			return errors.New("platform must not be nil")
		}
		l.platform = p
		return nil
	}
}

// WithMaxConcurrency bounds the number of identifiers LoadMany resolves at once.
// Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(l *Loader) error {
		if n < 0 {
			return fmt.Errorf("max concurrency must be >= 0, got %d", n)
		}
		l.maxConcurrency = n
		return nil
	}
}

func WithMaxTransformPasses(n int) Option {
	return func(l *Loader) error {
		if n <= 0 {
			return fmt.Errorf("max transform passes must be > 0, got %d", n)
		}
		l.maxTransformPasses = n
		return nil
	}
}

// WithRegisterer registers the loader metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(l *Loader) error {
		return l.metrics.Register(reg)
	}
}

func New(opts ...Option) (*Loader, error) {
	l := &Loader{
		metrics:            core.NewLoaderMetrics(),
		maxTransformPasses: DefaultMaxTransformPasses,
		entries:            make(map[string]*entry),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if l.platform == nil {
		l.platform = platform.New(&platform.Mux{
			File: &platform.FileFetcher{},
			HTTP: platform.NewHTTPFetcher(platform.HTTPOptions{Timeout: 30 * time.Second, RetryMax: 3}),
		})
	}
	return l, nil
}

// AddParser appends parsers in order. Parsers already registered are skipped.
func (l *Loader) AddParser(parsers ...Parser) {
	n := l.registry.add(parsers...)
	core.LogDebug("%d parser(s) registered, %d total", n, l.registry.len())
}

// RemoveParser unregisters p. Resolutions already running keep using it.
func (l *Loader) RemoveParser(p Parser) bool {
	return l.registry.remove(p)
}

// Parsers returns the registered parsers in registration order.
func (l *Loader) Parsers() []Parser {
	return l.registry.snapshot()
}

func (l *Loader) Platform() *platform.Platform {
	return l.platform
}

func (l *Loader) Metrics() *core.LoaderMetrics {
	return l.metrics
}

func (l *Loader) Fetch(ctx context.Context, src string) ([]byte, error) {
	return l.platform.Fetch(ctx, src)
}

// Load resolves input. Single shapes (string, Request, *Request) return the
// resource itself; list shapes return a map keyed by identifier, as LoadMany.
func (l *Loader) Load(ctx context.Context, input any) (any, error) {
	reqs, bulk, err := Normalize(input)
	if err != nil {
		return nil, err
	}
	if bulk {
		return l.loadRequests(ctx, reqs)
	}
	return l.get(ctx, reqs[0])
}

// LoadMany resolves every input independently. Successful identifiers are always
// present in the map, failures are joined into the returned error.
func (l *Loader) LoadMany(ctx context.Context, inputs ...any) (map[string]any, error) {
	var reqs []Request
	for _, in := range inputs {
		rs, _, err := Normalize(in)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, rs...)
	}
	return l.loadRequests(ctx, reqs)
}

func (l *Loader) loadRequests(ctx context.Context, reqs []Request) (map[string]any, error) {
	var (
		mu   sync.Mutex
		out  = make(map[string]any, len(reqs))
		errs []error
	)

	g := new(errgroup.Group)
	if l.maxConcurrency > 0 {
		g.SetLimit(l.maxConcurrency)
	}
	for _, req := range reqs {
		g.Go(func() error {
			v, err := l.get(ctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			out[req.Src] = v
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// LoadAs loads a single input and asserts its type. A soft-unavailable (nil)
// result yields the zero value without error.
func LoadAs[T any](ctx context.Context, l *Loader, input any) (T, error) {
	var zero T
	v, err := l.Load(ctx, input)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("asset %v is %T, not %T", input, v, zero)
	}
	return t, nil
}

// Has reports whether src has a pending or resolved entry.
func (l *Loader) Has(src string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.entries[src]
	return ok
}

// Evict drops the entry of src without unloading it. A pending entry keeps serving
// its waiters, and callers that join before it settles, then leaves the cache.
func (l *Loader) Evict(src string) bool {
	return l.evictEntry(src, nil)
}

// Keys returns the identifiers currently cached, sorted.
func (l *Loader) Keys() []string {
	l.mu.Lock()
	keys := make([]string, 0, len(l.entries))
	for k := range l.entries {
		keys = append(keys, k)
	}
	l.mu.Unlock()
	sort.Strings(keys)
	return keys
}
