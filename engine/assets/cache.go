package assets

import (
	"context"
	"errors"
	"time"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// entry is one cache slot. It is pending until done is closed; a closed entry that
// is still in the table is resolved, failed entries are removed before done closes.
type entry struct {
	src  string
	done chan struct{}

	// set before done is closed
	value any
	owner Parser
	err   error

	// guarded by Loader.mu
	waiters int
	cancel  context.CancelFunc
	// stale entries were evicted while pending. They stay in the table so no
	// second resolution starts for the identifier, and leave it once settled.
	stale bool
}

func (e *entry) settled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// get returns the cached value for req.Src, joins the pending resolution or
// starts a new one. The lookup and the insertion of a pending entry happen in
// one critical section, so at most one resolution runs per identifier.
func (l *Loader) get(ctx context.Context, req Request) (any, error) {
	l.mu.Lock()
	if e, ok := l.entries[req.Src]; ok {
		if e.settled() {
			l.mu.Unlock()
			l.metrics.CacheHits.Inc()
			return e.value, nil
		}
		e.waiters++
		l.mu.Unlock()
		l.metrics.CacheShares.Inc()
		return l.wait(ctx, e)
	}

	// the resolution outlives any single caller; it is cancelled only when every
	// waiter has given up
	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e := &entry{
		src:     req.Src,
		done:    make(chan struct{}),
		waiters: 1,
		cancel:  cancel,
	}
	l.entries[req.Src] = e
	l.mu.Unlock()

	l.metrics.CacheMisses.Inc()
	go l.run(rctx, e, req)
	return l.wait(ctx, e)
}

// wait blocks until e settles or ctx is done. The last waiter to give up on a
// pending entry cancels its resolution and removes it.
func (l *Loader) wait(ctx context.Context, e *entry) (any, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
	}

	l.mu.Lock()
	if e.settled() {
		l.mu.Unlock()
		return e.value, e.err
	}
	e.waiters--
	abandoned := e.waiters == 0
	if abandoned && l.entries[e.src] == e {
		delete(l.entries, e.src)
	}
	l.mu.Unlock()

	if abandoned {
		e.cancel()
	}
	return nil, ctx.Err()
}

// run resolves e and publishes the outcome to every waiter.
func (l *Loader) run(ctx context.Context, e *entry, req Request) {
	start := time.Now()
	l.metrics.InProgress.Inc()
	res, err := l.resolve(ctx, req)
	l.metrics.InProgress.Dec()
	e.cancel()

	parserName := "none"
	if res.loader != nil {
		parserName = res.loader.Name()
	}
	l.metrics.ResolutionDuration.WithLabelValues(parserName).Observe(time.Since(start).Seconds())

	if err == nil {
		// hooks are in place before any waiter sees the value
		l.bindLifecycle(e, res.value)
	}

	l.mu.Lock()
	if err != nil {
		e.err = err
	} else {
		e.value, e.owner = res.value, res.owner
	}
	inTable := l.entries[e.src] == e
	if inTable && (err != nil || e.stale) {
		// failed entries never stay, the next request retries from scratch
		delete(l.entries, e.src)
	}
	abandoned := e.waiters == 0
	close(e.done)
	l.mu.Unlock()

	switch {
	case err != nil && errors.Is(err, context.Canceled) && abandoned:
		core.LogDebug("abandoned load of '%s'", e.src)
	case err != nil:
		l.metrics.Failures.WithLabelValues(parserName).Inc()
		core.LogError("failed to load '%s': %s", e.src, err)
	case abandoned:
		// every caller gave up but the parser finished anyway
		if uerr := l.unloadValue(res.owner, res.value); uerr != nil {
			core.LogError("failed to unload abandoned '%s': %s", e.src, uerr)
		}
	}
}

// evictEntry removes the entry for src. With a non-nil e it only removes that exact
// entry, which makes stale disposal signals harmless. A pending entry is only
// marked stale: its waiters, and callers joining before it settles, share the
// running resolution, which drops the entry when done.
func (l *Loader) evictEntry(src string, e *entry) bool {
	l.mu.Lock()
	cur, ok := l.entries[src]
	if !ok || (e != nil && cur != e) || cur.stale {
		l.mu.Unlock()
		return false
	}
	if cur.settled() {
		delete(l.entries, src)
	} else {
		cur.stale = true
	}
	l.mu.Unlock()

	l.metrics.Evictions.Inc()
	core.LogDebug("evicted '%s'", src)
	return true
}
