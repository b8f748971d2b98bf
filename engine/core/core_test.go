package core

import (
	"bytes"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal(t *testing.T) {
	var s Signal
	var order []int
	s.Subscribe(func() { order = append(order, 1) })
	s.Subscribe(nil)
	s.Subscribe(func() { order = append(order, 2) })
	assert.False(t, s.Fired())

	assert.True(t, s.Fire())
	assert.False(t, s.Fire())
	assert.True(t, s.Fired())
	assert.Equal(t, []int{1, 2}, order)

	s.Subscribe(func() { order = append(order, 3) })
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestSignalListenerMayResubscribe(t *testing.T) {
	var s Signal
	ran := false
	s.Subscribe(func() {
		s.Subscribe(func() { ran = true })
	})
	s.Fire()
	assert.True(t, ran)
}

func TestSignalConcurrentFire(t *testing.T) {
	var s Signal
	var calls, winners atomic.Int32
	s.Subscribe(func() { calls.Add(1) })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Fire() {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), winners.Load())
}

func TestLogLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() {
		SetLogLevel("info")
	})

	SetLogLevel("debug")
	assert.Equal(t, log.DebugLevel, Logger().GetLevel())
	LogDebug("loading '%s'", "a.png")
	assert.Contains(t, buf.String(), "loading 'a.png'")

	buf.Reset()
	SetLogLevel("WARN")
	LogInfo("hidden")
	assert.NotContains(t, buf.String(), "hidden")
	LogError("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	SetLogLevel("chatty")
	assert.Equal(t, log.InfoLevel, Logger().GetLevel())
	assert.Contains(t, buf.String(), "unknown log level 'chatty'")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestLoaderMetrics(t *testing.T) {
	m := NewLoaderMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	m.CacheHits.Inc()
	m.Failures.WithLabelValues("texture").Inc()
	m.ResolutionDuration.WithLabelValues("texture").Observe(0.25)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("texture")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ResolutionDuration))

	assert.Error(t, m.Register(reg))
}
