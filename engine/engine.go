package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/assets/loaders"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine has been shut down
	EngineStageShutdown
)

var ErrNotInitialized = errors.New("engine is not initialized")

type Engine struct {
	mu           sync.Mutex
	currentStage Stage

	config   *Config
	files    *platform.FileFetcher
	platform *platform.Platform
	loader   *assets.Loader
	jobs     *systems.JobSystem
	watcher  *assets.Watcher
	registry *prometheus.Registry
}

// New wires the platform and loader described by cfg. A nil cfg uses the defaults.
func New(cfg *Config, opts ...platform.Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(cfg.Log.Level)

	files := &platform.FileFetcher{BasePath: cfg.Fetch.BasePath}
	p := platform.New(&platform.Mux{
		File: files,
		HTTP: platform.NewHTTPFetcher(platform.HTTPOptions{
			Timeout:           cfg.Fetch.Timeout.Duration,
			RetryMax:          cfg.Fetch.RetryMax,
			RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		}),
	}, opts...)

	reg := prometheus.NewRegistry()
	l, err := assets.New(
		assets.WithPlatform(p),
		assets.WithMaxConcurrency(cfg.Loader.MaxConcurrentLoads),
		assets.WithMaxTransformPasses(cfg.Loader.MaxTransformPasses),
		assets.WithRegisterer(reg),
	)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		files:        files,
		platform:     p,
		loader:       l,
		registry:     reg,
	}, nil
}

// Initialize registers the built-in parsers and starts the job system and, if
// enabled, the file watcher.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine cannot be initialized in stage %d", e.currentStage)
	}
	e.currentStage = EngineStageInitializing

	js, err := systems.NewJobSystem(e.config.Jobs.Workers, e.config.Jobs.QueueSize)
	if err != nil {
		e.currentStage = EngineStageUninitialized
		return err
	}

	var w *assets.Watcher
	if e.config.Watch.Enabled {
		if w, err = e.startWatcher(); err != nil {
			_ = js.Shutdown()
			e.currentStage = EngineStageUninitialized
			return err
		}
	}

	e.loader.AddParser(loaders.Defaults(e.files)...)
	e.jobs, e.watcher = js, w
	e.currentStage = EngineStageInitialized
	core.LogInfo("asset engine initialized with %d parsers", len(e.loader.Parsers()))
	return nil
}

func (e *Engine) startWatcher() (*assets.Watcher, error) {
	w, err := assets.NewWatcher(e.loader, e.files)
	if err != nil {
		return nil, err
	}
	dir := e.config.WatchDir()
	if err := w.AddRecursive(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
	}
	core.LogInfo("watching '%s' for changes", dir)
	return w, nil
}

func (e *Engine) initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage == EngineStageInitialized
}

// Load resolves input synchronously, see assets.Loader.Load.
func (e *Engine) Load(ctx context.Context, input any) (any, error) {
	if !e.initialized() {
		return nil, ErrNotInitialized
	}
	return e.loader.Load(ctx, input)
}

// LoadAsync queues a load on the job system. Exactly one of the callbacks runs.
func (e *Engine) LoadAsync(ctx context.Context, input any, onComplete func(any), onFailure func(error)) error {
	if !e.initialized() {
		return ErrNotInitialized
	}
	return e.jobs.Submit(ctx, systems.JobTask{
		OnStart: func(ctx context.Context) (any, error) {
			return e.loader.Load(ctx, input)
		},
		OnComplete: onComplete,
		OnFailure:  onFailure,
	})
}

func (e *Engine) Unload(ctx context.Context, target any) error {
	if !e.initialized() {
		return ErrNotInitialized
	}
	return e.loader.Unload(ctx, target)
}

func (e *Engine) Loader() *assets.Loader {
	return e.loader
}

func (e *Engine) Platform() *platform.Platform {
	return e.platform
}

// Watcher returns the file watcher, nil unless watching is enabled.
func (e *Engine) Watcher() *assets.Watcher {
	return e.watcher
}

// Gatherer exposes the loader metrics.
func (e *Engine) Gatherer() prometheus.Gatherer {
	return e.registry
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

// Shutdown waits for queued loads and stops the watcher.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.currentStage != EngineStageInitialized {
		e.mu.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mu.Unlock()

	var errs []error
	if err := e.jobs.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	e.mu.Lock()
	e.currentStage = EngineStageShutdown
	e.mu.Unlock()
	core.LogInfo("asset engine shut down")
	return errors.Join(errs...)
}
