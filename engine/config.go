package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Log    LogConfig    `toml:"log"`
	Loader LoaderConfig `toml:"loader"`
	Fetch  FetchConfig  `toml:"fetch"`
	Watch  WatchConfig  `toml:"watch"`
	Jobs   JobsConfig   `toml:"jobs"`
}

type LogConfig struct {
	// One of debug, info, warn, error, fatal.
	Level string `toml:"level"`
}

type LoaderConfig struct {
	// Identifiers resolved at once by a bulk load, zero means unbounded.
	MaxConcurrentLoads int `toml:"max_concurrent_loads"`
	// Upper bound of transform passes for one identifier.
	MaxTransformPasses int `toml:"max_transform_passes"`
}

type FetchConfig struct {
	// Directory relative identifiers are resolved against.
	BasePath string `toml:"base_path"`
	// Timeout of a single http attempt, e.g. "30s".
	Timeout           Duration `toml:"timeout"`
	RetryMax          int      `toml:"retry_max"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
}

type WatchConfig struct {
	Enabled bool `toml:"enabled"`
	// Directory to watch, defaults to the fetch base path.
	Dir string `toml:"dir"`
}

type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

// Duration reads durations written as strings ("1m30s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Loader: LoaderConfig{
			MaxConcurrentLoads: 8,
			MaxTransformPasses: 32,
		},
		Fetch: FetchConfig{
			BasePath: ".",
			Timeout:  Duration{30 * time.Second},
			RetryMax: 3,
		},
		Jobs: JobsConfig{
			Workers:   4,
			QueueSize: 64,
		},
	}
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Loader.MaxConcurrentLoads < 0 {
		errs = append(errs, fmt.Errorf("loader.max_concurrent_loads must be >= 0, got %d", c.Loader.MaxConcurrentLoads))
	}
	if c.Loader.MaxTransformPasses <= 0 {
		errs = append(errs, fmt.Errorf("loader.max_transform_passes must be > 0, got %d", c.Loader.MaxTransformPasses))
	}
	if c.Fetch.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("fetch.timeout must not be negative, got %s", c.Fetch.Timeout))
	}
	if c.Fetch.RetryMax < 0 {
		errs = append(errs, fmt.Errorf("fetch.retry_max must be >= 0, got %d", c.Fetch.RetryMax))
	}
	if c.Fetch.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("fetch.requests_per_second must be >= 0, got %g", c.Fetch.RequestsPerSecond))
	}
	if c.Jobs.Workers <= 0 {
		errs = append(errs, fmt.Errorf("jobs.workers must be > 0, got %d", c.Jobs.Workers))
	}
	if c.Jobs.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("jobs.queue_size must be >= 0, got %d", c.Jobs.QueueSize))
	}
	return errors.Join(errs...)
}

// WatchDir returns the directory hot reloading watches.
func (c *Config) WatchDir() string {
	if c.Watch.Dir != "" {
		return c.Watch.Dir
	}
	return c.Fetch.BasePath
}
