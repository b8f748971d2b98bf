package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[log]
level = "debug"

[loader]
max_concurrent_loads = 2

[fetch]
base_path = "assets"
timeout = "5s"
requests_per_second = 10.5

[watch]
enabled = true

[jobs]
workers = 2
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Loader.MaxConcurrentLoads)
	assert.Equal(t, 32, cfg.Loader.MaxTransformPasses)
	assert.Equal(t, "assets", cfg.Fetch.BasePath)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout.Duration)
	assert.Equal(t, 3, cfg.Fetch.RetryMax)
	assert.Equal(t, 10.5, cfg.Fetch.RequestsPerSecond)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, "assets", cfg.WatchDir())
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, 64, cfg.Jobs.QueueSize)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"no workers":      "[jobs]\nworkers = 0\n",
		"negative queue":  "[jobs]\nqueue_size = -1\n",
		"no passes":       "[loader]\nmax_transform_passes = 0\n",
		"bad duration":    "[fetch]\ntimeout = \"soon\"\n",
		"negative retry":  "[fetch]\nretry_max = -2\n",
		"not toml at all": "workers ==",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anima.toml")
	require.NoError(t, os.WriteFile(path, []byte("[watch]\ndir = \"textures\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "textures", cfg.WatchDir())
	assert.Equal(t, DefaultConfig().Jobs, cfg.Jobs)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
