package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func mkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Events.URL, "event publishing is off by default")
	assert.Equal(t, "novelaire.events", cfg.Events.SubjectPrefix)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.DebounceDelay)
	assert.Equal(t, int64(10<<20), cfg.Ingest.MaxContentSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:   "empty subject prefix",
			mutate: func(c *Config) { c.Events.SubjectPrefix = "" },
			errMsg: "subject_prefix",
		},
		{
			name:   "non-positive debounce",
			mutate: func(c *Config) { c.Watch.DebounceDelay = 0 },
			errMsg: "debounce_delay",
		},
		{
			name:   "non-positive content size",
			mutate: func(c *Config) { c.Ingest.MaxContentSize = -1 },
			errMsg: "max_content_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Project: ProjectConfig{Root: "/work/novel"},
		Events:  EventsConfig{URL: "nats://localhost:4222"},
		Watch:   WatchConfig{DebounceDelay: 2 * time.Second},
	})

	assert.Equal(t, "/work/novel", base.Project.Root)
	assert.Equal(t, "nats://localhost:4222", base.Events.URL)
	assert.Equal(t, 2*time.Second, base.Watch.DebounceDelay)
	// Zero values in the overlay leave the base untouched.
	assert.Equal(t, "novelaire.events", base.Events.SubjectPrefix)
	assert.Equal(t, "localhost:9472", base.Watch.MetricsAddr)

	t.Run("nil overlay", func(t *testing.T) {
		before := *base
		base.Merge(nil)
		assert.Equal(t, before, *base)
	})
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novelaire.yaml")

	cfg := DefaultConfig()
	cfg.Project.Root = "/work/novel"
	cfg.Events.URL = "nats://localhost:4222"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "novelaire.yaml")
		require.NoError(t, writeFile(path, "project: [unclosed"))
		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}
