package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Project-Sylos/Harbor/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// TestLoadFromFile tests loading JSON and YAML configuration files
func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T) string
		expectError bool
		validate    func(*testing.T, *types.Config)
	}{
		{
			name: "full JSON config",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.json", `{
					"server": {"base_url": "http://files.example:9000/", "timeout": "5s"},
					"upload": {"concurrency": 4, "settle_delay": "2s", "max_chunk_attempts": 3, "retry_initial_interval": 100000000},
					"log": {"level": "debug", "format": "json"},
					"metrics": {"addr": ":9100"},
					"stub": {"host": "0.0.0.0", "port": 8090}
				}`)
			},
			validate: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, "http://files.example:9000", cfg.Server.BaseURL)
				assert.Equal(t, 5*time.Second, cfg.Server.Timeout.Std())
				assert.Equal(t, 4, cfg.Upload.Concurrency)
				assert.Equal(t, 2*time.Second, cfg.Upload.SettleDelay.Std())
				assert.Equal(t, 100*time.Millisecond, cfg.Upload.RetryInitialInterval.Std())
				assert.Equal(t, "debug", cfg.Log.Level)
				assert.Equal(t, ":9100", cfg.Metrics.Addr)
				assert.Equal(t, 8090, cfg.Stub.Port)
			},
		},
		{
			name: "partial JSON keeps defaults",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.json", `{"server": {"base_url": "https://drop.example"}}`)
			},
			validate: func(t *testing.T, cfg *types.Config) {
				want := DefaultConfig()
				want.Server.BaseURL = "https://drop.example"
				assert.Empty(t, cmp.Diff(want, *cfg))
			},
		},
		{
			name: "YAML config",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.yaml", `
server:
  base_url: http://127.0.0.1:8086
upload:
  concurrency: 2
  settle_delay: 750ms
log:
  level: warn
`)
			},
			validate: func(t *testing.T, cfg *types.Config) {
				assert.Equal(t, 2, cfg.Upload.Concurrency)
				assert.Equal(t, 750*time.Millisecond, cfg.Upload.SettleDelay.Std())
				assert.Equal(t, 3, cfg.Upload.MaxChunkAttempts)
				assert.Equal(t, "warn", cfg.Log.Level)
			},
		},
		{
			name: "nonexistent config file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nonexistent.json")
			},
			expectError: true,
		},
		{
			name: "invalid JSON config",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.json", `{"invalid": json}`)
			},
			expectError: true,
		},
		{
			name: "invalid duration",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.json", `{"upload": {"settle_delay": "soon"}}`)
			},
			expectError: true,
		},
		{
			name: "relative base url rejected",
			setup: func(t *testing.T) string {
				return writeTemp(t, "cfg.json", `{"server": {"base_url": "/api"}}`)
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(tt.setup(t))
			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

// TestValidate tests the Validate function
func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*types.Config)
		expectError bool
	}{
		{name: "defaults", mutate: func(*types.Config) {}},
		{name: "zero concurrency", mutate: func(c *types.Config) { c.Upload.Concurrency = 0 }, expectError: true},
		{name: "zero attempts", mutate: func(c *types.Config) { c.Upload.MaxChunkAttempts = 0 }, expectError: true},
		{name: "negative settle delay", mutate: func(c *types.Config) { c.Upload.SettleDelay = -1 }, expectError: true},
		{name: "unknown log level", mutate: func(c *types.Config) { c.Log.Level = "loud" }, expectError: true},
		{name: "unknown log format", mutate: func(c *types.Config) { c.Log.Format = "xml" }, expectError: true},
		{name: "stub port out of range", mutate: func(c *types.Config) { c.Stub.Port = 70000 }, expectError: true},
		{name: "empty base url", mutate: func(c *types.Config) { c.Server.BaseURL = "" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := Validate(&cfg)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Error(t, Validate(nil))
}

// TestSaveToFile tests that a saved config loads back identically
func TestSaveToFile(t *testing.T) {
	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Upload.Concurrency = 7
			cfg.Metrics.Addr = "127.0.0.1:9100"

			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, SaveToFile(&cfg, path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(cfg, *loaded))
		})
	}
}
