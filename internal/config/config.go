package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Project-Sylos/Harbor/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the built-in client configuration
func DefaultConfig() types.Config {
	return types.Config{
		Server: types.ServerConfig{
			BaseURL: "http://localhost:8086",
			Timeout: types.Duration(30 * time.Second),
		},
		Upload: types.UploadConfig{
			Concurrency:          20,
			SettleDelay:          types.Duration(1500 * time.Millisecond),
			MaxChunkAttempts:     3,
			RetryInitialInterval: types.Duration(250 * time.Millisecond),
		},
		Log: types.LogConfig{
			Level:  "info",
			Format: "text",
		},
		Stub: types.StubConfig{
			Host: "localhost",
			Port: 8086,
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file.
// Fields absent from the file keep their DefaultConfig values.
func LoadFromFile(configPath string) (*types.Config, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	return &cfg, nil
}

// Validate checks that the configuration parameters are valid
func Validate(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server base_url must be an absolute URL, got %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout < 0 {
		return fmt.Errorf("server timeout must be non-negative, got %s", cfg.Server.Timeout.Std())
	}

	if cfg.Upload.Concurrency < 1 {
		return fmt.Errorf("upload concurrency must be at least 1, got %d", cfg.Upload.Concurrency)
	}
	if cfg.Upload.MaxChunkAttempts < 1 {
		return fmt.Errorf("max_chunk_attempts must be at least 1, got %d", cfg.Upload.MaxChunkAttempts)
	}
	if cfg.Upload.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be non-negative, got %s", cfg.Upload.SettleDelay.Std())
	}
	if cfg.Upload.RetryInitialInterval < 0 {
		return fmt.Errorf("retry_initial_interval must be non-negative, got %s", cfg.Upload.RetryInitialInterval.Std())
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}

	if cfg.Stub.Port < 1 || cfg.Stub.Port > 65535 {
		return fmt.Errorf("stub port must be between 1 and 65535, got %d", cfg.Stub.Port)
	}

	return nil
}

// SaveToFile saves configuration to a JSON or YAML file, chosen by extension
func SaveToFile(cfg *types.Config, configPath string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
