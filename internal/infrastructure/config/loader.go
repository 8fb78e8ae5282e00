package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"imgscout/internal/infrastructure/env"
)

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// LoadConfig reads a YAML or JSON profile over the defaults. An empty path
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides profile values from IMGSCOUT_* variables.
func ApplyEnv(cfg *Config, e *env.EnvService) {
	cfg.Scan.Selector = e.GetString("SELECTOR", cfg.Scan.Selector)
	cfg.Scan.Extract.DeepScan = e.GetBool("DEEP", cfg.Scan.Extract.DeepScan)
	cfg.Scan.Extract.VisibleOnly = e.GetBool("VISIBLE_ONLY", cfg.Scan.Extract.VisibleOnly)
	cfg.Scan.Extract.IncludeDataURLs = e.GetBool("DATA_URLS", cfg.Scan.Extract.IncludeDataURLs)
	cfg.Scan.Extract.IncludeBlobURLs = e.GetBool("BLOB_URLS", cfg.Scan.Extract.IncludeBlobURLs)

	cfg.Browser.Headless = e.GetBool("HEADLESS", cfg.Browser.Headless)
	cfg.Browser.NoSandbox = e.GetBool("NO_SANDBOX", cfg.Browser.NoSandbox)
	cfg.Browser.TimeoutSec = e.GetInt("TIMEOUT_SEC", cfg.Browser.TimeoutSec)

	cfg.Batch.MaxConcurrent = e.GetInt("MAX_CONCURRENT", cfg.Batch.MaxConcurrent)
	cfg.Batch.RequestsPerSecond = e.GetFloat("RPS", cfg.Batch.RequestsPerSecond)

	cfg.Log.Level = e.GetString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Dir = e.GetString("LOG_DIR", cfg.Log.Dir)
}

// ValidateConfig checks the profile and clamps values that have a safe floor.
func ValidateConfig(cfg *Config) error {
	if p := cfg.Scan.Extract.ViewportPadding; p != nil && *p < 0 {
		return fmt.Errorf("scan.extract.viewportPadding must be >= 0")
	}
	if cfg.Pierce.MaxContainerDepth < 0 {
		return fmt.Errorf("pierce.maxContainerDepth must be >= 0")
	}
	if cfg.Browser.TimeoutSec <= 0 {
		return fmt.Errorf("browser.timeoutSec must be > 0")
	}
	if cfg.Browser.Width < 0 || cfg.Browser.Height < 0 {
		return fmt.Errorf("browser.width and browser.height must be >= 0")
	}
	if cfg.Browser.DecodeBudgetMS < 0 {
		return fmt.Errorf("browser.decodeBudgetMs must be >= 0")
	}
	if cfg.Batch.RequestsPerSecond < 0 {
		return fmt.Errorf("batch.requestsPerSecond must be >= 0")
	}
	if cfg.Sites.GoogleViewerWaitMS < 0 {
		return fmt.Errorf("sites.googleViewerWaitMs must be >= 0")
	}

	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if level != "" && !validLevels[level] {
		return fmt.Errorf("unknown log level: %s (valid: debug, info, warn, error)", cfg.Log.Level)
	}
	cfg.Log.Level = level

	if cfg.Batch.MaxConcurrent < 1 {
		cfg.Batch.MaxConcurrent = 1
	}
	if cfg.Batch.Burst < 1 {
		cfg.Batch.Burst = 1
	}
	return nil
}

// SaveConfig writes the profile as JSON or YAML depending on the extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
