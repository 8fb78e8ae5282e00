package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgscout/internal/domain/entity"
	"imgscout/internal/infrastructure/env"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, entity.DefaultMaxContainerDepth, cfg.Pierce.Options().ContainerDepth())
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
scan:
  selector: "#gallery"
  extract:
    deepScan: true
    visibleOnly: true
    viewportPadding: 0
pierce:
  exclude: [".picker-overlay"]
  expandToContainer: true
log:
  level: DEBUG
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "#gallery", cfg.Scan.Selector)
	assert.True(t, cfg.Scan.Extract.DeepScan)
	require.NotNil(t, cfg.Scan.Extract.ViewportPadding)
	assert.Equal(t, 0.0, *cfg.Scan.Extract.ViewportPadding)
	assert.Equal(t, 0.0, cfg.Scan.Extract.Padding(800))
	assert.Equal(t, []string{".picker-overlay"}, cfg.Pierce.Options().Exclude)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30, cfg.Browser.TimeoutSec, "unset values keep defaults")
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "profile.json", `{"scan":{"extract":{"includeDataUrls":true}},"batch":{"maxConcurrent":0}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Scan.Extract.IncludeDataURLs)
	assert.Equal(t, 1, cfg.Batch.MaxConcurrent, "clamped to 1")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.json", `{broken`))
	assert.ErrorContains(t, err, "JSON")

	_, err = LoadConfig(writeFile(t, "bad.yaml", "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "unknown log level")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"negative padding", func(c *Config) { c.Scan.Extract.ViewportPadding = entity.WithPadding(-1) }, "viewportPadding"},
		{"negative depth", func(c *Config) { c.Pierce.MaxContainerDepth = -1 }, "maxContainerDepth"},
		{"zero timeout", func(c *Config) { c.Browser.TimeoutSec = 0 }, "timeoutSec"},
		{"negative rps", func(c *Config) { c.Batch.RequestsPerSecond = -2 }, "requestsPerSecond"},
		{"negative wait", func(c *Config) { c.Sites.GoogleViewerWaitMS = -1 }, "googleViewerWaitMs"},
		{"valid", func(c *Config) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	ApplyEnv(cfg, env.FromMap(env.DefaultPrefix, map[string]string{
		"IMGSCOUT_DEEP":           "1",
		"IMGSCOUT_HEADLESS":       "false",
		"IMGSCOUT_MAX_CONCURRENT": "8",
		"IMGSCOUT_RPS":            "2.5",
		"IMGSCOUT_LOG_LEVEL":      "info",
		"IMGSCOUT_SELECTOR":       "main",
	}))

	assert.True(t, cfg.Scan.Extract.DeepScan)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 2.5, cfg.Batch.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "main", cfg.Scan.Selector)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scan.Selector = "article"
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "article", loaded.Scan.Selector)
}
