// Package config loads scan profiles from YAML or JSON files and applies
// IMGSCOUT_* environment overrides.
package config

import (
	"time"

	"imgscout/internal/domain/entity"
)

// Config is the root of a scan profile.
type Config struct {
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	Pierce  PierceConfig  `yaml:"pierce" json:"pierce"`
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Batch   BatchConfig   `yaml:"batch" json:"batch"`
	Sites   SitesConfig   `yaml:"sites" json:"sites"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

type ScanConfig struct {
	// Selector picks the extraction roots; empty means body.
	Selector string                `yaml:"selector,omitempty" json:"selector,omitempty"`
	Extract  entity.ExtractOptions `yaml:"extract" json:"extract"`
}

type PierceConfig struct {
	Exclude           []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	ExpandToContainer bool     `yaml:"expandToContainer" json:"expandToContainer"`
	MaxContainerDepth int      `yaml:"maxContainerDepth" json:"maxContainerDepth"`
}

func (p PierceConfig) Options() entity.PierceOptions {
	return entity.PierceOptions{
		Exclude:           p.Exclude,
		ExpandToContainer: p.ExpandToContainer,
		MaxContainerDepth: p.MaxContainerDepth,
	}
}

type BrowserConfig struct {
	Headless       bool `yaml:"headless" json:"headless"`
	NoSandbox      bool `yaml:"noSandbox" json:"noSandbox"`
	TimeoutSec     int  `yaml:"timeoutSec" json:"timeoutSec"`
	Width          int  `yaml:"width" json:"width"`
	Height         int  `yaml:"height" json:"height"`
	AwaitDecode    bool `yaml:"awaitDecode" json:"awaitDecode"`
	DecodeBudgetMS int  `yaml:"decodeBudgetMs" json:"decodeBudgetMs"`
}

func (b BrowserConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

func (b BrowserConfig) DecodeBudget() time.Duration {
	return time.Duration(b.DecodeBudgetMS) * time.Millisecond
}

// BatchConfig bounds multi-page scans.
type BatchConfig struct {
	MaxConcurrent     int     `yaml:"maxConcurrent" json:"maxConcurrent"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int     `yaml:"burst" json:"burst"`
}

type SitesConfig struct {
	GoogleViewerWaitMS int `yaml:"googleViewerWaitMs" json:"googleViewerWaitMs"`
}

func (s SitesConfig) GoogleViewerWait() time.Duration {
	return time.Duration(s.GoogleViewerWaitMS) * time.Millisecond
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	Dir   string `yaml:"dir" json:"dir"`
	Name  string `yaml:"name" json:"name"`
}

func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extract: entity.ExtractOptions{
				VisibleOnly: false,
			},
		},
		Pierce: PierceConfig{
			MaxContainerDepth: entity.DefaultMaxContainerDepth,
		},
		Browser: BrowserConfig{
			Headless:       true,
			TimeoutSec:     30,
			Width:          1280,
			Height:         800,
			AwaitDecode:    true,
			DecodeBudgetMS: 2000,
		},
		Batch: BatchConfig{
			MaxConcurrent:     4,
			RequestsPerSecond: 1,
			Burst:             1,
		},
		Sites: SitesConfig{
			GoogleViewerWaitMS: 1500,
		},
		Log: LogConfig{
			Level: "warn",
			Dir:   "log",
			Name:  "scan",
		},
	}
}
