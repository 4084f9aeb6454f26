// SPDX-License-Identifier: MIT

// Package config loads daemon configuration with ENV > file > defaults
// precedence, and parses the external source-list and wanted-channel
// documents the resolver consumes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full daemon configuration.
type Config struct {
	ListenAddr string
	DataDir    string

	SourcesPath string
	WantedPath  string

	CacheTTL         time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel   string
	RefreshRPM int

	OTLPEndpoint string
}

// fileConfig mirrors Config for the optional YAML file. Durations are
// strings in Go duration format ("5m", "10s").
type fileConfig struct {
	Listen           string `yaml:"listen"`
	DataDir          string `yaml:"data_dir"`
	SourcesPath      string `yaml:"sources_path"`
	WantedPath       string `yaml:"wanted_path"`
	CacheTTL         string `yaml:"cache_ttl"`
	FetchTimeout     string `yaml:"fetch_timeout"`
	FetchConcurrency int    `yaml:"fetch_concurrency"`
	RedisAddr        string `yaml:"redis_addr"`
	RedisPassword    string `yaml:"redis_password"`
	RedisDB          int    `yaml:"redis_db"`
	LogLevel         string `yaml:"log_level"`
	RefreshRPM       int    `yaml:"refresh_rpm"`
	OTLPEndpoint     string `yaml:"otlp_endpoint"`
}

func defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		SourcesPath:      "sources.txt",
		WantedPath:       "wanted.json",
		CacheTTL:         5 * time.Minute,
		FetchTimeout:     10 * time.Second,
		FetchConcurrency: 4,
		LogLevel:         "info",
		RefreshRPM:       10,
	}
}

// Load builds the configuration: defaults, overlaid by the optional YAML
// file at path, overlaid by SIGNALTV_* environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if err := applyFile(&cfg, fc); err != nil {
			return Config{}, err
		}
	}

	cfg.ListenAddr = ParseString("SIGNALTV_LISTEN", cfg.ListenAddr)
	cfg.DataDir = ParseString("SIGNALTV_DATA", cfg.DataDir)
	cfg.SourcesPath = ParseString("SIGNALTV_SOURCES", cfg.SourcesPath)
	cfg.WantedPath = ParseString("SIGNALTV_WANTED", cfg.WantedPath)
	cfg.CacheTTL = ParseDuration("SIGNALTV_CACHE_TTL", cfg.CacheTTL)
	cfg.FetchTimeout = ParseDuration("SIGNALTV_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.FetchConcurrency = ParseInt("SIGNALTV_FETCH_CONCURRENCY", cfg.FetchConcurrency)
	cfg.RedisAddr = ParseString("SIGNALTV_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = ParseString("SIGNALTV_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = ParseInt("SIGNALTV_REDIS_DB", cfg.RedisDB)
	cfg.LogLevel = ParseString("SIGNALTV_LOG_LEVEL", cfg.LogLevel)
	cfg.RefreshRPM = ParseInt("SIGNALTV_REFRESH_RPM", cfg.RefreshRPM)
	cfg.OTLPEndpoint = ParseString("SIGNALTV_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) error {
	if fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.SourcesPath != "" {
		cfg.SourcesPath = fc.SourcesPath
	}
	if fc.WantedPath != "" {
		cfg.WantedPath = fc.WantedPath
	}
	if fc.CacheTTL != "" {
		d, err := time.ParseDuration(fc.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl %q: %w", fc.CacheTTL, err)
		}
		cfg.CacheTTL = d
	}
	if fc.FetchTimeout != "" {
		d, err := time.ParseDuration(fc.FetchTimeout)
		if err != nil {
			return fmt.Errorf("invalid fetch_timeout %q: %w", fc.FetchTimeout, err)
		}
		cfg.FetchTimeout = d
	}
	if fc.FetchConcurrency > 0 {
		cfg.FetchConcurrency = fc.FetchConcurrency
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPassword != "" {
		cfg.RedisPassword = fc.RedisPassword
	}
	if fc.RedisDB != 0 {
		cfg.RedisDB = fc.RedisDB
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.RefreshRPM > 0 {
		cfg.RefreshRPM = fc.RefreshRPM
	}
	if fc.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = fc.OTLPEndpoint
	}
	return nil
}

// Validate fails fast on configuration that cannot produce a working daemon.
func Validate(cfg Config) error {
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if cfg.SourcesPath == "" {
		return fmt.Errorf("sources path is empty")
	}
	if cfg.WantedPath == "" {
		return fmt.Errorf("wanted channels path is empty")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", cfg.CacheTTL)
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", cfg.FetchTimeout)
	}
	if cfg.FetchConcurrency < 1 {
		return fmt.Errorf("fetch concurrency must be at least 1, got %d", cfg.FetchConcurrency)
	}
	return nil
}
