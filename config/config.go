// Package config loads analyzer settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	tcxnotes "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/report"
)

const (
	EnvConfigPath = "TCX_ANALYZER_CONFIG"
	EnvLogLevel   = "TCX_ANALYZER_LOG_LEVEL"

	defaultPath = "./tcx-analyzer.yaml"
)

// Config holds all analyzer configuration.
type Config struct {
	Zones        tcxnotes.ZoneConfig `yaml:"zones"`
	Mode         string              `yaml:"mode"`
	Extension    string              `yaml:"extension"`
	SkipFailures bool                `yaml:"skip_failures"`
	Workers      int                 `yaml:"workers"`
	Format       string              `yaml:"format"`
	FigureSize   [2]float64          `yaml:"figure_size"`
	Bins         int                 `yaml:"bins"`
	LogLevel     string              `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file and applies defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// GetConfigPath returns the config file path from environment or default.
func GetConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return defaultPath
}

// ParsedMode returns Mode as a tcxnotes.Mode.
func (c *Config) ParsedMode() tcxnotes.Mode {
	m, _ := tcxnotes.ParseMode(c.Mode)
	return m
}

// ReportOptions returns the plot options for single plots.
func (c *Config) ReportOptions() report.Options {
	return report.Options{FigureSize: c.FigureSize, Bins: c.Bins}
}

// BatchOptions returns the loader options.
func (c *Config) BatchOptions(log *slog.Logger) tcxnotes.BatchOptions {
	return tcxnotes.BatchOptions{
		Extension:    c.Extension,
		SkipFailures: c.SkipFailures,
		Workers:      c.Workers,
		Logger:       log,
	}
}

// Level maps LogLevel onto slog.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func applyDefaults(cfg *Config) {
	if len(cfg.Zones.Thresholds) == 0 {
		cfg.Zones = tcxnotes.DefaultZones()
	}
	if cfg.Mode == "" {
		cfg.Mode = string(tcxnotes.ModeHeartRate)
	}
	if cfg.Extension == "" {
		cfg.Extension = tcxnotes.DefaultExtension
	}
	if cfg.Format == "" {
		cfg.Format = "csv"
	}
	if cfg.FigureSize == [2]float64{} {
		cfg.FigureSize = report.DefaultFigureSize
	}
	if cfg.Bins == 0 {
		cfg.Bins = report.DefaultBins
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
}

func validate(cfg *Config) error {
	if err := cfg.Zones.Validate(); err != nil {
		return err
	}
	if _, err := tcxnotes.ParseMode(cfg.Mode); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Format) {
	case "csv", "parquet", "gpx":
	default:
		return fmt.Errorf("unsupported format %q (expected csv|parquet|gpx)", cfg.Format)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.Bins < 0 {
		return fmt.Errorf("bins must not be negative, got %d", cfg.Bins)
	}
	if cfg.FigureSize[0] <= 0 || cfg.FigureSize[1] <= 0 {
		return fmt.Errorf("figure_size must be positive, got %v", cfg.FigureSize)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log_level %q", cfg.LogLevel)
	}
	return nil
}
