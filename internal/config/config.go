// Package config loads docweave settings from files, the environment and
// command-line flags.
package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/pipeline"
	"github.com/MeKo-Tech/docweave/internal/textproc"
)

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the complete docweave configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector  detector.Config  `mapstructure:"detector" yaml:"detector" json:"detector"`
	Assembler assembler.Config `mapstructure:"assembler" yaml:"assembler" json:"assembler"`
	Text      TextConfig       `mapstructure:"text" yaml:"text" json:"text"`
	Batch     BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output    OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Server    ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
}

// TextConfig controls cleanup of recognized words and language estimation.
type TextConfig struct {
	Clean          textproc.CleanOptions `mapstructure:"clean" yaml:"clean" json:"clean"`
	DetectLanguage bool                  `mapstructure:"detect_language" yaml:"detect_language" json:"detect_language"`
}

// BatchConfig controls the per-page worker pool.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		Detector:  detector.DefaultConfig(),
		Assembler: assembler.DefaultConfig(),
		Text: TextConfig{
			Clean:          textproc.DefaultCleanOptions(),
			DetectLanguage: true,
		},
		Output: OutputConfig{Format: "json"},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxUploadMB:     50,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
		},
	}
}

// Validate checks every section. Errors are *ocrerr.InvalidParameterError or
// *ocrerr.UnsupportedFeatureError wrapped with the section name.
func (c *Config) Validate() error {
	if !slices.Contains(LogLevels, strings.ToLower(c.LogLevel)) {
		return ocrerr.InvalidParameter("log_level", "must be one of %v, got %q", LogLevels, c.LogLevel)
	}
	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if err := c.Assembler.Validate(); err != nil {
		return fmt.Errorf("assembler: %w", err)
	}
	if c.Batch.Workers < 0 {
		return ocrerr.InvalidParameter("batch.workers", "must not be negative, got %d", c.Batch.Workers)
	}
	if !slices.Contains(document.Formats, strings.ToLower(c.Output.Format)) {
		return ocrerr.InvalidParameter("output.format", "must be one of %v, got %q", document.Formats, c.Output.Format)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ocrerr.InvalidParameter("server.port", "must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return ocrerr.InvalidParameter("server.max_upload_mb", "must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return ocrerr.InvalidParameter("server.timeout_sec", "must be positive, got %d", c.Server.TimeoutSec)
	}
	return nil
}

// BatchOptions converts the batch section for the worker pool.
func (c *Config) BatchOptions() batch.Options {
	return batch.Options{MaxWorkers: c.Batch.Workers, ContinueOnError: c.Batch.ContinueOnError}
}

// ToPipelineConfig converts the relevant sections for the OCR pipeline.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Detector = c.Detector
	cfg.Assembler = c.Assembler
	cfg.Text = c.Text.Clean
	cfg.DetectLanguage = c.Text.DetectLanguage
	return cfg
}
