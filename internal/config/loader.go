package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the base name of configuration files, without extension.
	FileName = "docweave"

	// EnvPrefix prefixes environment variables, e.g. DOCWEAVE_DETECTOR_BOX_THRESH.
	EnvPrefix = "DOCWEAVE"
)

// Loader reads configuration from defaults, files, environment variables and
// bound flags, in increasing precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader on the global viper instance, so that flags
// bound by the CLI take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper returns a loader on v.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load searches the standard paths for a configuration file and returns the
// validated configuration. A missing file is not an error.
func (l *Loader) Load() (*Config, error) {
	return l.LoadFile("")
}

// LoadFile reads the given file, or searches the standard paths when file is
// empty, and returns the validated configuration.
func (l *Loader) LoadFile(file string) (*Config, error) {
	cfg, err := l.LoadFileWithoutValidation(file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFileWithoutValidation is LoadFile without the validation step.
func (l *Loader) LoadFileWithoutValidation(file string) (*Config, error) {
	l.setupEnvironment()
	l.setDefaults()

	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("config file %s: %w", file, err)
		}
		l.v.SetConfigFile(file)
	} else {
		l.v.SetConfigName(FileName)
		l.v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// FileUsed returns the path of the configuration file that was read, if any.
func (l *Loader) FileUsed() string { return l.v.ConfigFileUsed() }

// SearchPaths returns the directories searched for docweave.yaml, in order.
func SearchPaths() []string {
	paths := []string{"."}
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		paths = append(paths, filepath.Join(dir, FileName))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", FileName))
	}
	return append(paths, filepath.Join("/etc", FileName))
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("detector.box_thresh", d.Detector.BoxThresh)
	l.v.SetDefault("detector.bin_thresh", d.Detector.BinThresh)
	l.v.SetDefault("detector.min_size_box", d.Detector.MinSizeBox)
	l.v.SetDefault("detector.max_candidates", d.Detector.MaxCandidates)
	l.v.SetDefault("detector.rotated_bbox", d.Detector.RotatedBBox)

	l.v.SetDefault("assembler.resolve_lines", d.Assembler.ResolveLines)
	l.v.SetDefault("assembler.resolve_blocks", d.Assembler.ResolveBlocks)
	l.v.SetDefault("assembler.paragraph_break", d.Assembler.ParagraphBreak)

	l.v.SetDefault("text.clean.form", d.Text.Clean.Form)
	l.v.SetDefault("text.clean.collapse_whitespace", d.Text.Clean.CollapseWhitespace)
	l.v.SetDefault("text.clean.trim", d.Text.Clean.Trim)
	l.v.SetDefault("text.clean.strip_invisible", d.Text.Clean.StripInvisible)
	l.v.SetDefault("text.clean.replacements", d.Text.Clean.Replacements)
	l.v.SetDefault("text.detect_language", d.Text.DetectLanguage)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)
	l.v.SetDefault("output.overlay_dir", d.Output.OverlayDir)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// WriteDefault writes the default configuration as YAML to path. Existing
// files are left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	d := DefaultConfig()
	data, err := Marshal(&d)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
