// Package cmd implements the docweave command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/docweave/internal/config"
	"github.com/MeKo-Tech/docweave/internal/version"
)

// cli carries the state shared by the commands of one root command.
type cli struct {
	v       *viper.Viper
	loader  *config.Loader
	cfg     *config.Config
	cfgFile string
}

// NewRootCommand builds the command tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	c := &cli{v: v, loader: config.NewLoaderWithViper(v)}

	root := &cobra.Command{
		Use:   "docweave",
		Short: "Turn text detection maps into structured documents",
		Long: `docweave post-processes the output of OCR models.

It extracts scored word boxes from text probability maps, estimates and removes
page skew, and assembles recognized words into pages, blocks, lines and words
in reading order.

Examples:
  docweave extract page.png --format json > boxes.json
  docweave assemble boxes.json --strings words.txt --format text
  docweave serve --port 8080`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := c.load(); err != nil {
				return err
			}
			setupLogging(cmd.ErrOrStderr(), c.cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default is search in ., $HOME, $XDG_CONFIG_HOME/docweave, /etc/docweave)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Int("workers", 0, "parallel page workers (0 = number of CPUs)")
	pf.Bool("continue-on-error", false, "keep processing other pages when a page fails")

	root.AddCommand(
		newExtractCommand(c),
		newAssembleCommand(c),
		newServeCommand(c),
		newConfigCommand(c),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"verbose":           "verbose",
	"log-level":         "log_level",
	"workers":           "batch.workers",
	"continue-on-error": "batch.continue_on_error",
	"format":            "output.format",
	"output":            "output.file",
	"overlay-dir":       "output.overlay_dir",
	"rotated":           "detector.rotated_bbox",
	"box-thresh":        "detector.box_thresh",
	"bin-thresh":        "detector.bin_thresh",
	"min-size":          "detector.min_size_box",
	"max-candidates":    "detector.max_candidates",
	"resolve-lines":     "assembler.resolve_lines",
	"paragraph-break":   "assembler.paragraph_break",
	"host":              "server.host",
	"port":              "server.port",
	"cors-origin":       "server.cors_origin",
	"max-upload-size":   "server.max_upload_mb",
	"timeout":           "server.timeout_sec",
	"shutdown-timeout":  "server.shutdown_timeout",
}

// bindFlags binds the known flags of the running command to their keys.
func (c *cli) bindFlags(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = c.v.BindPFlag(key, f)
	})
	return err
}

func (c *cli) load() error {
	cfg, err := c.loader.LoadFile(c.cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	c.cfg = cfg
	return nil
}

func setupLogging(w io.Writer, cfg *config.Config) {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
