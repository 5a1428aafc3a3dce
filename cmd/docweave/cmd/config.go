package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docweave/internal/config"
)

func newConfigCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
		// config subcommands must work with an invalid configuration
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.bindFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := c.loader.LoadFileWithoutValidation(c.cfgFile)
			if err != nil {
				return err
			}
			c.cfg = cfg
			setupLogging(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Marshal(c.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid")
			return nil
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file in use and the search paths",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if used := c.loader.FileUsed(); used != "" {
				_, _ = fmt.Fprintln(out, "Using:", used)
			} else {
				_, _ = fmt.Fprintln(out, "Using: built-in defaults")
			}
			for _, p := range config.SearchPaths() {
				_, _ = fmt.Fprintln(out, "Search:", filepath.Join(p, config.FileName+".yaml"))
			}
		},
	}

	cmd.AddCommand(showCmd, initCmd, validateCmd, pathCmd)
	return cmd
}
