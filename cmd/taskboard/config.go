package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage taskboard configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the merged configuration from all sources. The API token is masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			out, err := cfg.Redacted().YAML()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/taskboard/config.yaml.

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}

			configPath := filepath.Join(homeDir, ".config", "taskboard", "config.yaml")

			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
			}

			if err := config.WriteExample(configPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created config file at: %s\n", configPath)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Edit this file to customize your settings.")
			fmt.Fprintln(out, "Run 'taskboard config show' to see current values.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration file search paths (in priority order):")
			fmt.Fprintln(out)

			for i, p := range config.ConfigPaths() {
				exists := "not found"
				if _, err := os.Stat(p); err == nil {
					exists = "found"
				}
				fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, p, exists)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Environment variables can override file settings.")
			fmt.Fprintln(out, "Supported env vars:")
			for _, env := range []string{
				"TASKBOARD_STORE",
				"TASKBOARD_WORKSPACE",
				"TASKBOARD_API_TOKEN",
				"TASKBOARD_REDIS_URL (or REDIS_URL)",
				"TASKBOARD_CACHE",
				"TASKBOARD_CACHE_TTL",
				"TASKBOARD_REQUEST_TIMEOUT",
				"TASKBOARD_LISTEN",
				"TASKBOARD_LOG_LEVEL",
				"TASKBOARD_LOG_FILE",
			} {
				fmt.Fprintf(out, "  %s\n", env)
			}
			return nil
		},
	}
}
