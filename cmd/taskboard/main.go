// Package main is the entry point for the taskboard CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/app"
	"github.com/Jayphen/taskboard/internal/config"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/redis"
	"github.com/Jayphen/taskboard/internal/tasksource"
)

// Version is set at build time.
var Version = "dev"

// Global flags
var (
	storeFlag     string
	workspaceFlag string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Board and calendar views over a task store",
		Long: `Taskboard shows a workspace's tasks as a status board and a calendar.

Tasks are moved between status columns or rescheduled onto another day
from the command line or the interactive TUI. The task store is a remote
REST service, a local YAML file, or memory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// The TUI owns the terminal, so it only logs to file.
			initLogging(cmd.Name() == "tui")
		},
	}

	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "Task store spec (e.g. http:url=..., file:path=tasks.yaml, memory)")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace ID")

	rootCmd.AddCommand(
		newBoardCmd(),
		newMoveCmd(),
		newCalendarCmd(),
		newRescheduleCmd(),
		newAddCmd(),
		newRecurCmd(),
		newRmCmd(),
		newTUICmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// initLogging initializes the logger from config.
func initLogging(quiet bool) {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(&logging.Config{Level: logging.WarnLevel, Quiet: quiet})
		return
	}

	lc := logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.File,
		JSON:       cfg.Logging.JSON,
		Console:    cfg.Logging.Console,
		Quiet:      quiet,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	if err := logging.InitFromLogConfig(lc); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
	}
}

// openStore builds the configured store, honouring the global flags.
func openStore(command string) (tasksource.Store, *config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	spec := cfg.Store
	if storeFlag != "" {
		spec = storeFlag
	}

	log := logging.WithCommand(command)
	opts := tasksource.Options{
		Token:    cfg.APIToken,
		Timeout:  cfg.RequestTimeout,
		CacheTTL: cfg.CacheTTL,
		Log:      log,
	}
	if cfg.CacheEnabled {
		rc, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("cache disabled")
		} else {
			opts.Cache = rc
		}
	}

	store, err := tasksource.CreateSourceFromString(spec, opts)
	if err != nil {
		if opts.Cache != nil {
			_ = opts.Cache.Close()
		}
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, cfg, nil
}

// openService opens the store and loads the workspace's tasks.
func openService(ctx context.Context, command string) (*app.Service, *config.Config, error) {
	store, cfg, err := openStore(command)
	if err != nil {
		return nil, nil, err
	}

	workspace := cfg.WorkspaceID
	if workspaceFlag != "" {
		workspace = workspaceFlag
	}

	svc := app.NewService(store, workspace, logging.WithCommand(command).WithWorkspace(workspace))
	if _, err := svc.Load(ctx); err != nil {
		_ = svc.Close()
		return nil, nil, err
	}
	return svc, cfg, nil
}
