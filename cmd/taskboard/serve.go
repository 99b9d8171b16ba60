package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/config"
	"github.com/Jayphen/taskboard/internal/devserver"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/tasksource"
)

func newServeCmd() *cobra.Command {
	var (
		listen  string
		backend string
		seed    string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local task API for development",
		Long: `Run a local REST task API backed by memory or a YAML file.

The default store spec (http:url=http://127.0.0.1:8787) points at this
server, so "taskboard serve" in one terminal and "taskboard tui" in
another work without further configuration.`,
		Example: `  taskboard serve --seed tasks.example.yaml
  taskboard serve --backend file:path=tasks.yaml --token s3cret`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Get()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}
			if seed == "" {
				seed = cfg.Server.SeedFile
			}

			log := logging.WithCommand("serve")
			store, err := tasksource.CreateSourceFromString(backend, tasksource.Options{Log: log})
			if err != nil {
				return fmt.Errorf("failed to open backend: %w", err)
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seed != "" {
				n, err := devserver.Seed(ctx, store, seed)
				if err != nil {
					return err
				}
				log.WithField("file", seed).Infof("seeded %d tasks", n)
			}

			return serve(ctx, store, listen, devserver.Options{Token: token, Log: log})
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default server.listen)")
	cmd.Flags().StringVar(&backend, "backend", "memory", "Backing store spec: memory or file:path=...")
	cmd.Flags().StringVar(&seed, "seed", "", "YAML file of tasks to load at start")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token")

	return cmd
}

func serve(ctx context.Context, store tasksource.Store, addr string, opts devserver.Options) error {
	fmt.Printf("\033[32m✓ Task API listening on http://%s\033[0m\n", addr)
	return devserver.New(store, opts).Start(ctx, addr)
}
