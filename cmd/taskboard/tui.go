package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/app"
	"github.com/Jayphen/taskboard/internal/calendar"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/tui"
)

func newTUICmd() *cobra.Command {
	var (
		startOnCalendar bool
		view            string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the terminal user interface",
		Long: `Launch the interactive board and calendar.

Logs go to logging.file only while the TUI is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore("tui")
			if err != nil {
				return err
			}

			workspace := cfg.WorkspaceID
			if workspaceFlag != "" {
				workspace = workspaceFlag
			}
			if view == "" {
				view = cfg.Calendar.DefaultView
			}
			g, err := calendar.ParseGranularity(view)
			if err != nil {
				return err
			}

			log := logging.WithCommand("tui").WithWorkspace(workspace)
			svc := app.NewService(store, workspace, log)
			defer svc.Close()

			model := tui.NewModel(svc, tui.Options{
				Version:         Version,
				OverflowLimit:   cfg.Calendar.OverflowLimit,
				Granularity:     g,
				StartOnCalendar: startOnCalendar,
				Log:             log,
			})
			p := tea.NewProgram(model, tea.WithAltScreen())

			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&startOnCalendar, "calendar", "c", false, "Open on the calendar tab")
	cmd.Flags().StringVar(&view, "view", "", "Calendar view: month, week or day")

	return cmd
}
