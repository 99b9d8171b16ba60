package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/types"
)

func newAddCmd() *cobra.Command {
	var (
		title       string
		description string
		due         string
		priority    string
		status      string
		keyTask     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Long:  `Create a task in the current workspace.`,
		Example: `  taskboard add --title "Write report" --due tomorrow --priority high
  taskboard add --title "Fix login" --status in-progress --key`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := types.NewDraft(title, "")
			draft.Description = description
			draft.IsKeyTask = keyTask

			if priority != "" {
				p, err := types.ParsePriority(priority)
				if err != nil {
					return err
				}
				draft.Priority = p
			}
			if status != "" {
				s, err := types.ParseStatus(status)
				if err != nil {
					return err
				}
				draft.Status = s
			}
			if due != "" {
				d, err := parseDay(due)
				if err != nil {
					return err
				}
				draft.DueDate = &d
			}

			svc, _, err := openService(cmd.Context(), "add")
			if err != nil {
				return err
			}
			defer svc.Close()

			created, err := svc.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s\n", created.ID, created.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "Priority: low, medium, high, critical")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Initial status (default To Do)")
	cmd.Flags().BoolVar(&keyTask, "key", false, "Mark as a key task")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newRecurCmd() *cobra.Command {
	var (
		freq     string
		interval int
		until    string
		noUntil  bool
		off      bool
	)

	cmd := &cobra.Command{
		Use:   "recur <task-id>",
		Short: "Set or clear a task's recurrence rule",
		Long: `Set or clear a task's recurrence rule.

Recurrence starts from the task's due date, which must be set. The store
expands occurrences; this only edits the rule.`,
		Example: `  taskboard recur 42 --freq weekly --interval 2
  taskboard recur 42 --until 2024-12-31
  taskboard recur 42 --off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if off && (freq != "" || until != "" || cmd.Flags().Changed("interval")) {
				return errors.New("--off cannot be combined with other rule flags")
			}

			svc, _, err := openService(cmd.Context(), "recur")
			if err != nil {
				return err
			}
			defer svc.Close()

			e, err := svc.RecurrenceEditor(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch {
			case off:
				e.Disable()
			case freq != "":
				f, err := types.ParseFrequency(freq)
				if err != nil {
					return err
				}
				if err := e.SetFrequency(f); err != nil {
					return err
				}
			case !e.Enabled():
				return errors.New("--freq is required to enable recurrence")
			}

			if !off {
				if cmd.Flags().Changed("interval") {
					if err := e.SetIntervalN(interval); err != nil {
						return err
					}
				}
				switch {
				case noUntil:
					e.SetEndDate(nil)
				case until != "":
					end, err := parseDay(until)
					if err != nil {
						return err
					}
					e.SetEndDate(&end)
				}
			}

			task, err := svc.SetRecurrence(cmd.Context(), args[0], e)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", task.Title, types.DescribeRule(task.Recurring))
			return nil
		},
	}

	cmd.Flags().StringVarP(&freq, "freq", "f", "", "Frequency: daily, weekly, monthly")
	cmd.Flags().IntVarP(&interval, "interval", "i", 1, "Repeat every N periods")
	cmd.Flags().StringVar(&until, "until", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&noUntil, "no-until", false, "Remove the end date")
	cmd.Flags().BoolVar(&off, "off", false, "Stop repeating")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openService(cmd.Context(), "rm")
			if err != nil {
				return err
			}
			defer svc.Close()

			task, ok := svc.Collection().Get(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}
			if err := svc.Delete(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s: %s\n", task.ID, task.Title)
			return nil
		},
	}
}
