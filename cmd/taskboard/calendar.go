package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/calendar"
	"github.com/Jayphen/taskboard/internal/drag"
	"github.com/Jayphen/taskboard/internal/tui"
	"github.com/Jayphen/taskboard/internal/types"
)

// now is the clock used to resolve relative dates.
var now = time.Now

func newCalendarCmd() *cobra.Command {
	var (
		view string
		date string
	)

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show tasks by due date",
		Long: `Print a month, week or day of the workspace's tasks by due date.

Month views list at most calendar.overflow_limit tasks per day and
summarise the rest as "+N more".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := calendar.ParseGranularity(view)
			if err != nil {
				return err
			}
			ref, err := parseDay(date)
			if err != nil {
				return err
			}

			svc, cfg, err := openService(cmd.Context(), "calendar")
			if err != nil {
				return err
			}
			defer svc.Close()

			if !cmd.Flags().Changed("view") {
				if g, err = calendar.ParseGranularity(cfg.Calendar.DefaultView); err != nil {
					return fmt.Errorf("invalid calendar.default_view: %w", err)
				}
			}

			nav := calendar.NewNavigator(g, ref)
			printCalendar(cmd.OutOrStdout(), nav, svc.Collection().Snapshot().Tasks, cfg.Calendar.OverflowLimit)
			return nil
		},
	}

	cmd.Flags().StringVar(&view, "view", "month", "View: month, week or day")
	cmd.Flags().StringVar(&date, "date", "today", "Reference date (YYYY-MM-DD, today, tomorrow)")

	return cmd
}

func newRescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <task-id> <date>",
		Short: "Move a task to another due date",
		Long: `Move a task to another due date.

The date is YYYY-MM-DD, today or tomorrow. The time of day is dropped;
the task is due at midnight of that day.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(args[1])
			if err != nil {
				return err
			}

			svc, _, err := openService(cmd.Context(), "reschedule")
			if err != nil {
				return err
			}
			defer svc.Close()

			task, ok := svc.Collection().Get(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}

			target := drag.NewDayTarget(day)
			if target.Contains(task) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already due %s\n", task.Title, types.FormatDate(day))
				return nil
			}
			if err := svc.Reschedule(cmd.Context(), task.ID, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rescheduled %s to %s\n", task.Title, types.FormatDate(day))
			return nil
		},
	}
}

// parseDay accepts YYYY-MM-DD (or any store date layout), today and tomorrow.
func parseDay(s string) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return types.Midnight(now()), nil
	case "tomorrow":
		return types.Midnight(now()).AddDate(0, 0, 1), nil
	}
	t, err := types.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return types.Midnight(t), nil
}

func printCalendar(w io.Writer, nav *calendar.Navigator, tasks []types.Task, limit int) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Foreground(tui.ColorCyan).Render(nav.Title()))
	fmt.Fprintln(w)

	cells := nav.Cells(tasks)
	if nav.Granularity == calendar.Month {
		printMonthGrid(w, cells)
		fmt.Fprintln(w)
	} else {
		// Week and day views are short enough to list in full.
		limit = 0
	}

	dim := lipgloss.NewStyle().Foreground(tui.ColorGray)
	empty := true
	for _, c := range cells {
		if c == nil || len(c.Tasks) == 0 {
			continue
		}
		empty = false
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(c.Date.Format("Mon Jan 2")))
		visible, more := c.Visible(limit)
		for _, t := range visible {
			fmt.Fprintln(w, taskLine(t))
		}
		if more > 0 {
			fmt.Fprintln(w, dim.Render(fmt.Sprintf("  +%d more", more)))
		}
	}
	if empty {
		fmt.Fprintln(w, dim.Render("Nothing due"))
	}
}

// printMonthGrid prints day numbers with a task count marker.
func printMonthGrid(w io.Writer, cells []*calendar.Cell) {
	for _, d := range calendar.Weekdays {
		fmt.Fprintf(w, "%-6s", d)
	}
	fmt.Fprintln(w)

	today := types.Midnight(now())
	for i, c := range cells {
		cell := ""
		if c != nil {
			cell = fmt.Sprintf("%2d", c.Date.Day())
			if n := len(c.Tasks); n > 0 {
				cell += fmt.Sprintf("·%d", n)
			}
		}
		cell = fmt.Sprintf("%-6s", cell)
		if c != nil && types.SameDay(c.Date, today) {
			cell = lipgloss.NewStyle().Foreground(tui.ColorGreen).Bold(true).Render(cell)
		}
		fmt.Fprint(w, cell)
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
}
