package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Jayphen/taskboard/internal/board"
	"github.com/Jayphen/taskboard/internal/tui"
	"github.com/Jayphen/taskboard/internal/types"
)

func newBoardCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks grouped by status",
		Long:  `Print the workspace's tasks as status columns in board order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openService(cmd.Context(), "board")
			if err != nil {
				return err
			}
			defer svc.Close()

			b := svc.Board()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, boardJSON(b))
			}
			printBoard(out, b)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")

	return cmd
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to another status column",
		Long: `Move a task to another status column.

Status accepts the canonical value or a short form: todo, in-progress,
blocked, review, done. The board only changes once the store confirms.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := types.ParseStatus(args[1])
			if err != nil {
				return err
			}

			svc, _, err := openService(cmd.Context(), "move")
			if err != nil {
				return err
			}
			defer svc.Close()

			task, ok := svc.Collection().Get(args[0])
			if !ok {
				return fmt.Errorf("task %s not found", args[0])
			}
			if task.Status == status {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", task.Title, status.Label())
				return nil
			}

			if err := svc.Move(cmd.Context(), task.ID, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", task.Title, status.Label())
			return nil
		},
	}
}

type columnJSON struct {
	Status types.Status `json:"status"`
	Tasks  []types.Task `json:"tasks"`
}

func boardJSON(b board.Board) []columnJSON {
	cols := board.Columns()
	out := make([]columnJSON, 0, len(cols))
	for _, status := range cols {
		col, _ := b.Column(status)
		tasks := col.Tasks
		if tasks == nil {
			tasks = []types.Task{}
		}
		out = append(out, columnJSON{Status: status, Tasks: tasks})
	}
	return out
}

func printBoard(w io.Writer, b board.Board) {
	for i, status := range board.Columns() {
		col, _ := b.Column(status)
		if i > 0 {
			fmt.Fprintln(w)
		}

		heading := lipgloss.NewStyle().Bold(true).Foreground(tui.StatusColors[status]).
			Render(fmt.Sprintf("%s (%d)", status.Label(), len(col.Tasks)))
		fmt.Fprintln(w, heading)
		fmt.Fprintln(w, strings.Repeat("-", 40))

		if len(col.Tasks) == 0 {
			fmt.Fprintln(w, lipgloss.NewStyle().Foreground(tui.ColorDimGray).Render("  (empty)"))
			continue
		}
		for _, t := range col.Tasks {
			fmt.Fprintln(w, taskLine(t))
		}
	}

	if err := b.Err(); err != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, lipgloss.NewStyle().Foreground(tui.ColorYellow).Render("! "+err.Error()))
	}
}

// taskLine renders one task as "  <id>  <title>  [details]".
func taskLine(t types.Task) string {
	var details []string
	if t.Priority != "" && t.Priority != types.PriorityMedium {
		details = append(details, string(t.Priority))
	}
	if t.HasDueDate() {
		details = append(details, "due "+types.FormatDate(*t.DueDate))
	}
	if t.Recurring != nil {
		details = append(details, tui.IndicatorRecurring+" "+types.DescribeRule(t.Recurring))
	}
	if t.IsKeyTask {
		details = append(details, tui.IndicatorKeyTask)
	}

	line := fmt.Sprintf("  %-8s %s", t.ID, t.Title)
	if len(details) > 0 {
		line += "  " + lipgloss.NewStyle().Foreground(tui.ColorGray).Render(strings.Join(details, ", "))
	}
	return line
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
