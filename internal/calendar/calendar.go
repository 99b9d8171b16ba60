// Package calendar groups tasks into day cells for month, week and day views.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

// DefaultOverflowLimit is how many tasks a day cell shows before collapsing
// the rest into a "+N more" affordance.
const DefaultOverflowLimit = 3

// Granularity selects the calendar view.
type Granularity int

const (
	Month Granularity = iota
	Week
	Day
)

func (g Granularity) String() string {
	switch g {
	case Month:
		return "month"
	case Week:
		return "week"
	case Day:
		return "day"
	}
	return fmt.Sprintf("granularity(%d)", int(g))
}

// Next cycles month -> week -> day -> month.
func (g Granularity) Next() Granularity {
	return (g + 1) % 3
}

// ParseGranularity parses "month", "week" or "day".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "m", "":
		return Month, nil
	case "week", "w":
		return Week, nil
	case "day", "d":
		return Day, nil
	}
	return Month, fmt.Errorf("unknown calendar view %q", s)
}

// Cell is one calendar day and every task due on it.
type Cell struct {
	Date  time.Time
	Tasks []types.Task
}

// Visible splits the cell into the tasks to draw and the count of the rest.
// A limit <= 0 shows everything.
func (c Cell) Visible(limit int) ([]types.Task, int) {
	if limit <= 0 || len(c.Tasks) <= limit {
		return c.Tasks, 0
	}
	return c.Tasks[:limit], len(c.Tasks) - limit
}

// Contains reports whether the cell holds the task.
func (c Cell) Contains(taskID string) bool {
	for _, t := range c.Tasks {
		if t.ID == taskID {
			return true
		}
	}
	return false
}

// BucketFor returns the tasks due on day, in collection order.
// Tasks without a due date never match.
func BucketFor(tasks []types.Task, day time.Time) []types.Task {
	var out []types.Task
	for _, t := range tasks {
		if t.HasDueDate() && types.SameDay(*t.DueDate, day) {
			out = append(out, t)
		}
	}
	return out
}

// dayIndex buckets every dated task by its calendar day key.
func dayIndex(tasks []types.Task) map[string][]types.Task {
	idx := make(map[string][]types.Task)
	for _, t := range tasks {
		if !t.HasDueDate() {
			continue
		}
		key := types.FormatDate(*t.DueDate)
		idx[key] = append(idx[key], t)
	}
	return idx
}

// MonthGrid lays out the month containing ref as Sun-Sat rows. Days outside
// the month are nil so the grid length is always a multiple of 7.
func MonthGrid(ref time.Time, tasks []types.Task) []*Cell {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	offset := int(first.Weekday()) // Sunday == 0
	days := DaysIn(ref)
	total := ((offset + days + 6) / 7) * 7

	idx := dayIndex(tasks)
	grid := make([]*Cell, total)
	for d := 0; d < days; d++ {
		date := first.AddDate(0, 0, d)
		grid[offset+d] = &Cell{Date: date, Tasks: idx[types.FormatDate(date)]}
	}
	return grid
}

// WeekStart returns midnight of the Sunday on or before ref.
func WeekStart(ref time.Time) time.Time {
	mid := types.Midnight(ref)
	return mid.AddDate(0, 0, -int(mid.Weekday()))
}

// WeekCells returns the seven days of the week containing ref.
func WeekCells(ref time.Time, tasks []types.Task) []Cell {
	start := WeekStart(ref)
	idx := dayIndex(tasks)
	cells := make([]Cell, 7)
	for i := range cells {
		date := start.AddDate(0, 0, i)
		cells[i] = Cell{Date: date, Tasks: idx[types.FormatDate(date)]}
	}
	return cells
}

// DayCell returns the single cell for ref.
func DayCell(ref time.Time, tasks []types.Task) Cell {
	date := types.Midnight(ref)
	return Cell{Date: date, Tasks: BucketFor(tasks, date)}
}

// DaysIn returns the number of days in t's month.
func DaysIn(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

// AddMonths moves t by n months, clamping the day to the target month's length.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, n, 0)
	day := t.Day()
	if last := DaysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// Weekdays are the fixed grid headers.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
