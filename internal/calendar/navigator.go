package calendar

import (
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

// Navigator holds the reference date and view granularity.
type Navigator struct {
	Granularity Granularity
	Ref         time.Time

	now func() time.Time
}

// NewNavigator creates a navigator positioned on ref.
func NewNavigator(g Granularity, ref time.Time) *Navigator {
	return &Navigator{Granularity: g, Ref: types.Midnight(ref), now: time.Now}
}

// SetClock overrides the clock used by Today.
func (n *Navigator) SetClock(now func() time.Time) {
	n.now = now
}

// Advance moves the reference date by one unit of the current granularity.
// Positive direction moves forward, negative moves back, zero is a no-op.
func (n *Navigator) Advance(direction int) time.Time {
	step := 0
	switch {
	case direction > 0:
		step = 1
	case direction < 0:
		step = -1
	default:
		return n.Ref
	}

	switch n.Granularity {
	case Month:
		n.Ref = AddMonths(n.Ref, step)
	case Week:
		n.Ref = n.Ref.AddDate(0, 0, 7*step)
	default:
		n.Ref = n.Ref.AddDate(0, 0, step)
	}
	return n.Ref
}

// Today resets the reference date to the current day.
func (n *Navigator) Today() time.Time {
	now := n.now
	if now == nil {
		now = time.Now
	}
	n.Ref = types.Midnight(now())
	return n.Ref
}

// Cycle switches to the next granularity, keeping the reference date.
func (n *Navigator) Cycle() Granularity {
	n.Granularity = n.Granularity.Next()
	return n.Granularity
}

// Cells returns the cells for the current view. Only month views contain nil
// padding cells.
func (n *Navigator) Cells(tasks []types.Task) []*Cell {
	switch n.Granularity {
	case Month:
		return MonthGrid(n.Ref, tasks)
	case Week:
		week := WeekCells(n.Ref, tasks)
		out := make([]*Cell, len(week))
		for i := range week {
			out[i] = &week[i]
		}
		return out
	default:
		c := DayCell(n.Ref, tasks)
		return []*Cell{&c}
	}
}

// Title returns a heading for the current view, e.g. "March 2024".
func (n *Navigator) Title() string {
	switch n.Granularity {
	case Month:
		return n.Ref.Format("January 2006")
	case Week:
		start := WeekStart(n.Ref)
		end := start.AddDate(0, 0, 6)
		return "Week of " + start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return n.Ref.Format("Monday, January 2, 2006")
	}
}

// PopoverState records which day cells have their overflow listing open.
// It is view state only.
type PopoverState struct {
	open map[string]bool
}

// Open reports whether the overflow listing for day is shown.
func (p *PopoverState) Open(day time.Time) bool {
	return p.open[types.FormatDate(day)]
}

// Toggle flips the overflow listing for day and returns the new value.
func (p *PopoverState) Toggle(day time.Time) bool {
	if p.open == nil {
		p.open = make(map[string]bool)
	}
	key := types.FormatDate(day)
	p.open[key] = !p.open[key]
	return p.open[key]
}

// Close hides every open listing.
func (p *PopoverState) Close() {
	p.open = nil
}
