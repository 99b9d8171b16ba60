package calendar

import (
	"testing"
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

func at(s string) *time.Time {
	t, err := types.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSameDayBucket(t *testing.T) {
	tasks := []types.Task{
		{ID: "am", DueDate: at("2024-03-15T09:00")},
		{ID: "pm", DueDate: at("2024-03-15T23:00")},
		{ID: "next", DueDate: at("2024-03-16T00:00")},
		{ID: "none"},
	}

	got := BucketFor(tasks, day(2024, 3, 15))
	if len(got) != 2 || got[0].ID != "am" || got[1].ID != "pm" {
		t.Errorf("BucketFor = %+v", got)
	}
}

func TestMonthGridInvariant(t *testing.T) {
	for year := 2023; year <= 2025; year++ {
		for month := time.January; month <= time.December; month++ {
			ref := day(year, month, 17)
			grid := MonthGrid(ref, nil)
			if len(grid)%7 != 0 {
				t.Fatalf("%s: len = %d, not a multiple of 7", ref.Format("2006-01"), len(grid))
			}

			var seen []int
			for i, c := range grid {
				if c == nil {
					continue
				}
				if int(c.Date.Weekday()) != i%7 {
					t.Errorf("%s: day %d in column %d", ref.Format("2006-01"), c.Date.Day(), i%7)
				}
				seen = append(seen, c.Date.Day())
			}
			if len(seen) != DaysIn(ref) {
				t.Fatalf("%s: %d day cells, want %d", ref.Format("2006-01"), len(seen), DaysIn(ref))
			}
			for i, d := range seen {
				if d != i+1 {
					t.Fatalf("%s: cell %d = day %d", ref.Format("2006-01"), i, d)
				}
			}
		}
	}
}

func TestMonthGridPadding(t *testing.T) {
	// March 2024 starts on a Friday and has 31 days.
	grid := MonthGrid(day(2024, 3, 1), nil)
	if len(grid) != 42 {
		t.Fatalf("len = %d, want 42", len(grid))
	}
	for i := 0; i < 5; i++ {
		if grid[i] != nil {
			t.Errorf("grid[%d] should be padding", i)
		}
	}
	if grid[5] == nil || grid[5].Date.Day() != 1 {
		t.Errorf("grid[5] = %+v, want March 1", grid[5])
	}

	// February 2015 starts on Sunday and fills exactly four rows.
	if got := len(MonthGrid(day(2015, 2, 10), nil)); got != 28 {
		t.Errorf("Feb 2015 len = %d, want 28", got)
	}
}

func TestWeekCellsStartOnSunday(t *testing.T) {
	cells := WeekCells(day(2024, 3, 13), nil) // Wednesday
	if len(cells) != 7 {
		t.Fatalf("len = %d, want 7", len(cells))
	}
	if !types.SameDay(cells[0].Date, day(2024, 3, 10)) {
		t.Errorf("first = %s, want 2024-03-10", types.FormatDate(cells[0].Date))
	}
	if !types.SameDay(cells[6].Date, day(2024, 3, 16)) {
		t.Errorf("last = %s, want 2024-03-16", types.FormatDate(cells[6].Date))
	}

	sunday := WeekCells(day(2024, 3, 10), nil)
	if !types.SameDay(sunday[0].Date, day(2024, 3, 10)) {
		t.Error("a Sunday reference should start its own week")
	}
}

func TestNavigatorAdvance(t *testing.T) {
	tests := []struct {
		name string
		g    Granularity
		ref  time.Time
		dir  int
		want string
	}{
		{"month forward", Month, day(2024, 3, 15), 1, "2024-04-15"},
		{"month back", Month, day(2024, 3, 15), -1, "2024-02-15"},
		{"month clamps", Month, day(2024, 1, 31), 1, "2024-02-29"},
		{"month across year", Month, day(2024, 12, 5), 1, "2025-01-05"},
		{"week forward", Week, day(2024, 3, 15), 1, "2024-03-22"},
		{"week back", Week, day(2024, 3, 15), -1, "2024-03-08"},
		{"day forward", Day, day(2024, 2, 29), 1, "2024-03-01"},
		{"day back", Day, day(2024, 3, 1), -1, "2024-02-29"},
		{"zero direction", Day, day(2024, 3, 1), 0, "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNavigator(tt.g, tt.ref)
			got := n.Advance(tt.dir)
			if types.FormatDate(got) != tt.want {
				t.Errorf("Advance(%d) = %s, want %s", tt.dir, types.FormatDate(got), tt.want)
			}
		})
	}
}

func TestNavigatorToday(t *testing.T) {
	n := NewNavigator(Week, day(2020, 1, 1))
	n.SetClock(func() time.Time { return time.Date(2024, 3, 15, 17, 45, 0, 0, time.UTC) })

	got := n.Today()
	if types.FormatDate(got) != "2024-03-15" || got.Hour() != 0 {
		t.Errorf("Today() = %v", got)
	}
	if n.Granularity != Week {
		t.Error("Today should keep the granularity")
	}
}

func TestNavigatorCells(t *testing.T) {
	tasks := []types.Task{{ID: "x", DueDate: at("2024-03-15")}}
	n := NewNavigator(Day, day(2024, 3, 15))

	cells := n.Cells(tasks)
	if len(cells) != 1 || !cells[0].Contains("x") {
		t.Fatalf("day cells = %+v", cells)
	}

	n.Cycle()
	if n.Granularity != Month {
		t.Fatalf("Cycle from day = %s, want month", n.Granularity)
	}
	if len(n.Cells(tasks))%7 != 0 {
		t.Error("month cells not aligned")
	}
}

func TestVisibleOverflow(t *testing.T) {
	c := Cell{Tasks: []types.Task{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}}

	shown, hidden := c.Visible(DefaultOverflowLimit)
	if len(shown) != 3 || hidden != 2 {
		t.Errorf("Visible = %d shown, %d hidden", len(shown), hidden)
	}
	if shown[0].ID != "1" || shown[2].ID != "3" {
		t.Errorf("shown = %+v, want collection order", shown)
	}
	if len(c.Tasks) != 5 {
		t.Error("Visible must not drop tasks from the cell")
	}

	small := Cell{Tasks: []types.Task{{ID: "1"}}}
	if shown, hidden := small.Visible(3); len(shown) != 1 || hidden != 0 {
		t.Errorf("small Visible = %d, %d", len(shown), hidden)
	}
}

func TestEndToEndCalendarScenario(t *testing.T) {
	tasks := []types.Task{
		{ID: "1", Status: types.StatusToDo},
		{ID: "2", Status: types.StatusDone, DueDate: at("2024-03-15")},
	}

	grid := MonthGrid(day(2024, 3, 1), tasks)
	for _, c := range grid {
		if c == nil {
			continue
		}
		if c.Contains("1") {
			t.Errorf("undated task 1 appears on %s", types.FormatDate(c.Date))
		}
		if c.Contains("2") != (c.Date.Day() == 15) {
			t.Errorf("task 2 placement wrong on %s", types.FormatDate(c.Date))
		}
	}
}

func TestPopoverState(t *testing.T) {
	var p PopoverState
	d := day(2024, 3, 15)
	if p.Open(d) {
		t.Error("popover open by default")
	}
	if !p.Toggle(d.Add(9 * time.Hour)) {
		t.Error("Toggle should open")
	}
	if !p.Open(d) {
		t.Error("popover should be keyed by calendar day")
	}
	p.Close()
	if p.Open(d) {
		t.Error("Close should hide all")
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"month": Month, "WEEK": Week, "d": Day} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Errorf("ParseGranularity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseGranularity("year"); err == nil {
		t.Error("expected error for year")
	}
}
