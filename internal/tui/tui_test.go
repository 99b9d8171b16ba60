package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Jayphen/taskboard/internal/app"
	"github.com/Jayphen/taskboard/internal/calendar"
	"github.com/Jayphen/taskboard/internal/drag"
	"github.com/Jayphen/taskboard/internal/tasksource"
	"github.com/Jayphen/taskboard/internal/types"
)

// failingStore rejects every update and optionally every list call.
type failingStore struct {
	*tasksource.MemoryStore
	failList bool
}

func (f *failingStore) ListTasks(ctx context.Context, ws string) ([]types.Task, error) {
	if f.failList {
		return nil, errors.New("connection refused")
	}
	return f.MemoryStore.ListTasks(ctx, ws)
}

func (f *failingStore) UpdateTask(context.Context, string, types.TaskUpdate) (types.Task, error) {
	return types.Task{}, errors.New("503 service unavailable")
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func march(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func seedTasks() []types.Task {
	mk := func(id, title string, status types.Status, due *time.Time) types.Task {
		t := types.NewDraft(title, "ws")
		t.ID = id
		t.Status = status
		t.DueDate = due
		return t
	}
	d15, d18 := march(15), march(18)
	return []types.Task{
		mk("1", "Write report", types.StatusToDo, &d15),
		mk("2", "Review PR", types.StatusToDo, &d15),
		mk("3", "Ship release", types.StatusInProgress, nil),
		mk("4", "Plan sprint", types.StatusDone, &d18),
	}
}

// newTestModel returns a loaded model over store, on a clock fixed at
// 2024-03-15 10:00 UTC.
func newTestModel(t *testing.T, store tasksource.Store, opts Options) (*Model, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)}
	opts.Now = c.Now
	model := NewModel(app.NewService(store, "ws", nil), opts)
	model.Update(model.load()())
	return model, c
}

func memory() *tasksource.MemoryStore {
	return tasksource.NewMemoryStore(seedTasks())
}

func key(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys in order and returns the command from the last one.
func press(model *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = model.Update(key(k))
	}
	return cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, model *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	model.Update(cmd())
}

func TestNewModel(t *testing.T) {
	model := NewModel(app.NewService(memory(), "ws", nil), Options{Version: "1.0.0"})

	if model.version != "1.0.0" {
		t.Errorf("version = %q, want %q", model.version, "1.0.0")
	}
	if !model.loading {
		t.Error("expected loading to be true on new model")
	}
	if model.view != viewBoard {
		t.Errorf("view = %v, want Board", model.view)
	}
	if model.overflowLimit != calendar.DefaultOverflowLimit {
		t.Errorf("overflowLimit = %d", model.overflowLimit)
	}
	if model.newMode || model.drag != nil {
		t.Error("expected no prompt and no drag on new model")
	}

	cal := NewModel(app.NewService(memory(), "ws", nil), Options{StartOnCalendar: true, Granularity: calendar.Week})
	if cal.view != viewCalendar || cal.nav.Granularity != calendar.Week {
		t.Errorf("view = %v, granularity = %v", cal.view, cal.nav.Granularity)
	}
}

func TestLoadMessages(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})
	if model.loading || model.err != nil {
		t.Fatalf("loading = %t, err = %v", model.loading, model.err)
	}
	if !strings.Contains(model.View(), "Write report") {
		t.Error("board view missing loaded task")
	}

	broken, _ := newTestModel(t, &failingStore{MemoryStore: memory(), failList: true}, Options{})
	if broken.err == nil {
		t.Fatal("expected load error")
	}
	if view := broken.View(); !strings.Contains(view, "connection refused") || !strings.Contains(view, "Press r to retry") {
		t.Errorf("error view = %q", view)
	}
}

func TestBoardNavigation(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantCol int
		wantRow int
	}{
		{name: "down moves within column", keys: []string{"down"}, wantCol: 0, wantRow: 1},
		{name: "j matches down", keys: []string{"j"}, wantCol: 0, wantRow: 1},
		{name: "down stops at last task", keys: []string{"down", "down", "down"}, wantCol: 0, wantRow: 1},
		{name: "up at top does nothing", keys: []string{"up"}, wantCol: 0, wantRow: 0},
		{name: "left at first column does nothing", keys: []string{"left"}, wantCol: 0, wantRow: 0},
		{name: "right clamps row to shorter column", keys: []string{"down", "right"}, wantCol: 1, wantRow: 0},
		{name: "l matches right", keys: []string{"l", "l"}, wantCol: 2, wantRow: 0},
		{name: "right stops at last column", keys: []string{"right", "right", "right", "right", "right"}, wantCol: 4, wantRow: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := newTestModel(t, memory(), Options{})
			press(model, tt.keys...)

			if model.colIdx != tt.wantCol || model.rowIdx != tt.wantRow {
				t.Errorf("cursor = (%d,%d), want (%d,%d)", model.colIdx, model.rowIdx, tt.wantCol, tt.wantRow)
			}
		})
	}
}

func TestCollapseColumn(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})

	press(model, "c")
	if !model.collapse.Collapsed(types.StatusToDo) {
		t.Fatal("expected To Do column collapsed")
	}
	if strings.Contains(model.View(), "Write report") {
		t.Error("collapsed column still lists its tasks")
	}

	press(model, "space")
	if model.drag != nil {
		t.Error("picked a task from a collapsed column")
	}

	press(model, "c")
	if model.collapse.Collapsed(types.StatusToDo) {
		t.Error("expected To Do column expanded again")
	}
}

func TestBoardPickAndDrop(t *testing.T) {
	store := memory()
	model, _ := newTestModel(t, store, Options{})

	press(model, "space")
	if model.drag == nil || model.drag.TaskID() != "1" {
		t.Fatalf("drag = %+v, want task 1", model.drag)
	}

	press(model, "right", "right")
	if got := model.drag.Hovering(); got != drag.StatusTarget(types.StatusBlocked) {
		t.Errorf("hovering = %v, want Blocked", got)
	}
	if !strings.Contains(model.View(), "✥") {
		t.Error("view does not show the dragged task")
	}

	cmd := press(model, "enter")
	if model.drag != nil {
		t.Error("drag not cleared on release")
	}
	if !model.busy {
		t.Error("expected busy until the store answers")
	}
	if got, _ := model.svc.Collection().Get("1"); got.Status != types.StatusToDo {
		t.Errorf("status before response = %s, want unchanged", got.Status)
	}

	run(t, model, cmd)
	if model.busy {
		t.Error("busy not cleared after settle")
	}
	if got, _ := model.svc.Collection().Get("1"); got.Status != types.StatusBlocked {
		t.Errorf("status after response = %s, want Blocked", got.Status)
	}
	if stored, _ := store.GetTask(context.Background(), "1"); stored.Status != types.StatusBlocked {
		t.Errorf("stored status = %s", stored.Status)
	}
	if !strings.HasPrefix(model.currentStatus(), "Moved Write report") {
		t.Errorf("status = %q", model.currentStatus())
	}
}

func TestBoardDropFailureRestores(t *testing.T) {
	model, _ := newTestModel(t, &failingStore{MemoryStore: memory()}, Options{})

	cmd := press(model, "space", "right", "enter")
	run(t, model, cmd)

	if got, _ := model.svc.Collection().Get("1"); got.Status != types.StatusToDo {
		t.Errorf("status = %s, want original kept", got.Status)
	}
	if model.currentStatus() != msgRetry {
		t.Errorf("status = %q, want %q", model.currentStatus(), msgRetry)
	}
	if model.busy {
		t.Error("busy not cleared after failure")
	}
}

func TestPickRefusedWhileBusy(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})

	cmd := press(model, "space", "right", "enter")
	press(model, "space")
	if model.drag != nil {
		t.Error("picked while a commit was in flight")
	}
	if model.currentStatus() != "Saving, please wait" {
		t.Errorf("status = %q", model.currentStatus())
	}

	run(t, model, cmd)
	press(model, "space")
	if model.drag == nil {
		t.Error("pick refused after commit settled")
	}
}

func TestCancelAndNoOpDrops(t *testing.T) {
	tests := []struct {
		name string
		keys []string
	}{
		{name: "esc cancels", keys: []string{"space", "right", "esc", "enter"}},
		{name: "drop on own column", keys: []string{"space", "enter"}},
		{name: "drop back where it started", keys: []string{"space", "right", "left", "enter"}},
		{name: "switching view cancels", keys: []string{"space", "right", "tab", "tab", "enter"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := newTestModel(t, &failingStore{MemoryStore: memory()}, Options{})
			if cmd := press(model, tt.keys...); cmd != nil {
				t.Error("expected no command")
			}
			if model.drag != nil || model.busy {
				t.Errorf("drag = %v, busy = %t", model.drag, model.busy)
			}
			if got, _ := model.svc.Collection().Get("1"); got.Status != types.StatusToDo {
				t.Errorf("status = %s", got.Status)
			}
		})
	}
}

func TestCalendarNavigation(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantDay time.Time
		wantRef time.Time
		wantG   calendar.Granularity
	}{
		{name: "right is next day", keys: []string{"right"}, wantDay: march(16), wantRef: march(15), wantG: calendar.Month},
		{name: "up is previous week", keys: []string{"up"}, wantDay: march(8), wantRef: march(15), wantG: calendar.Month},
		{name: "leaving the month scrolls", keys: []string{"down", "down", "down"}, wantDay: time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC), wantRef: time.Date(2024, time.April, 5, 0, 0, 0, 0, time.UTC), wantG: calendar.Month},
		{name: "next month", keys: []string{"]"}, wantDay: time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), wantRef: time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC), wantG: calendar.Month},
		{name: "previous month", keys: []string{"["}, wantDay: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), wantRef: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC), wantG: calendar.Month},
		{name: "today returns", keys: []string{"]", "]", "t"}, wantDay: march(15), wantRef: march(15), wantG: calendar.Month},
		{name: "cycle keeps selected day", keys: []string{"right", "v"}, wantDay: march(16), wantRef: march(16), wantG: calendar.Week},
		{name: "day view up is one day", keys: []string{"v", "v", "up"}, wantDay: march(14), wantRef: march(14), wantG: calendar.Day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := newTestModel(t, memory(), Options{StartOnCalendar: true})
			press(model, tt.keys...)

			if !model.selDay.Equal(tt.wantDay) {
				t.Errorf("selDay = %v, want %v", model.selDay, tt.wantDay)
			}
			if !model.nav.Ref.Equal(tt.wantRef) {
				t.Errorf("Ref = %v, want %v", model.nav.Ref, tt.wantRef)
			}
			if model.nav.Granularity != tt.wantG {
				t.Errorf("granularity = %v, want %v", model.nav.Granularity, tt.wantG)
			}
		})
	}
}

func TestCalendarReschedule(t *testing.T) {
	store := memory()
	model, _ := newTestModel(t, store, Options{})

	press(model, "tab", "j", "space")
	if model.drag == nil || model.drag.TaskID() != "2" {
		t.Fatalf("drag = %+v, want task 2", model.drag)
	}

	cmd := press(model, "right", "right", "right", "enter")
	if got, _ := model.svc.Collection().Get("2"); !types.SameDay(*got.DueDate, march(18)) {
		t.Errorf("due before response = %v, want candidate applied", got.DueDate)
	}
	if stored, _ := store.GetTask(context.Background(), "2"); !types.SameDay(*stored.DueDate, march(15)) {
		t.Error("store changed before the command ran")
	}

	run(t, model, cmd)
	if stored, _ := store.GetTask(context.Background(), "2"); !types.SameDay(*stored.DueDate, march(18)) {
		t.Errorf("stored due = %v", stored.DueDate)
	}
	if !strings.Contains(model.currentStatus(), "2024-03-18") {
		t.Errorf("status = %q", model.currentStatus())
	}
}

func TestCalendarRescheduleFailureIsOutOfSync(t *testing.T) {
	model, _ := newTestModel(t, &failingStore{MemoryStore: memory()}, Options{StartOnCalendar: true})

	cmd := press(model, "space", "right", "enter")
	run(t, model, cmd)

	if got, _ := model.svc.Collection().Get("1"); !types.SameDay(*got.DueDate, march(16)) {
		t.Errorf("due = %v, want candidate kept", got.DueDate)
	}
	if model.currentStatus() != msgOutOfSync {
		t.Errorf("status = %q, want %q", model.currentStatus(), msgOutOfSync)
	}
}

func TestOverflowPopover(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{StartOnCalendar: true, OverflowLimit: 1})

	if !strings.Contains(model.View(), "+1 more") {
		t.Fatal("expected overflow marker in month view")
	}

	press(model, "o")
	if strings.Contains(model.View(), "+1 more") {
		t.Error("popover open but overflow marker still shown")
	}

	press(model, "esc")
	if !strings.Contains(model.View(), "+1 more") {
		t.Error("esc did not close the popover")
	}
}

func TestNewTaskPrompt(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantDue *time.Time
		want    types.Status
	}{
		{name: "board uses selected column", keys: []string{"right"}, want: types.StatusInProgress},
		{name: "calendar uses selected day", keys: []string{"tab", "right"}, wantDue: func() *time.Time { d := march(16); return &d }(), want: types.StatusToDo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, _ := newTestModel(t, memory(), Options{})
			press(model, tt.keys...)
			press(model, "n")
			if !model.newMode {
				t.Fatal("expected prompt open")
			}
			press(model, "B", "u", "y", " ", "m", "i", "l", "k")
			if !strings.Contains(model.View(), "Buy milk") {
				t.Error("prompt does not echo input")
			}

			cmd := press(model, "enter")
			if model.newMode {
				t.Error("prompt still open after enter")
			}
			run(t, model, cmd)

			if model.currentStatus() != "Created: Buy milk" {
				t.Fatalf("status = %q", model.currentStatus())
			}
			var created types.Task
			for _, task := range model.svc.Collection().Snapshot().Tasks {
				if task.Title == "Buy milk" {
					created = task
				}
			}
			if created.ID == "" || created.Status != tt.want {
				t.Errorf("created = %+v", created)
			}
			if (tt.wantDue == nil) != (created.DueDate == nil) ||
				tt.wantDue != nil && !types.SameDay(*created.DueDate, *tt.wantDue) {
				t.Errorf("due = %v, want %v", created.DueDate, tt.wantDue)
			}
		})
	}
}

func TestNewTaskPromptCancel(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})

	press(model, "n", "x", "esc")
	if model.newMode || model.input.Value() != "" {
		t.Error("esc did not close and clear the prompt")
	}

	if cmd := press(model, "n", "enter"); cmd != nil {
		t.Error("empty title should not create a task")
	}
	if got := model.svc.Collection().Snapshot().Len(); got != 4 {
		t.Errorf("tasks = %d, want 4", got)
	}
}

func TestStatusExpires(t *testing.T) {
	model, c := newTestModel(t, memory(), Options{})

	press(model, "c")
	if model.currentStatus() == "" {
		t.Fatal("expected a status message")
	}
	if !strings.Contains(model.View(), "collapsed") {
		t.Error("status not rendered")
	}

	c.now = c.now.Add(statusTTL + time.Second)
	if model.currentStatus() != "" {
		t.Errorf("status = %q, want expired", model.currentStatus())
	}
}

func TestWindowSizeMessage(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})

	updatedModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 12})
	newModel := updatedModel.(*Model)

	if newModel.width != 100 || newModel.height != 12 {
		t.Errorf("size = %dx%d, want 100x12", newModel.width, newModel.height)
	}
	if lines := strings.Count(newModel.View(), "\n") + 1; lines > 12 {
		t.Errorf("view is %d lines, want at most 12", lines)
	}
}

func TestQuit(t *testing.T) {
	model, _ := newTestModel(t, memory(), Options{})
	cmd := press(model, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
