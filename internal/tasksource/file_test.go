package tasksource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jayphen/taskboard/internal/types"
)

const sampleYAML = `tasks:
  - id: t1
    title: Write report
    workspaceId: ws
    status: in-progress
    priority: high
    dueDate: 2024-03-15
    recurring:
      frequency: weekly
      interval: 2
      endDate: 2024-06-01
  - id: t2
    title: Ship it
    workspaceId: ws
  - id: t3
    title: Legacy
    workspaceId: ws
    status: Archived
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	tasks, err := LoadYAML(writeSample(t))
	if err != nil {
		t.Fatalf("LoadYAML failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks", len(tasks))
	}

	first := tasks[0]
	if first.Status != types.StatusInProgress || first.Priority != types.PriorityHigh {
		t.Errorf("enums = %s/%s", first.Status, first.Priority)
	}
	if r := first.Recurring; r == nil || r.Frequency != types.FrequencyWeekly || r.Interval != 2 {
		t.Fatalf("recurring = %+v", first.Recurring)
	}
	if types.FormatDate(first.Recurring.NextDueDate) != "2024-03-15" {
		t.Errorf("NextDueDate = %v, want due date", first.Recurring.NextDueDate)
	}

	if tasks[1].Status != types.StatusToDo || tasks[1].Priority != types.PriorityMedium {
		t.Errorf("defaults = %s/%s", tasks[1].Status, tasks[1].Priority)
	}
	if tasks[2].Status != "Archived" {
		t.Errorf("unknown status = %q, want kept verbatim", tasks[2].Status)
	}
}

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := writeSample(t)

	fs, err := NewFileStore(path, false)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := fs.UpdateTask(ctx, "t2", types.StatusUpdate(types.StatusDone)); err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	created, err := fs.CreateTask(ctx, types.NewDraft("New one", "ws"))
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := fs.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	reopened, err := NewFileStore(path, true)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	tasks, _ := reopened.ListTasks(ctx, "ws")
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks after reopen", len(tasks))
	}
	if tasks[0].ID != "t2" || tasks[0].Status != types.StatusDone {
		t.Errorf("first = %+v", tasks[0])
	}
	if tasks[2].ID != created.ID {
		t.Errorf("created task not persisted: %+v", tasks[2])
	}
}

func TestFileStoreReadOnly(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(writeSample(t), true)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if _, err := fs.CreateTask(ctx, types.NewDraft("x", "ws")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateTask = %v, want ErrReadOnly", err)
	}
	if _, err := fs.UpdateTask(ctx, "t1", types.StatusUpdate(types.StatusDone)); !errors.Is(err, ErrReadOnly) {
		t.Errorf("UpdateTask = %v, want ErrReadOnly", err)
	}
	if err := fs.DeleteTask(ctx, "t1"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("DeleteTask = %v, want ErrReadOnly", err)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tasks.yaml")

	if _, err := NewFileStore(path, true); err == nil {
		t.Error("read-only store on missing file should fail")
	}

	fs, err := NewFileStore(path, false)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if _, err := fs.CreateTask(context.Background(), types.NewDraft("first", "ws")); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if !strings.Contains(string(data), "title: first") {
		t.Errorf("file contents:\n%s", data)
	}
}

func TestWriteYAMLDayOnlyDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	task := types.NewDraft("x", "ws")
	due, _ := types.ParseDate("2024-03-15")
	task.DueDate = &due

	if err := WriteYAML(path, []types.Task{task}); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "dueDate: \"2024-03-15\"") && !strings.Contains(string(data), "dueDate: 2024-03-15") {
		t.Errorf("dueDate not written as a plain date:\n%s", data)
	}
}
