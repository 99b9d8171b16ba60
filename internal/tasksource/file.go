package tasksource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jayphen/taskboard/internal/types"
)

// FileStore persists tasks to a YAML file. Every mutation rewrites the file.
type FileStore struct {
	*MemoryStore

	filePath string
	readOnly bool
	mu       sync.Mutex
	info     SourceInfo
}

// NewFileStore opens (or, unless readOnly, creates) the YAML file at path.
func NewFileStore(path string, readOnly bool) (*FileStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	tasks, err := LoadYAML(absPath)
	if errors.Is(err, os.ErrNotExist) && !readOnly {
		tasks, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &FileStore{
		MemoryStore: NewMemoryStore(tasks),
		filePath:    absPath,
		readOnly:    readOnly,
		info: SourceInfo{
			Type:        SourceTypeFile,
			Name:        filepath.Base(absPath),
			Description: fmt.Sprintf("Task file: %s", absPath),
			Config: Metadata{
				"path":     absPath,
				"readOnly": readOnly,
			},
		},
	}, nil
}

// Info returns metadata about this store.
func (f *FileStore) Info() SourceInfo {
	return f.info
}

// CreateTask stores a draft and saves the file.
func (f *FileStore) CreateTask(ctx context.Context, draft types.Task) (types.Task, error) {
	if f.readOnly {
		return types.Task{}, ErrReadOnly
	}
	t, err := f.MemoryStore.CreateTask(ctx, draft)
	if err != nil {
		return types.Task{}, err
	}
	return t, f.save()
}

// UpdateTask updates a task and saves the file.
func (f *FileStore) UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error) {
	if f.readOnly {
		return types.Task{}, ErrReadOnly
	}
	t, err := f.MemoryStore.UpdateTask(ctx, id, update)
	if err != nil {
		return types.Task{}, err
	}
	return t, f.save()
}

// DeleteTask removes a task and saves the file.
func (f *FileStore) DeleteTask(ctx context.Context, id string) error {
	if f.readOnly {
		return ErrReadOnly
	}
	if err := f.MemoryStore.DeleteTask(ctx, id); err != nil {
		return err
	}
	return f.save()
}

func (f *FileStore) save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return WriteYAML(f.filePath, f.all())
}

// taskFile is the on-disk layout shared by the file store and seed files.
type taskFile struct {
	Tasks []taskRecord `yaml:"tasks"`
}

type taskRecord struct {
	ID          string      `yaml:"id,omitempty"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description,omitempty"`
	WorkspaceID string      `yaml:"workspaceId"`
	Priority    string      `yaml:"priority,omitempty"`
	Status      string      `yaml:"status,omitempty"`
	DueDate     string      `yaml:"dueDate,omitempty"`
	IsKeyTask   bool        `yaml:"isKeyTask,omitempty"`
	Recurring   *ruleRecord `yaml:"recurring,omitempty"`
}

type ruleRecord struct {
	Frequency   string `yaml:"frequency"`
	Interval    int    `yaml:"interval"`
	NextDueDate string `yaml:"nextDueDate,omitempty"`
	EndDate     string `yaml:"endDate,omitempty"`
}

// LoadYAML reads tasks from a YAML task file.
func LoadYAML(path string) ([]types.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file taskFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	tasks := make([]types.Task, 0, len(file.Tasks))
	for i, rec := range file.Tasks {
		t, err := rec.toTask()
		if err != nil {
			return nil, fmt.Errorf("%s: task %d: %w", path, i+1, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// WriteYAML writes tasks to path, creating parent directories.
func WriteYAML(path string, tasks []types.Task) error {
	file := taskFile{Tasks: make([]taskRecord, 0, len(tasks))}
	for _, t := range tasks {
		file.Tasks = append(file.Tasks, recordFromTask(t))
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (r taskRecord) toTask() (types.Task, error) {
	t := types.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		WorkspaceID: r.WorkspaceID,
		Priority:    types.Priority(r.Priority),
		Status:      types.Status(r.Status),
		IsKeyTask:   r.IsKeyTask,
	}
	// Unknown values are kept verbatim so the board can report them.
	if s, err := types.ParseStatus(r.Status); err == nil {
		t.Status = s
	}
	if p, err := types.ParsePriority(r.Priority); err == nil {
		t.Priority = p
	}
	if r.Status == "" {
		t.Status = types.StatusToDo
	}
	if r.Priority == "" {
		t.Priority = types.PriorityMedium
	}
	if r.DueDate != "" {
		d, err := types.ParseDate(r.DueDate)
		if err != nil {
			return t, err
		}
		t.DueDate = &d
	}
	if r.Recurring != nil {
		freq, err := types.ParseFrequency(r.Recurring.Frequency)
		if err != nil {
			return t, err
		}
		rule := &types.RecurrenceRule{Frequency: freq, Interval: r.Recurring.Interval}
		if r.Recurring.NextDueDate != "" {
			if rule.NextDueDate, err = types.ParseDate(r.Recurring.NextDueDate); err != nil {
				return t, err
			}
		} else if t.DueDate != nil {
			rule.NextDueDate = types.Midnight(*t.DueDate)
		}
		if r.Recurring.EndDate != "" {
			end, err := types.ParseDate(r.Recurring.EndDate)
			if err != nil {
				return t, err
			}
			rule.EndDate = &end
		}
		t.Recurring = rule
	}
	return t, nil
}

func recordFromTask(t types.Task) taskRecord {
	rec := taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		WorkspaceID: t.WorkspaceID,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		IsKeyTask:   t.IsKeyTask,
	}
	if t.HasDueDate() {
		rec.DueDate = formatStamp(*t.DueDate)
	}
	if r := t.Recurring; r != nil {
		rec.Recurring = &ruleRecord{
			Frequency:   string(r.Frequency),
			Interval:    r.Interval,
			NextDueDate: types.FormatDate(r.NextDueDate),
		}
		if r.EndDate != nil {
			rec.Recurring.EndDate = types.FormatDate(*r.EndDate)
		}
	}
	return rec
}

// formatStamp writes day-only dates for midnight values.
func formatStamp(t time.Time) string {
	if t.Equal(types.Midnight(t)) {
		return types.FormatDate(t)
	}
	return t.Format(time.RFC3339)
}
