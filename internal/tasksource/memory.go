package tasksource

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Jayphen/taskboard/internal/types"
)

// MemoryStore keeps tasks in process. It enforces the same validation as
// the remote store and assigns UUIDs to new tasks.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []types.Task
	newID func() string
	info  SourceInfo
}

// NewMemoryStore creates a store seeded with tasks. Seed tasks without an
// ID are given one.
func NewMemoryStore(seed []types.Task) *MemoryStore {
	m := &MemoryStore{
		newID: uuid.NewString,
		info: SourceInfo{
			Type:        SourceTypeMemory,
			Name:        "memory",
			Description: "In-memory task store",
			Config:      Metadata{},
		},
	}
	for _, t := range seed {
		t = t.Clone()
		if t.ID == "" {
			t.ID = m.newID()
		}
		m.tasks = append(m.tasks, t)
	}
	return m
}

// Info returns metadata about this store.
func (m *MemoryStore) Info() SourceInfo {
	return m.info
}

// ListTasks returns tasks in insertion order.
func (m *MemoryStore) ListTasks(ctx context.Context, workspaceID string) ([]types.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if workspaceID == "" || t.WorkspaceID == workspaceID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

// GetTask retrieves a task by ID.
func (m *MemoryStore) GetTask(ctx context.Context, id string) (types.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i := m.indexLocked(id); i >= 0 {
		return m.tasks[i].Clone(), nil
	}
	return types.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
}

// CreateTask validates and stores a draft.
func (m *MemoryStore) CreateTask(ctx context.Context, draft types.Task) (types.Task, error) {
	t := draft.Clone()
	if t.Status == "" {
		t.Status = types.StatusToDo
	}
	if t.Priority == "" {
		t.Priority = types.PriorityMedium
	}
	if err := types.Validate(t); err != nil {
		return types.Task{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" || m.indexLocked(t.ID) >= 0 {
		t.ID = m.newID()
	}
	m.tasks = append(m.tasks, t)
	return t.Clone(), nil
}

// UpdateTask applies a partial update to a stored task.
func (m *MemoryStore) UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return types.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	next := update.ApplyTo(m.tasks[i])
	if err := types.Validate(next); err != nil {
		return types.Task{}, err
	}
	m.tasks[i] = next
	return next.Clone(), nil
}

// DeleteTask removes a task.
func (m *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// all returns a copy of every task, for persistence.
func (m *MemoryStore) all() []types.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Task, len(m.tasks))
	for i, t := range m.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (m *MemoryStore) indexLocked(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
