// Package collection holds the single task collection shared by the board
// and calendar views. Every change publishes a new immutable snapshot.
package collection

import (
	"sync"

	"github.com/Jayphen/taskboard/internal/types"
)

// Snapshot is a consistent, read-only view of the collection.
// Callers must not modify Tasks.
type Snapshot struct {
	Version uint64
	Tasks   []types.Task
}

// Find returns the task with the given id.
func (s Snapshot) Find(id string) (types.Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return types.Task{}, false
}

// Len returns the number of tasks in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Tasks)
}

// Collection owns the current snapshot.
type Collection struct {
	mu      sync.RWMutex
	current Snapshot
}

// New creates a collection seeded with tasks at version 1.
func New(tasks []types.Task) *Collection {
	c := &Collection{}
	c.Replace(tasks)
	return c
}

// Snapshot returns the current snapshot.
func (c *Collection) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Version returns the current snapshot version.
func (c *Collection) Version() uint64 {
	return c.Snapshot().Version
}

// Get returns the current record for id.
func (c *Collection) Get(id string) (types.Task, bool) {
	return c.Snapshot().Find(id)
}

// Replace swaps in a freshly loaded task list.
func (c *Collection) Replace(tasks []types.Task) Snapshot {
	next := cloneTasks(tasks)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publishLocked(next)
}

// Put replaces the task with the same id, keeping its position.
// It returns false and publishes nothing when the id is not present.
func (c *Collection) Put(task types.Task) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := indexOf(c.current.Tasks, task.ID)
	if idx < 0 {
		return c.current, false
	}
	next := make([]types.Task, len(c.current.Tasks))
	copy(next, c.current.Tasks)
	next[idx] = task.Clone()
	return c.publishLocked(next), true
}

// Insert appends a new task, or replaces it in place if the id already exists.
func (c *Collection) Insert(task types.Task) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]types.Task, len(c.current.Tasks), len(c.current.Tasks)+1)
	copy(next, c.current.Tasks)
	if idx := indexOf(next, task.ID); idx >= 0 {
		next[idx] = task.Clone()
	} else {
		next = append(next, task.Clone())
	}
	return c.publishLocked(next)
}

// Remove deletes the task with the given id.
func (c *Collection) Remove(id string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := indexOf(c.current.Tasks, id)
	if idx < 0 {
		return c.current, false
	}
	next := make([]types.Task, 0, len(c.current.Tasks)-1)
	next = append(next, c.current.Tasks[:idx]...)
	next = append(next, c.current.Tasks[idx+1:]...)
	return c.publishLocked(next), true
}

func (c *Collection) publishLocked(tasks []types.Task) Snapshot {
	c.current = Snapshot{Version: c.current.Version + 1, Tasks: tasks}
	return c.current
}

func indexOf(tasks []types.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []types.Task) []types.Task {
	out := make([]types.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
