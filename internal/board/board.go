// Package board groups tasks into the fixed kanban status columns.
package board

import "github.com/Jayphen/taskboard/internal/types"

// Column is one status bucket, in collection order.
type Column struct {
	Status types.Status
	Tasks  []types.Task
}

// Board is a read-only partition of a task collection.
type Board struct {
	Columns []Column
	// Orphans holds tasks whose status is not one of the known columns.
	Orphans []types.Task
}

// Columns returns the ordered column statuses.
func Columns() []types.Status {
	return types.AllStatuses()
}

// BucketFor returns the tasks with the given status, preserving order.
func BucketFor(tasks []types.Task, status types.Status) []types.Task {
	var out []types.Task
	for _, t := range tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// Partition splits tasks into status columns in a single pass.
func Partition(tasks []types.Task) Board {
	statuses := Columns()
	index := make(map[types.Status]int, len(statuses))
	b := Board{Columns: make([]Column, len(statuses))}
	for i, s := range statuses {
		index[s] = i
		b.Columns[i].Status = s
	}

	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			b.Orphans = append(b.Orphans, t)
			continue
		}
		b.Columns[i].Tasks = append(b.Columns[i].Tasks, t)
	}
	return b
}

// Err returns an *types.IntegrityError when any task has an unknown status.
func (b Board) Err() error {
	if len(b.Orphans) == 0 {
		return nil
	}
	e := &types.IntegrityError{}
	for _, t := range b.Orphans {
		e.TaskIDs = append(e.TaskIDs, t.ID)
		e.Statuses = append(e.Statuses, t.Status)
	}
	return e
}

// Column returns the bucket for status.
func (b Board) Column(status types.Status) (Column, bool) {
	for _, c := range b.Columns {
		if c.Status == status {
			return c, true
		}
	}
	return Column{}, false
}

// Locate returns the status column holding taskID.
func (b Board) Locate(taskID string) (types.Status, bool) {
	for _, c := range b.Columns {
		for _, t := range c.Tasks {
			if t.ID == taskID {
				return c.Status, true
			}
		}
	}
	return "", false
}

// Len returns the number of tasks placed in a column.
func (b Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Tasks)
	}
	return n
}

// CollapseState tracks which columns the user has collapsed.
// It is view state only and never leaves the process.
type CollapseState struct {
	collapsed map[types.Status]bool
}

// NewCollapseState returns a state with every column expanded.
func NewCollapseState() *CollapseState {
	return &CollapseState{collapsed: make(map[types.Status]bool)}
}

// Collapsed reports whether the column for status is collapsed.
func (c *CollapseState) Collapsed(status types.Status) bool {
	return c.collapsed[status]
}

// Toggle flips the collapse flag and returns the new value.
func (c *CollapseState) Toggle(status types.Status) bool {
	if c.collapsed == nil {
		c.collapsed = make(map[types.Status]bool)
	}
	c.collapsed[status] = !c.collapsed[status]
	return c.collapsed[status]
}
