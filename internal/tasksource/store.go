// Package tasksource provides clients for the remote task store and local
// stand-ins that speak the same contract.
package tasksource

import (
	"context"

	"github.com/Jayphen/taskboard/internal/types"
)

// Store is the contract every task store implements. The remote store is
// the source of truth; implementations return canonical records.
type Store interface {
	// Info returns metadata about this store.
	Info() SourceInfo

	// ListTasks returns tasks for a workspace, or all tasks when
	// workspaceID is empty, in store order.
	ListTasks(ctx context.Context, workspaceID string) ([]types.Task, error)

	// GetTask retrieves a specific task by ID.
	GetTask(ctx context.Context, id string) (types.Task, error)

	// CreateTask sends a draft and returns the stored record with its ID.
	CreateTask(ctx context.Context, draft types.Task) (types.Task, error)

	// UpdateTask applies a partial update and returns the new record.
	UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error)

	// DeleteTask removes a task permanently.
	DeleteTask(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// SourceType identifies a store implementation.
type SourceType string

const (
	SourceTypeHTTP   SourceType = "http"   // Remote REST store
	SourceTypeMemory SourceType = "memory" // In-process, lost on exit
	SourceTypeFile   SourceType = "file"   // Local YAML file
)

// Metadata stores source-specific data.
type Metadata map[string]interface{}

// SourceInfo provides metadata about a store.
type SourceInfo struct {
	Type        SourceType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Config      Metadata   `json:"config"`
	Cached      bool       `json:"cached"`
}
