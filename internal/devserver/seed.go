package devserver

import (
	"context"
	"fmt"

	"github.com/Jayphen/taskboard/internal/tasksource"
)

// Seed loads tasks from a YAML seed file into store and returns how many
// were created. Tasks are created through the store, so they are validated.
func Seed(ctx context.Context, store tasksource.Store, path string) (int, error) {
	tasks, err := tasksource.LoadYAML(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load seed file: %w", err)
	}
	for i, t := range tasks {
		if _, err := store.CreateTask(ctx, t); err != nil {
			return i, fmt.Errorf("failed to seed task %q: %w", t.Title, err)
		}
	}
	return len(tasks), nil
}
