// Package app ties a task store to the in-memory collection the views read.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jayphen/taskboard/internal/board"
	"github.com/Jayphen/taskboard/internal/collection"
	"github.com/Jayphen/taskboard/internal/drag"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/recurrence"
	"github.com/Jayphen/taskboard/internal/tasksource"
	"github.com/Jayphen/taskboard/internal/types"
)

// ErrNotLoaded is returned by operations that need a loaded collection.
var ErrNotLoaded = errors.New("task collection not loaded")

// Service owns the collection for one workspace. All mutations go through
// the store first; the collection only receives canonical records.
type Service struct {
	store     tasksource.Store
	coll      *collection.Collection
	workspace string
	log       *logging.Logger
	loaded    bool
}

// NewService creates a service over store. A nil logger discards output.
func NewService(store tasksource.Store, workspace string, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{
		store:     store,
		coll:      collection.New(nil),
		workspace: workspace,
		log:       log.WithWorkspace(workspace),
	}
}

// Workspace returns the workspace the service is bound to.
func (s *Service) Workspace() string {
	return s.workspace
}

// Store returns the backing store.
func (s *Service) Store() tasksource.Store {
	return s.store
}

// Collection returns the shared collection.
func (s *Service) Collection() *collection.Collection {
	return s.coll
}

// Load fetches the workspace's tasks and replaces the collection.
func (s *Service) Load(ctx context.Context) (collection.Snapshot, error) {
	tasks, err := s.store.ListTasks(ctx, s.workspace)
	if err != nil {
		s.log.WithError(err).Error("failed to load tasks")
		return collection.Snapshot{}, fmt.Errorf("failed to load tasks: %w", err)
	}
	snap := s.coll.Replace(tasks)
	s.loaded = true
	s.log.Debugf("loaded %d tasks", snap.Len())
	return snap, nil
}

// Board partitions the current collection into status columns.
func (s *Service) Board() board.Board {
	return board.Partition(s.coll.Snapshot().Tasks)
}

// Create validates a draft, sends it and appends the stored record.
// The workspace is filled in when the draft has none.
func (s *Service) Create(ctx context.Context, draft types.Task) (types.Task, error) {
	if draft.WorkspaceID == "" {
		draft.WorkspaceID = s.workspace
	}
	if err := types.Validate(draft); err != nil {
		return types.Task{}, err
	}

	created, err := s.store.CreateTask(ctx, draft)
	if err != nil {
		return types.Task{}, s.commitFailed("", "create", err)
	}
	s.coll.Insert(created)
	s.log.WithTask(created.ID).Info("task created")
	return created, nil
}

// Update validates the merged record, sends the partial update and puts
// the server record into the collection.
func (s *Service) Update(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error) {
	current, err := s.current(ctx, id)
	if err != nil {
		return types.Task{}, err
	}
	if update.IsEmpty() {
		return current, nil
	}
	if err := types.ValidateUpdate(current, update); err != nil {
		return types.Task{}, err
	}

	updated, err := s.store.UpdateTask(ctx, id, update)
	if err != nil {
		return types.Task{}, s.commitFailed(id, "update", err)
	}
	if updated.ID == "" {
		updated = update.ApplyTo(current)
	}
	s.coll.Insert(updated)
	s.log.WithTask(id).WithField("fields", update.Fields()).Info("task updated")
	return updated, nil
}

// Delete removes a task from the store, then from the collection.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return s.commitFailed(id, "delete", err)
	}
	s.coll.Remove(id)
	s.log.WithTask(id).Info("task deleted")
	return nil
}

// RecurrenceEditor starts editing the rule of the task with the given id.
func (s *Service) RecurrenceEditor(ctx context.Context, id string) (*recurrence.Editor, error) {
	current, err := s.current(ctx, id)
	if err != nil {
		return nil, err
	}
	return recurrence.FromTask(current), nil
}

// SetRecurrence persists the edits held by an editor.
func (s *Service) SetRecurrence(ctx context.Context, id string, e *recurrence.Editor) (types.Task, error) {
	if err := e.Validate(); err != nil {
		return types.Task{}, err
	}
	return s.Update(ctx, id, e.Update())
}

// BoardMoves returns the status drag protocol. The board waits for the
// store before showing a move; busy is called around each request.
func (s *Service) BoardMoves(busy func(bool)) *drag.Protocol {
	return drag.New(s.coll, s.store, drag.Pessimistic{Busy: busy}, s.log.WithField("view", "board"))
}

// CalendarMoves returns the due date drag protocol, which shows moves
// immediately and reports failures without reverting them.
func (s *Service) CalendarMoves() *drag.Protocol {
	return drag.New(s.coll, s.store, drag.Optimistic{}, s.log.WithField("view", "calendar"))
}

// Move drops a task on a status column and waits for the result.
func (s *Service) Move(ctx context.Context, id string, status types.Status) error {
	return s.dropOn(ctx, s.BoardMoves(nil), id, drag.StatusTarget(status))
}

// Reschedule drops a task on a calendar day and waits for the result.
func (s *Service) Reschedule(ctx context.Context, id string, day drag.DayTarget) error {
	return s.dropOn(ctx, s.CalendarMoves(), id, day)
}

func (s *Service) dropOn(ctx context.Context, p *drag.Protocol, id string, target drag.Target) error {
	if _, err := s.current(ctx, id); err != nil {
		return err
	}
	d, err := p.Pick(id)
	if err != nil {
		return err
	}
	d.Over(target)
	return p.Drop(ctx, d)
}

// current returns the collection's record for id, loading on first use.
func (s *Service) current(ctx context.Context, id string) (types.Task, error) {
	if !s.loaded {
		if _, err := s.Load(ctx); err != nil {
			return types.Task{}, err
		}
	}
	t, ok := s.coll.Get(id)
	if !ok {
		return types.Task{}, fmt.Errorf("%w: %s", tasksource.ErrTaskNotFound, id)
	}
	return t, nil
}

func (s *Service) commitFailed(id, op string, err error) error {
	s.log.WithTask(id).WithField("op", op).WithError(err).Warn("task mutation failed")
	return &types.CommitError{TaskID: id, Op: op, Err: err}
}

// Close closes the backing store.
func (s *Service) Close() error {
	return s.store.Close()
}
