package drag

import (
	"github.com/Jayphen/taskboard/internal/collection"
	"github.com/Jayphen/taskboard/internal/types"
)

// Result is the outcome of the single mutation request sent for a drop.
type Result struct {
	Task types.Task
	Err  error
}

// CommitStrategy decides when the collection reflects a drop.
// Begin runs before the mutation is sent; Settle runs once it completes.
type CommitStrategy interface {
	Name() string
	Begin(coll *collection.Collection, candidate types.Task)
	Settle(coll *collection.Collection, candidate types.Task, res Result) error
}

// Pessimistic waits for the store. The collection only ever receives the
// server record, so a failed commit leaves the task where it was.
// Busy, if set, is raised in Begin and lowered in Settle.
type Pessimistic struct {
	Busy func(busy bool)
}

func (Pessimistic) Name() string { return "pessimistic" }

func (p Pessimistic) Begin(_ *collection.Collection, _ types.Task) {
	if p.Busy != nil {
		p.Busy(true)
	}
}

func (p Pessimistic) Settle(coll *collection.Collection, candidate types.Task, res Result) error {
	if p.Busy != nil {
		defer p.Busy(false)
	}
	if res.Err != nil {
		return &types.CommitError{TaskID: candidate.ID, Op: "update", Err: res.Err}
	}
	server := res.Task
	if server.ID == "" {
		server = candidate
	}
	coll.Put(server)
	return nil
}

// Optimistic shows the candidate immediately. A failed commit is reported
// but not reverted; the view stays out of sync until the next reload.
type Optimistic struct{}

func (Optimistic) Name() string { return "optimistic" }

func (Optimistic) Begin(coll *collection.Collection, candidate types.Task) {
	coll.Put(candidate)
}

func (Optimistic) Settle(_ *collection.Collection, candidate types.Task, res Result) error {
	if res.Err != nil {
		return &types.CommitError{TaskID: candidate.ID, Op: "update", Err: res.Err, OutOfSync: true}
	}
	return nil
}
