// Package drag implements the drag and drop reconciliation protocol shared by
// the board and calendar views.
//
// A drag moves through Idle -> Dragging -> (Dropped | Cancelled), and a drop
// moves through Committing -> (Committed | Failed). Dropping onto the bucket
// a task already occupies returns to Idle without touching the store.
package drag

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Jayphen/taskboard/internal/collection"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/types"
)

// State is the position of a drag in its lifecycle.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Cancelled
	Committing
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	case Committing:
		return "committing"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	// ErrUnknownTask is returned when the dragged task is not in the collection.
	ErrUnknownTask = errors.New("task not in collection")

	// ErrNotDragging is returned when an operation needs an active drag.
	ErrNotDragging = errors.New("no drag in progress")
)

// Updater sends a partial update to the remote store.
type Updater interface {
	UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error)
}

// Protocol binds a collection, a store and one commit strategy.
type Protocol struct {
	coll     *collection.Collection
	store    Updater
	strategy CommitStrategy
	log      *logging.Logger
}

// New creates a protocol. A nil logger discards output.
func New(coll *collection.Collection, store Updater, strategy CommitStrategy, log *logging.Logger) *Protocol {
	if log == nil {
		log = logging.Nop()
	}
	return &Protocol{
		coll:     coll,
		store:    store,
		strategy: strategy,
		log:      log.WithField("strategy", strategy.Name()),
	}
}

// Strategy returns the commit strategy in use.
func (p *Protocol) Strategy() CommitStrategy {
	return p.strategy
}

// Drag is one in-flight drag gesture.
type Drag struct {
	mu     sync.Mutex
	taskID string
	target Target
	state  State
}

// Pick starts dragging the task with the given id.
func (p *Protocol) Pick(taskID string) (*Drag, error) {
	if _, ok := p.coll.Get(taskID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return &Drag{taskID: taskID, state: Dragging}, nil
}

// TaskID returns the id of the dragged task.
func (d *Drag) TaskID() string {
	return d.taskID
}

// State returns the drag's current state.
func (d *Drag) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Over records the bucket under the pointer.
func (d *Drag) Over(t Target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Dragging {
		d.target = t
	}
}

// Leave records that the pointer left every valid bucket.
func (d *Drag) Leave() {
	d.Over(nil)
}

// Hovering returns the bucket currently under the pointer, if any.
func (d *Drag) Hovering() Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// Cancel abandons the drag.
func (d *Drag) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Dragging {
		d.state = Cancelled
		d.target = nil
	}
}

func (d *Drag) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Release drops the task on the hovered bucket.
//
// It returns a nil *Commit when nothing needs sending: the pointer was
// outside every bucket (Cancelled) or the task already sits in the hovered
// bucket (Idle). Otherwise the strategy's Begin has run and the returned
// commit is Committing.
func (p *Protocol) Release(d *Drag) (*Commit, error) {
	d.mu.Lock()
	if d.state != Dragging {
		d.mu.Unlock()
		return nil, ErrNotDragging
	}
	target := d.target
	if target == nil {
		d.state = Cancelled
		d.mu.Unlock()
		p.log.WithTask(d.taskID).Debug("drag released outside any bucket")
		return nil, nil
	}
	d.state = Dropped
	d.mu.Unlock()

	current, ok := p.coll.Get(d.taskID)
	if !ok {
		d.setState(Cancelled)
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, d.taskID)
	}
	if target.Contains(current) {
		d.setState(Idle)
		return nil, nil
	}

	candidate, update := target.Apply(current)
	if err := types.Validate(candidate); err != nil {
		d.setState(Idle)
		return nil, err
	}

	c := &Commit{
		p:         p,
		drag:      d,
		target:    target,
		original:  current,
		candidate: candidate,
		update:    update,
	}
	p.strategy.Begin(p.coll, candidate)
	d.setState(Committing)
	return c, nil
}

// Drop releases the drag, sends the mutation and settles it.
func (p *Protocol) Drop(ctx context.Context, d *Drag) error {
	c, err := p.Release(d)
	if err != nil || c == nil {
		return err
	}
	return c.Settle(c.Send(ctx))
}

// Commit is a drop that has been applied locally and is waiting on the store.
type Commit struct {
	p         *Protocol
	drag      *Drag
	target    Target
	original  types.Task
	candidate types.Task
	update    types.TaskUpdate

	sendOnce   sync.Once
	result     Result
	settleOnce sync.Once
	settleErr  error
}

// Candidate returns the locally constructed record.
func (c *Commit) Candidate() types.Task { return c.candidate }

// Original returns the record as it was before the drop.
func (c *Commit) Original() types.Task { return c.original }

// Update returns the partial update sent to the store.
func (c *Commit) Update() types.TaskUpdate { return c.update }

// Target returns the bucket the task was dropped on.
func (c *Commit) Target() Target { return c.target }

// Send issues the mutation. It runs at most once; later calls return the
// first result. Send does not touch the collection, so it may run off the
// UI goroutine.
func (c *Commit) Send(ctx context.Context) Result {
	c.sendOnce.Do(func() {
		task, err := c.p.store.UpdateTask(ctx, c.candidate.ID, c.update)
		c.result = Result{Task: task, Err: err}
	})
	return c.result
}

// Settle applies the strategy outcome for res. Only the first call has effect.
// A failure is logged and returned as a *types.CommitError.
func (c *Commit) Settle(res Result) error {
	c.settleOnce.Do(func() {
		err := c.p.strategy.Settle(c.p.coll, c.candidate, res)
		log := c.p.log.WithTask(c.candidate.ID).WithField("target", c.target.String())
		if err != nil {
			c.drag.setState(Failed)
			var ce *types.CommitError
			if errors.As(err, &ce) && ce.OutOfSync {
				log.WithError(res.Err).Error("drag commit failed, view out of sync until reload")
			} else {
				log.WithError(res.Err).Warn("drag commit failed")
			}
			c.settleErr = err
			return
		}
		c.drag.setState(Committed)
		log.Debug("drag committed")
	})
	return c.settleErr
}
