package drag

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Jayphen/taskboard/internal/collection"
	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/types"
)

// fakeStore records every update and answers with a canned result.
type fakeStore struct {
	mu      sync.Mutex
	calls   []types.TaskUpdate
	err     error
	respond func(id string, u types.TaskUpdate) types.Task
}

func (f *fakeStore) UpdateTask(_ context.Context, id string, u types.TaskUpdate) (types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, u)
	if f.err != nil {
		return types.Task{}, f.err
	}
	if f.respond != nil {
		return f.respond(id, u), nil
	}
	return types.Task{}, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func task(id string, status types.Status, due string) types.Task {
	t := types.NewDraft("task "+id, "ws")
	t.ID = id
	t.Status = status
	t.Description = "original description"
	if due != "" {
		d, _ := types.ParseDate(due)
		t.DueDate = &d
	}
	return t
}

func day(s string) time.Time {
	d, _ := types.ParseDate(s)
	return d
}

func TestNoOpDropOnSameColumn(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusInProgress, "")})
	store := &fakeStore{}
	p := New(coll, store, Pessimistic{}, nil)
	before := coll.Snapshot()

	d, err := p.Pick("1")
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	d.Over(StatusTarget(types.StatusInProgress))

	if err := p.Drop(context.Background(), d); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if store.count() != 0 {
		t.Errorf("mutation calls = %d, want 0", store.count())
	}
	if d.State() != Idle {
		t.Errorf("state = %s, want idle", d.State())
	}
	if coll.Snapshot().Version != before.Version {
		t.Error("collection changed on no-op drop")
	}
}

func TestNoOpDropOnSameDay(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "2024-03-15T09:30")})
	store := &fakeStore{}
	p := New(coll, store, Optimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(NewDayTarget(day("2024-03-15T18:00")))
	if err := p.Drop(context.Background(), d); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if store.count() != 0 {
		t.Errorf("mutation calls = %d, want 0", store.count())
	}
	if got, _ := coll.Get("1"); got.DueDate.Hour() != 9 {
		t.Error("same-day drop rewrote the due date")
	}
}

func TestPessimisticRollback(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "")})
	store := &fakeStore{err: errors.New("503 service unavailable")}

	var logBuf bytes.Buffer
	var busy []bool
	p := New(coll, store, Pessimistic{Busy: func(b bool) { busy = append(busy, b) }},
		logging.New(&logBuf, logging.DebugLevel))

	d, _ := p.Pick("1")
	d.Over(StatusTarget(types.StatusDone))
	err := p.Drop(context.Background(), d)

	var ce *types.CommitError
	if !errors.As(err, &ce) {
		t.Fatalf("Drop = %v, want *CommitError", err)
	}
	if ce.OutOfSync {
		t.Error("pessimistic failure must not be out of sync")
	}
	if got, _ := coll.Get("1"); got.Status != types.StatusToDo {
		t.Errorf("status = %s, want ToDo after failure", got.Status)
	}
	if d.State() != Failed {
		t.Errorf("state = %s, want failed", d.State())
	}
	if len(busy) != 2 || !busy[0] || busy[1] {
		t.Errorf("busy transitions = %v, want [true false]", busy)
	}
	if !strings.Contains(logBuf.String(), "drag commit failed") {
		t.Errorf("failure not logged: %s", logBuf.String())
	}
}

func TestPessimisticAppliesServerRecordOnlyAfterResponse(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, ""), task("2", types.StatusDone, "")})
	store := &fakeStore{respond: func(id string, u types.TaskUpdate) types.Task {
		server := task(id, *u.Status, "")
		server.Description = "server side edit"
		return server
	}}
	p := New(coll, store, Pessimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(StatusTarget(types.StatusForReview))
	c, err := p.Release(d)
	if err != nil || c == nil {
		t.Fatalf("Release = %v, %v", c, err)
	}
	if d.State() != Committing {
		t.Errorf("state = %s, want committing", d.State())
	}
	if got, _ := coll.Get("1"); got.Status != types.StatusToDo {
		t.Error("pessimistic strategy changed the collection before the response")
	}

	if err := c.Settle(c.Send(context.Background())); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	got, _ := coll.Get("1")
	if got.Status != types.StatusForReview || got.Description != "server side edit" {
		t.Errorf("collection = %+v, want server record", got)
	}
	if snap := coll.Snapshot(); snap.Tasks[0].ID != "1" {
		t.Error("committed task moved position in the collection")
	}
	if d.State() != Committed {
		t.Errorf("state = %s, want committed", d.State())
	}
}

func TestOptimisticAppliesCandidateImmediately(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "2024-03-01T15:04")})
	store := &fakeStore{}
	p := New(coll, store, Optimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(NewDayTarget(day("2024-03-20T13:00")))
	c, err := p.Release(d)
	if err != nil || c == nil {
		t.Fatalf("Release = %v, %v", c, err)
	}

	got, _ := coll.Get("1")
	if types.FormatDate(*got.DueDate) != "2024-03-20" || got.DueDate.Hour() != 0 || got.DueDate.Minute() != 0 {
		t.Errorf("dueDate = %v, want midnight 2024-03-20", got.DueDate)
	}
	if store.count() != 0 {
		t.Error("Release must not send the mutation")
	}

	if err := c.Settle(c.Send(context.Background())); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if store.count() != 1 {
		t.Errorf("calls = %d, want 1", store.count())
	}
}

func TestOptimisticFailureHasNoRollback(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "2024-03-01")})
	store := &fakeStore{err: errors.New("connection reset")}
	p := New(coll, store, Optimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(NewDayTarget(day("2024-03-05")))
	err := p.Drop(context.Background(), d)

	var ce *types.CommitError
	if !errors.As(err, &ce) || !ce.OutOfSync {
		t.Fatalf("Drop = %v, want out-of-sync *CommitError", err)
	}
	if got, _ := coll.Get("1"); types.FormatDate(*got.DueDate) != "2024-03-05" {
		t.Errorf("dueDate = %s, want candidate kept", types.FormatDate(*got.DueDate))
	}
}

func TestPartialUpdateCarriesOnlyChangedField(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "2024-03-01")})
	store := &fakeStore{}

	board := New(coll, store, Pessimistic{}, nil)
	d, _ := board.Pick("1")
	d.Over(StatusTarget(types.StatusBlocked))
	_ = board.Drop(context.Background(), d)

	cal := New(coll, store, Optimistic{}, nil)
	d, _ = cal.Pick("1")
	d.Over(NewDayTarget(day("2024-03-02")))
	_ = cal.Drop(context.Background(), d)

	if store.count() != 2 {
		t.Fatalf("calls = %d, want 2", store.count())
	}
	if got := strings.Join(store.calls[0].Fields(), ","); got != "status" {
		t.Errorf("board update fields = %s, want status", got)
	}
	if got := strings.Join(store.calls[1].Fields(), ","); got != "dueDate" {
		t.Errorf("calendar update fields = %s, want dueDate", got)
	}
}

func TestReleaseOutsideBucketCancels(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "")})
	store := &fakeStore{}
	p := New(coll, store, Pessimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(StatusTarget(types.StatusDone))
	d.Leave()

	c, err := p.Release(d)
	if err != nil || c != nil {
		t.Fatalf("Release = %v, %v, want nil, nil", c, err)
	}
	if d.State() != Cancelled {
		t.Errorf("state = %s, want cancelled", d.State())
	}
	if store.count() != 0 {
		t.Error("cancelled drag sent a mutation")
	}

	if _, err := p.Release(d); !errors.Is(err, ErrNotDragging) {
		t.Errorf("second Release = %v, want ErrNotDragging", err)
	}
}

func TestCancelIgnoresLaterHover(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "")})
	p := New(coll, &fakeStore{}, Pessimistic{}, nil)

	d, _ := p.Pick("1")
	d.Cancel()
	d.Over(StatusTarget(types.StatusDone))
	if d.Hovering() != nil {
		t.Error("hover recorded after cancel")
	}
}

func TestSendIsIssuedAtMostOnce(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, "")})
	store := &fakeStore{}
	p := New(coll, store, Pessimistic{}, nil)

	d, _ := p.Pick("1")
	d.Over(StatusTarget(types.StatusDone))
	c, _ := p.Release(d)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Send(context.Background())
		}()
	}
	wg.Wait()
	res := c.Send(context.Background())
	_ = c.Settle(res)
	_ = c.Settle(Result{Err: errors.New("late")})

	if store.count() != 1 {
		t.Errorf("calls = %d, want 1", store.count())
	}
	if d.State() != Committed {
		t.Errorf("state = %s, second Settle should be ignored", d.State())
	}
}

func TestPickUnknownTask(t *testing.T) {
	p := New(collection.New(nil), &fakeStore{}, Optimistic{}, nil)
	if _, err := p.Pick("nope"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Pick = %v, want ErrUnknownTask", err)
	}
}

func TestIndependentCommitsSettleInArrivalOrder(t *testing.T) {
	coll := collection.New([]types.Task{task("1", types.StatusToDo, ""), task("2", types.StatusToDo, "")})
	store := &fakeStore{respond: func(id string, u types.TaskUpdate) types.Task {
		return task(id, *u.Status, "")
	}}
	p := New(coll, store, Pessimistic{}, nil)

	d1, _ := p.Pick("1")
	d1.Over(StatusTarget(types.StatusDone))
	c1, _ := p.Release(d1)

	d2, _ := p.Pick("2")
	d2.Over(StatusTarget(types.StatusBlocked))
	c2, _ := p.Release(d2)

	r1 := c1.Send(context.Background())
	r2 := c2.Send(context.Background())
	_ = c2.Settle(r2)
	_ = c1.Settle(r1)

	a, _ := coll.Get("1")
	b, _ := coll.Get("2")
	if a.Status != types.StatusDone || b.Status != types.StatusBlocked {
		t.Errorf("statuses = %s, %s", a.Status, b.Status)
	}
}

func TestStateString(t *testing.T) {
	if Committing.String() != "committing" || State(99).String() != "state(99)" {
		t.Error("unexpected State.String output")
	}
}
