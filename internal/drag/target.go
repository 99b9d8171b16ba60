package drag

import (
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

// Target is a bucket a task can be dropped onto.
type Target interface {
	// Contains reports whether the task already sits in this bucket.
	Contains(task types.Task) bool
	// Apply returns the candidate record and the partial update that moves
	// the task into this bucket.
	Apply(task types.Task) (types.Task, types.TaskUpdate)
	String() string
}

// StatusTarget is a board column.
type StatusTarget types.Status

func (s StatusTarget) Contains(task types.Task) bool {
	return task.Status == types.Status(s)
}

func (s StatusTarget) Apply(task types.Task) (types.Task, types.TaskUpdate) {
	u := types.StatusUpdate(types.Status(s))
	return u.ApplyTo(task), u
}

func (s StatusTarget) String() string {
	return "status:" + string(s)
}

// DayTarget is a calendar day cell.
type DayTarget struct {
	day time.Time
}

// NewDayTarget returns a target for the calendar day containing t.
func NewDayTarget(t time.Time) DayTarget {
	return DayTarget{day: types.Midnight(t)}
}

// Day returns the target day at midnight.
func (d DayTarget) Day() time.Time {
	return d.day
}

func (d DayTarget) Contains(task types.Task) bool {
	return task.HasDueDate() && types.SameDay(*task.DueDate, d.day)
}

// Apply sets the due date to midnight of the target day.
func (d DayTarget) Apply(task types.Task) (types.Task, types.TaskUpdate) {
	u := types.DueDateUpdate(d.day)
	return u.ApplyTo(task), u
}

func (d DayTarget) String() string {
	return "day:" + types.FormatDate(d.day)
}
