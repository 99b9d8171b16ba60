// Package recurrence edits the recurrence rule attached to a task draft.
//
// The editor never expands occurrences; the store owns that. It only keeps
// the rule well formed: interval is always a positive integer, a rule cannot
// be enabled without a start date, and disabling drops the whole rule.
package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/Jayphen/taskboard/internal/types"
)

// Editor holds the form state for one task's recurrence rule.
type Editor struct {
	original types.Task
	draft    types.Task
	enabled  bool
	rule     types.RecurrenceRule
}

// FromTask starts editing the rule of t.
func FromTask(t types.Task) *Editor {
	e := &Editor{original: t.Clone(), draft: t.Clone()}
	if t.Recurring != nil {
		e.enabled = true
		e.rule = *t.Recurring.Clone()
		if e.rule.Interval < 1 {
			e.rule.Interval = 1
		}
	}
	return e
}

// Enabled reports whether the draft currently recurs.
func (e *Editor) Enabled() bool {
	return e.enabled
}

// Enable turns recurrence on with the given frequency. The start date is
// taken from the draft's due date, which must be set.
func (e *Editor) Enable(freq types.Frequency) error {
	if !e.draft.HasDueDate() {
		return &types.ValidationError{Field: "dueDate", Message: "start date required"}
	}
	if !freq.IsValid() {
		return &types.ValidationError{Field: "recurring.frequency", Message: "unknown frequency " + string(freq)}
	}
	e.enabled = true
	e.rule.Frequency = freq
	if e.rule.Interval < 1 {
		e.rule.Interval = 1
	}
	e.rule.NextDueDate = types.Midnight(*e.draft.DueDate)
	return nil
}

// Disable turns recurrence off and clears every rule field.
func (e *Editor) Disable() {
	e.enabled = false
	e.rule = types.RecurrenceRule{}
}

// SetFrequency changes the frequency, enabling recurrence if it was off.
func (e *Editor) SetFrequency(freq types.Frequency) error {
	if !e.enabled {
		return e.Enable(freq)
	}
	if !freq.IsValid() {
		return &types.ValidationError{Field: "recurring.frequency", Message: "unknown frequency " + string(freq)}
	}
	e.rule.Frequency = freq
	return nil
}

// SetInterval parses raw form input. Anything other than a positive integer
// resets the field to 1 and returns a *types.ValidationError.
func (e *Editor) SetInterval(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		e.rule.Interval = 1
		return &types.ValidationError{Field: "recurring.interval", Message: "interval must be a positive integer"}
	}
	e.rule.Interval = n
	return nil
}

// SetIntervalN is SetInterval for already numeric input.
func (e *Editor) SetIntervalN(n int) error {
	return e.SetInterval(strconv.Itoa(n))
}

// Interval returns the current interval field.
func (e *Editor) Interval() int {
	if e.rule.Interval < 1 {
		return 1
	}
	return e.rule.Interval
}

// SetEndDate sets or clears the end date. It is not checked against the
// start date here; the store rejects inconsistent rules.
func (e *Editor) SetEndDate(end *time.Time) {
	if end == nil {
		e.rule.EndDate = nil
		return
	}
	d := types.Midnight(*end)
	e.rule.EndDate = &d
}

// SetDueDate changes the draft's due date and keeps the rule's start in step.
func (e *Editor) SetDueDate(due *time.Time) {
	if due == nil {
		e.draft.DueDate = nil
		return
	}
	d := *due
	e.draft.DueDate = &d
	if e.enabled {
		e.rule.NextDueDate = types.Midnight(d)
	}
}

// Rule returns the edited rule, or nil when recurrence is off.
func (e *Editor) Rule() *types.RecurrenceRule {
	if !e.enabled {
		return nil
	}
	return e.rule.Clone()
}

// Draft returns the task draft with the edited rule applied.
func (e *Editor) Draft() types.Task {
	return e.ApplyTo(e.draft)
}

// ApplyTo returns t with the editor's due date and rule.
func (e *Editor) ApplyTo(t types.Task) types.Task {
	out := t.Clone()
	out.DueDate = e.draft.Clone().DueDate
	out.Recurring = e.Rule()
	return out
}

// Validate checks the draft's recurrence before submission.
func (e *Editor) Validate() error {
	return types.ValidateRecurrence(e.Draft())
}

// Update returns the partial update that persists the edits made since
// FromTask. It is empty when nothing changed.
func (e *Editor) Update() types.TaskUpdate {
	var u types.TaskUpdate

	origDue, newDue := e.original.DueDate, e.draft.DueDate
	switch {
	case newDue == nil && origDue != nil:
		u.ClearDueDate = true
	case newDue != nil && (origDue == nil || !origDue.Equal(*newDue)):
		d := *newDue
		u.DueDate = &d
	}

	switch {
	case e.enabled:
		if !sameRule(e.original.Recurring, &e.rule) {
			u.Recurring = e.Rule()
		}
	case e.original.Recurring != nil:
		u.ClearRecurring = true
	}
	return u
}

func sameRule(a, b *types.RecurrenceRule) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Frequency != b.Frequency || a.Interval != b.Interval || !a.NextDueDate.Equal(b.NextDueDate) {
		return false
	}
	if a.EndDate == nil || b.EndDate == nil {
		return a.EndDate == nil && b.EndDate == nil
	}
	return a.EndDate.Equal(*b.EndDate)
}
