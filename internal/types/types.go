// Package types defines the core task data types used throughout taskboard.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the board column a task currently sits in.
type Status string

const (
	StatusToDo       Status = "ToDo"
	StatusInProgress Status = "InProgress"
	StatusBlocked    Status = "Blocked"
	StatusForReview  Status = "ForReview"
	StatusDone       Status = "Done"
)

// AllStatuses returns the five known statuses in board order.
func AllStatuses() []Status {
	return []Status{StatusToDo, StatusInProgress, StatusBlocked, StatusForReview, StatusDone}
}

// IsValid reports whether s is one of the five known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusBlocked, StatusForReview, StatusDone:
		return true
	}
	return false
}

// Label returns a human readable column heading.
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusForReview:
		return "For Review"
	}
	return string(s)
}

// ParseStatus accepts the canonical value or a case-insensitive short form
// such as "todo", "in-progress" or "review".
func ParseStatus(s string) (Status, error) {
	switch normalizeEnum(s) {
	case "todo":
		return StatusToDo, nil
	case "inprogress", "doing":
		return StatusInProgress, nil
	case "blocked":
		return StatusBlocked, nil
	case "forreview", "review":
		return StatusForReview, nil
	case "done":
		return StatusDone, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", s)}
}

// Priority ranks a task's urgency.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch normalizeEnum(s) {
	case "low":
		return PriorityLow, nil
	case "medium", "med":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	case "critical", "crit":
		return PriorityCritical, nil
	}
	return "", &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", s)}
}

// Frequency is the unit a recurrence rule repeats in.
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

// IsValid reports whether f is a known frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	switch normalizeEnum(s) {
	case "daily", "day":
		return FrequencyDaily, nil
	case "weekly", "week":
		return FrequencyWeekly, nil
	case "monthly", "month":
		return FrequencyMonthly, nil
	}
	return "", &ValidationError{Field: "recurring.frequency", Message: fmt.Sprintf("unknown frequency %q", s)}
}

// unit returns the singular noun for the frequency.
func (f Frequency) unit() string {
	switch f {
	case FrequencyDaily:
		return "day"
	case FrequencyWeekly:
		return "week"
	case FrequencyMonthly:
		return "month"
	}
	return string(f)
}

// RecurrenceRule describes how the store generates future occurrences.
type RecurrenceRule struct {
	Frequency   Frequency  `json:"frequency"`
	Interval    int        `json:"interval"`
	NextDueDate time.Time  `json:"nextDueDate"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

// UnmarshalJSON accepts any date layout understood by ParseDate.
func (r *RecurrenceRule) UnmarshalJSON(data []byte) error {
	type alias RecurrenceRule
	aux := struct {
		*alias
		NextDueDate *string `json:"nextDueDate"`
		EndDate     *string `json:"endDate"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.NextDueDate = time.Time{}
	if aux.NextDueDate != nil && *aux.NextDueDate != "" {
		t, err := ParseDate(*aux.NextDueDate)
		if err != nil {
			return err
		}
		r.NextDueDate = t
	}
	r.EndDate = nil
	if aux.EndDate != nil && *aux.EndDate != "" {
		t, err := ParseDate(*aux.EndDate)
		if err != nil {
			return err
		}
		r.EndDate = &t
	}
	return nil
}

// Clone returns a deep copy of the rule.
func (r *RecurrenceRule) Clone() *RecurrenceRule {
	if r == nil {
		return nil
	}
	out := *r
	if r.EndDate != nil {
		end := *r.EndDate
		out.EndDate = &end
	}
	return &out
}

// DescribeRule renders a rule as short text, e.g. "every 2 weeks until 2024-06-01".
func DescribeRule(r *RecurrenceRule) string {
	if r == nil {
		return "does not repeat"
	}
	s := "every " + r.Frequency.unit()
	if r.Interval > 1 {
		s = fmt.Sprintf("every %d %ss", r.Interval, r.Frequency.unit())
	}
	if !r.NextDueDate.IsZero() {
		s += " from " + FormatDate(r.NextDueDate)
	}
	if r.EndDate != nil {
		s += " until " + FormatDate(*r.EndDate)
	}
	return s
}

// Task is the canonical representation of a task record from the store.
type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	WorkspaceID string            `json:"workspaceId"`
	Priority    Priority          `json:"priority"`
	Status      Status            `json:"status"`
	DueDate     *time.Time        `json:"dueDate"`
	IsKeyTask   bool              `json:"isKeyTask"`
	Recurring   *RecurrenceRule   `json:"recurring,omitempty"`
	Attachments []json.RawMessage `json:"attachments,omitempty"`
}

// UnmarshalJSON accepts any date layout understood by ParseDate for dueDate.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		*alias
		DueDate *string `json:"dueDate"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.DueDate = nil
	if aux.DueDate != nil && *aux.DueDate != "" {
		d, err := ParseDate(*aux.DueDate)
		if err != nil {
			return &ValidationError{Field: "dueDate", Message: err.Error()}
		}
		t.DueDate = &d
	}
	return nil
}

// Clone returns a copy of the task that shares no pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	out.Recurring = t.Recurring.Clone()
	if t.Attachments != nil {
		out.Attachments = make([]json.RawMessage, len(t.Attachments))
		copy(out.Attachments, t.Attachments)
	}
	return out
}

// HasDueDate reports whether the task appears on the calendar.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil && !t.DueDate.IsZero()
}
