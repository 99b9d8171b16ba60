package types

import "strings"

// NewDraft returns a task draft with default status and priority.
func NewDraft(title, workspaceID string) Task {
	return Task{
		Title:       title,
		WorkspaceID: workspaceID,
		Status:      StatusToDo,
		Priority:    PriorityMedium,
	}
}

// Validate checks a candidate record before it is sent to the store.
// It returns the first *ValidationError found.
func Validate(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Message: "title required"}
	}
	if strings.TrimSpace(t.WorkspaceID) == "" {
		return &ValidationError{Field: "workspaceId", Message: "workspace required"}
	}
	if !t.Status.IsValid() {
		return &ValidationError{Field: "status", Message: "unknown status " + string(t.Status)}
	}
	if !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Message: "unknown priority " + string(t.Priority)}
	}
	return ValidateRecurrence(t)
}

// ValidateRecurrence checks the recurrence sub-record of t, if any.
func ValidateRecurrence(t Task) error {
	r := t.Recurring
	if r == nil {
		return nil
	}
	if !t.HasDueDate() {
		return &ValidationError{Field: "dueDate", Message: "start date required"}
	}
	if !r.Frequency.IsValid() {
		return &ValidationError{Field: "recurring.frequency", Message: "unknown frequency " + string(r.Frequency)}
	}
	if r.Interval < 1 {
		return &ValidationError{Field: "recurring.interval", Message: "interval must be a positive integer"}
	}
	return nil
}

// ValidateUpdate checks the record that results from applying u to current.
func ValidateUpdate(current Task, u TaskUpdate) error {
	return Validate(u.ApplyTo(current))
}
