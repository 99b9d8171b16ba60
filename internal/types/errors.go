package types

import (
	"fmt"
	"strings"
)

// ValidationError is a precondition failure detected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CommitError reports a failed mutation against the remote store.
// OutOfSync is set when the local collection already reflects the change
// and was not reverted.
type CommitError struct {
	TaskID    string
	Op        string
	Err       error
	OutOfSync bool
}

func (e *CommitError) Error() string {
	msg := fmt.Sprintf("failed to %s task %s: %v", e.Op, e.TaskID, e.Err)
	if e.OutOfSync {
		msg += " (local view is out of sync until reload)"
	}
	return msg
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IntegrityError reports tasks whose status is outside the known set.
type IntegrityError struct {
	TaskIDs  []string
	Statuses []Status
}

func (e *IntegrityError) Error() string {
	seen := make(map[Status]bool)
	var names []string
	for _, s := range e.Statuses {
		if !seen[s] {
			seen[s] = true
			names = append(names, fmt.Sprintf("%q", s))
		}
	}
	return fmt.Sprintf("%d task(s) with unknown status %s: %s",
		len(e.TaskIDs), strings.Join(names, ", "), strings.Join(e.TaskIDs, ", "))
}
