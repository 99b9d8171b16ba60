package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// TaskUpdate is a partial update. Nil fields are left untouched by the store.
// ClearDueDate and ClearRecurring send an explicit null for their field.
type TaskUpdate struct {
	Title          *string
	Description    *string
	Priority       *Priority
	Status         *Status
	DueDate        *time.Time
	ClearDueDate   bool
	IsKeyTask      *bool
	Recurring      *RecurrenceRule
	ClearRecurring bool
}

// StatusUpdate returns an update that changes only the status.
func StatusUpdate(s Status) TaskUpdate {
	return TaskUpdate{Status: &s}
}

// DueDateUpdate returns an update that changes only the due date.
func DueDateUpdate(d time.Time) TaskUpdate {
	return TaskUpdate{DueDate: &d}
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// Fields returns the sorted JSON names of the fields this update touches.
func (u TaskUpdate) Fields() []string {
	var fields []string
	if u.Title != nil {
		fields = append(fields, "title")
	}
	if u.Description != nil {
		fields = append(fields, "description")
	}
	if u.Priority != nil {
		fields = append(fields, "priority")
	}
	if u.Status != nil {
		fields = append(fields, "status")
	}
	if u.DueDate != nil || u.ClearDueDate {
		fields = append(fields, "dueDate")
	}
	if u.IsKeyTask != nil {
		fields = append(fields, "isKeyTask")
	}
	if u.Recurring != nil || u.ClearRecurring {
		fields = append(fields, "recurring")
	}
	sort.Strings(fields)
	return fields
}

// ApplyTo returns a copy of t with the update's fields replaced.
func (u TaskUpdate) ApplyTo(t Task) Task {
	out := t.Clone()
	if u.Title != nil {
		out.Title = *u.Title
	}
	if u.Description != nil {
		out.Description = *u.Description
	}
	if u.Priority != nil {
		out.Priority = *u.Priority
	}
	if u.Status != nil {
		out.Status = *u.Status
	}
	if u.ClearDueDate {
		out.DueDate = nil
	} else if u.DueDate != nil {
		d := *u.DueDate
		out.DueDate = &d
	}
	if u.IsKeyTask != nil {
		out.IsKeyTask = *u.IsKeyTask
	}
	if u.ClearRecurring {
		out.Recurring = nil
	} else if u.Recurring != nil {
		out.Recurring = u.Recurring.Clone()
	}
	return out
}

// MarshalJSON emits only the fields the update touches.
func (u TaskUpdate) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{})
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Priority != nil {
		m["priority"] = *u.Priority
	}
	if u.Status != nil {
		m["status"] = *u.Status
	}
	if u.ClearDueDate {
		m["dueDate"] = nil
	} else if u.DueDate != nil {
		m["dueDate"] = *u.DueDate
	}
	if u.IsKeyTask != nil {
		m["isKeyTask"] = *u.IsKeyTask
	}
	if u.ClearRecurring {
		m["recurring"] = nil
	} else if u.Recurring != nil {
		m["recurring"] = u.Recurring
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a partial update. A JSON null clears dueDate or recurring.
// Unknown fields are ignored.
func (u *TaskUpdate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = TaskUpdate{}

	for key, val := range raw {
		isNull := bytes.Equal(bytes.TrimSpace(val), []byte("null"))
		var err error
		switch key {
		case "title":
			err = decodeOptional(val, isNull, &u.Title)
		case "description":
			err = decodeOptional(val, isNull, &u.Description)
		case "priority":
			err = decodeOptional(val, isNull, &u.Priority)
		case "status":
			err = decodeOptional(val, isNull, &u.Status)
		case "isKeyTask":
			err = decodeOptional(val, isNull, &u.IsKeyTask)
		case "dueDate":
			if isNull {
				u.ClearDueDate = true
				continue
			}
			var s string
			if err = json.Unmarshal(val, &s); err == nil {
				var d time.Time
				if d, err = ParseDate(s); err == nil {
					u.DueDate = &d
				}
			}
		case "recurring":
			if isNull {
				u.ClearRecurring = true
				continue
			}
			var r RecurrenceRule
			if err = json.Unmarshal(val, &r); err == nil {
				u.Recurring = &r
			}
		}
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func decodeOptional[T any](val json.RawMessage, isNull bool, dst **T) error {
	if isNull {
		return nil
	}
	var v T
	if err := json.Unmarshal(val, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}
