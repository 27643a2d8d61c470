package domain

import (
	"fmt"
	"time"
)

// Status is the closed set of board columns a task can occupy.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in board column order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// ParseStatus validates a raw status value read from storage or a request.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(raw); s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("unknown task status %q", raw)
}

// Priority is the closed set of priority tags.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a raw priority value read from storage or a request.
func ParsePriority(raw string) (Priority, error) {
	switch p := Priority(raw); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown task priority %q", raw)
}

// Task represents a single board item.
type Task struct {
	ID          string   `json:"id"`
	Owner       string   `json:"owner"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
	// DueDate keeps the exact string the store holds; an empty value means
	// the task has no deadline. Reminder dedup keys are derived from this
	// string, so a moved deadline forms a new key.
	DueDate   string   `json:"due_date,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

var dueLayouts = []string{time.RFC3339, "2006-01-02"}

// DueTime parses the task's due date. The second return is false when the
// task has no deadline or the stored value does not parse.
func (t Task) DueTime() (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	for _, layout := range dueLayouts {
		if ts, err := time.Parse(layout, t.DueDate); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// NewTask carries the caller-supplied fields for task creation. Zero values
// fall back to the board defaults (pending status, medium priority).
type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TaskUpdate is a partial update; nil fields are left untouched.
type TaskUpdate struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Empty reports whether the update touches no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.DueDate == nil && u.Tags == nil
}
