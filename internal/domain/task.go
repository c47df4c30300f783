package domain

import (
	"errors"
	"strings"
	"time"
)

// Priority represents the urgency level of a task.
type Priority string

// Possible task priority values
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// MaxTitleLength is the longest title a task may carry.
const MaxTitleLength = 200

// Common validation errors for Task
var (
	ErrEmptyTaskTitle   = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 200 characters")
	ErrEmptyTaskOwnerID = errors.New("task owner ID cannot be empty")
	ErrInvalidPriority  = errors.New("invalid task priority")
)

// Task represents a single tracked item owned by exactly one owner.
// Every read and mutation exposed to callers is scoped to that owner.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	OwnerID     int64      `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskCreate is the payload for creating a task.
// OwnerID is set by the service layer from the authenticated caller,
// never by external input.
type TaskCreate struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	OwnerID     int64      `json:"-"`
}

// TaskUpdate is the payload for partially updating a task.
// A nil field means "leave unchanged". ClearDueDate removes the due date
// explicitly, since a nil DueDate alone cannot distinguish "absent" from
// "set to null".
type TaskUpdate struct {
	Title        *string    `json:"title" validate:"omitempty,max=200"`
	Description  *string    `json:"description"`
	Completed    *bool      `json:"completed"`
	Priority     *Priority  `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

// NewTask builds a Task from a creation payload, applying defaults.
// The ID is left unset; assignment is the repository's responsibility.
// Returns an error if validation fails.
func NewTask(in TaskCreate) (*Task, error) {
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		Title:       in.Title,
		Description: in.Description,
		Completed:   false,
		Priority:    priority,
		DueDate:     in.DueDate,
		OwnerID:     in.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTaskTitle
	}

	if len(t.Title) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.OwnerID == 0 {
		return ErrEmptyTaskOwnerID
	}

	if !IsValidPriority(t.Priority) {
		return ErrInvalidPriority
	}

	return nil
}

// Apply copies the fields present in the update payload onto the task and
// refreshes the UpdatedAt timestamp. Fields left nil are untouched.
// Returns an error if the resulting task would be invalid.
func (t *Task) Apply(in TaskUpdate) error {
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.ClearDueDate {
		t.DueDate = nil
	} else if in.DueDate != nil {
		t.DueDate = in.DueDate
	}

	t.UpdatedAt = time.Now().UTC()

	return t.Validate()
}

// IsOverdue reports whether the task has a due date in the past and is
// still pending.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// IsValidPriority checks if the given priority is one of the three enum values.
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}
