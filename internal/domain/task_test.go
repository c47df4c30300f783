package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	t.Parallel() // Enable parallel execution
	due := time.Now().UTC().Add(24 * time.Hour)

	task, err := NewTask(TaskCreate{
		Title:       "Write report",
		Description: "Quarterly numbers",
		Priority:    PriorityHigh,
		DueDate:     &due,
		OwnerID:     7,
	})

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID != 0 {
		t.Errorf("Expected zero ID before persistence, got %d", task.ID)
	}

	if task.Title != "Write report" {
		t.Errorf("Expected title %q, got %q", "Write report", task.Title)
	}

	if task.Completed {
		t.Error("Expected new task to be pending")
	}

	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority %s, got %s", PriorityHigh, task.Priority)
	}

	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, task.DueDate)
	}

	if task.OwnerID != 7 {
		t.Errorf("Expected owner ID 7, got %d", task.OwnerID)
	}

	if task.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	if task.UpdatedAt.IsZero() {
		t.Error("Expected non-zero UpdatedAt time")
	}
}

func TestNewTaskDefaultsPriority(t *testing.T) {
	t.Parallel()
	task, err := NewTask(TaskCreate{Title: "No priority given", OwnerID: 1})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("Expected default priority %s, got %s", PriorityMedium, task.Priority)
	}
}

func TestNewTaskValidation(t *testing.T) {
	t.Parallel()
	// Empty title
	_, err := NewTask(TaskCreate{Title: "", OwnerID: 1})
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	// Whitespace-only title
	_, err = NewTask(TaskCreate{Title: "   ", OwnerID: 1})
	if err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}

	// Title over the limit
	_, err = NewTask(TaskCreate{Title: strings.Repeat("x", MaxTitleLength+1), OwnerID: 1})
	if err != ErrTaskTitleTooLong {
		t.Errorf("Expected error %v, got %v", ErrTaskTitleTooLong, err)
	}

	// Title exactly at the limit is fine
	_, err = NewTask(TaskCreate{Title: strings.Repeat("x", MaxTitleLength), OwnerID: 1})
	if err != nil {
		t.Errorf("Expected no error for title at limit, got %v", err)
	}

	// Missing owner
	_, err = NewTask(TaskCreate{Title: "orphan"})
	if err != ErrEmptyTaskOwnerID {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskOwnerID, err)
	}

	// Bad priority
	_, err = NewTask(TaskCreate{Title: "urgent-ish", Priority: "urgent", OwnerID: 1})
	if err != ErrInvalidPriority {
		t.Errorf("Expected error %v, got %v", ErrInvalidPriority, err)
	}
}

func TestTaskApply(t *testing.T) {
	t.Parallel()
	due := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        3,
		Title:     "Original",
		Priority:  PriorityMedium,
		DueDate:   &due,
		OwnerID:   1,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	newTitle := "Renamed"
	completed := true
	high := PriorityHigh

	before := task.UpdatedAt
	err := task.Apply(TaskUpdate{Title: &newTitle, Completed: &completed, Priority: &high})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.Title != "Renamed" {
		t.Errorf("Expected title %q, got %q", "Renamed", task.Title)
	}
	if !task.Completed {
		t.Error("Expected task to be completed")
	}
	if task.Priority != PriorityHigh {
		t.Errorf("Expected priority %s, got %s", PriorityHigh, task.Priority)
	}
	// Untouched fields survive a partial update.
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("Expected due date unchanged, got %v", task.DueDate)
	}
	if !task.UpdatedAt.After(before) {
		t.Error("Expected UpdatedAt to be refreshed")
	}
}

func TestTaskApplyClearDueDate(t *testing.T) {
	t.Parallel()
	due := time.Now().UTC()
	task := Task{Title: "Has due date", Priority: PriorityLow, DueDate: &due, OwnerID: 2}

	if err := task.Apply(TaskUpdate{ClearDueDate: true}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if task.DueDate != nil {
		t.Errorf("Expected due date cleared, got %v", task.DueDate)
	}
}

func TestTaskApplyRejectsInvalidResult(t *testing.T) {
	t.Parallel()
	task := Task{Title: "valid", Priority: PriorityMedium, OwnerID: 1}

	empty := ""
	if err := task.Apply(TaskUpdate{Title: &empty}); err != ErrEmptyTaskTitle {
		t.Errorf("Expected error %v, got %v", ErrEmptyTaskTitle, err)
	}
}

func TestTaskIsOverdue(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name      string
		due       *time.Time
		completed bool
		want      bool
	}{
		{"past_due_pending", &past, false, true},
		{"past_due_completed", &past, true, false},
		{"future_due_pending", &future, false, false},
		{"no_due_date", nil, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := Task{Title: "t", Priority: PriorityMedium, OwnerID: 1, DueDate: tc.due, Completed: tc.completed}
			if got := task.IsOverdue(now); got != tc.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tc.want)
			}
		})
	}
}
