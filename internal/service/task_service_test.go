package service

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/memory"
)

const testMaxOpenTasks = 5

func timePtr(t time.Time) *time.Time { return &t }

// newTestService wires a service over fresh in-memory stores with owner 1
// seeded. Returns the stores so tests can arrange fixtures directly.
func newTestService(t *testing.T) (TaskService, *memory.TaskStore, *memory.OwnerStore) {
	t.Helper()

	tasks := memory.NewTaskStore()
	owners := memory.NewOwnerStore()
	owners.Seed([]*domain.Owner{{ID: 1, DisplayName: "Ada"}})

	svc, err := NewTaskService(tasks, owners, nil, slog.Default(), config.TaskConfig{MaxOpenTasks: testMaxOpenTasks})
	require.NoError(t, err)

	return svc, tasks, owners
}

func TestNewTaskService(t *testing.T) {
	t.Parallel()

	tasks := memory.NewTaskStore()
	cfg := config.TaskConfig{MaxOpenTasks: 10}

	// Nil task repository is rejected.
	_, err := NewTaskService(nil, nil, nil, slog.Default(), cfg)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Nil logger is rejected.
	_, err = NewTaskService(tasks, nil, nil, nil, cfg)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Non-positive limit is rejected.
	_, err = NewTaskService(tasks, nil, nil, slog.Default(), config.TaskConfig{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Owner repository and db are optional.
	svc, err := NewTaskService(tasks, nil, nil, slog.Default(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	due := time.Now().UTC().Add(24 * time.Hour)
	task, err := svc.CreateTask(ctx, domain.TaskCreate{
		Title:    "  Write design doc  ",
		Priority: domain.PriorityHigh,
		DueDate:  &due,
		OwnerID:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, "Write design doc", task.Title, "title should be trimmed")
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.NotZero(t, task.ID)
	assert.False(t, task.Completed)
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	cases := []struct {
		name    string
		payload domain.TaskCreate
		wantErr error
	}{
		{"empty_title", domain.TaskCreate{Title: "", OwnerID: 1}, domain.ErrEmptyTaskTitle},
		{"whitespace_title", domain.TaskCreate{Title: "   ", OwnerID: 1}, domain.ErrEmptyTaskTitle},
		{"missing_owner", domain.TaskCreate{Title: "x"}, domain.ErrEmptyTaskOwnerID},
		{"title_too_long", domain.TaskCreate{Title: strings.Repeat("x", 201), OwnerID: 1}, domain.ErrValidation},
		{"bad_priority", domain.TaskCreate{Title: "x", Priority: "urgent", OwnerID: 1}, domain.ErrValidation},
		{"past_due_date", domain.TaskCreate{Title: "x", DueDate: timePtr(time.Now().UTC().Add(-time.Hour)), OwnerID: 1}, domain.ErrValidation},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateTask(ctx, tc.payload)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateTaskUnknownOwner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.CreateTask(ctx, domain.TaskCreate{Title: "orphan", OwnerID: 99})
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestCreateTaskOpenTaskLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for i := 0; i < testMaxOpenTasks; i++ {
		_, err := svc.CreateTask(ctx, domain.TaskCreate{Title: "filler", OwnerID: 1})
		require.NoError(t, err)
	}

	_, err := svc.CreateTask(ctx, domain.TaskCreate{Title: "one too many", OwnerID: 1})
	assert.ErrorIs(t, err, ErrTaskLimitReached)
	assert.ErrorIs(t, err, ErrRuleViolation)

	// Completed tasks don't count against the limit.
	tasks, err := svc.ListTasks(ctx, 1, 0, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	_, err = svc.CompleteTask(ctx, 1, tasks[0].ID)
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, domain.TaskCreate{Title: "fits again", OwnerID: 1})
	assert.NoError(t, err)
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "mine", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "someone else's", Priority: domain.PriorityLow, OwnerID: 2},
	})

	got, err := svc.GetTask(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	// Foreign task reads exactly like a missing one.
	_, err = svc.GetTask(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = svc.GetTask(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// Invalid IDs fail before touching the store.
	_, err = svc.GetTask(ctx, 0, 1)
	assert.ErrorIs(t, err, domain.ErrEmptyTaskOwnerID)
	_, err = svc.GetTask(ctx, 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{{ID: 1, Title: "draft", Priority: domain.PriorityLow, OwnerID: 1}})

	title := "final"
	high := domain.PriorityHigh
	updated, err := svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{Title: &title, Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, domain.PriorityHigh, updated.Priority)
}

func TestUpdateTaskValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{{ID: 1, Title: "draft", Priority: domain.PriorityLow, OwnerID: 1}})

	empty := ""
	_, err := svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)

	bad := domain.Priority("urgent")
	_, err = svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{Priority: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)

	// Setting and clearing the due date at once is contradictory.
	due := time.Now().UTC().Add(time.Hour)
	_, err = svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{DueDate: &due, ClearDueDate: true})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateTaskCompletedDueDateLocked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	due := time.Now().UTC().Add(24 * time.Hour)
	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "done with due", Completed: true, Priority: domain.PriorityLow, DueDate: &due, OwnerID: 1},
		{ID: 2, Title: "done without due", Completed: true, Priority: domain.PriorityLow, OwnerID: 1},
	})

	// Changing the due date of a completed task is refused.
	newDue := due.Add(time.Hour)
	_, err := svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{DueDate: &newDue})
	assert.ErrorIs(t, err, ErrCompletedDueDateLocked)
	assert.ErrorIs(t, err, ErrRuleViolation)

	// So is clearing it.
	_, err = svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{ClearDueDate: true})
	assert.ErrorIs(t, err, ErrCompletedDueDateLocked)

	// Re-submitting the same due date changes nothing and is allowed.
	sameDue := due
	_, err = svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{DueDate: &sameDue})
	assert.NoError(t, err)

	// Clearing an already absent due date is a no-op, not a violation.
	_, err = svc.UpdateTask(ctx, 1, 2, domain.TaskUpdate{ClearDueDate: true})
	assert.NoError(t, err)

	// Other fields of a completed task stay editable.
	title := "renamed"
	updated, err := svc.UpdateTask(ctx, 1, 1, domain.TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "mine", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "foreign", Priority: domain.PriorityLow, OwnerID: 2},
	})

	require.NoError(t, svc.DeleteTask(ctx, 1, 1))

	err := svc.DeleteTask(ctx, 1, 1)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// A foreign task cannot be deleted and still exists afterwards.
	err = svc.DeleteTask(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = svc.GetTask(ctx, 2, 2)
	assert.NoError(t, err)
}

func TestCompleteAndUncompleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{{ID: 1, Title: "todo", Priority: domain.PriorityLow, OwnerID: 1}})

	task, err := svc.CompleteTask(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	// Completing twice is a no-op.
	task, err = svc.CompleteTask(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, task.Completed)

	task, err = svc.UncompleteTask(ctx, 1, 1)
	require.NoError(t, err)
	assert.False(t, task.Completed)

	_, err = svc.CompleteTask(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestBulkUpdatePriority(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "a", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "b", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 3, Title: "c", Priority: domain.PriorityLow, OwnerID: 2},
	})

	updated, err := svc.BulkUpdatePriority(ctx, 1, []int64{1, 2, 3, 99}, domain.PriorityHigh)
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	// Empty ID list short-circuits.
	updated, err = svc.BulkUpdatePriority(ctx, 1, nil, domain.PriorityHigh)
	require.NoError(t, err)
	assert.Empty(t, updated)

	_, err = svc.BulkUpdatePriority(ctx, 1, []int64{1}, "urgent")
	assert.ErrorIs(t, err, domain.ErrInvalidPriority)
}

func TestBulkDeleteTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "a", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "b", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 3, Title: "c", Priority: domain.PriorityLow, OwnerID: 2},
	})

	deleted, err := svc.BulkDeleteTasks(ctx, 1, []int64{1, 2, 3, 99})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = svc.BulkDeleteTasks(ctx, 1, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSearchTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "Grocery run", Description: "milk and eggs", Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "Call plumber", Priority: domain.PriorityLow, OwnerID: 1},
	})

	// Query is trimmed before matching.
	found, err := svc.SearchTasks(ctx, 1, "  grocery  ", 0, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1), found[0].ID)

	// Blank queries match nothing without hitting the repository.
	found, err = svc.SearchTasks(ctx, 1, "   ", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestGetTaskStatistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	past := time.Now().UTC().Add(-24 * time.Hour)
	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "done", Completed: true, Priority: domain.PriorityLow, OwnerID: 1},
		{ID: 2, Title: "late", Priority: domain.PriorityHigh, DueDate: &past, OwnerID: 1},
		{ID: 3, Title: "open", Priority: domain.PriorityHigh, OwnerID: 1},
	})

	stats, err := svc.GetTaskStatistics(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(1), stats.Overdue)
	assert.Equal(t, int64(2), stats.HighPriority)
	assert.Equal(t, int64(0), stats.MediumPriority)
	assert.Equal(t, int64(1), stats.LowPriority)
	assert.InDelta(t, 33.33, stats.CompletionRate, 1e-9)
	assert.Equal(t, domain.PriorityHigh, stats.MostCommonPriority)
}

func TestGetTaskStatisticsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	stats, err := svc.GetTaskStatistics(ctx, 1)
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.CompletionRate)
	assert.Equal(t, domain.PriorityMedium, stats.MostCommonPriority)
}

func TestGetProductivityInsights(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	soon := dayStart.Add(23 * time.Hour)
	nextWeek := dayStart.AddDate(0, 0, 5)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "overdue", Priority: domain.PriorityMedium, DueDate: &past, OwnerID: 1},
		{ID: 2, Title: "today", Priority: domain.PriorityMedium, DueDate: &soon, OwnerID: 1},
		{ID: 3, Title: "this week", Priority: domain.PriorityMedium, DueDate: &nextWeek, OwnerID: 1},
		{ID: 4, Title: "important", Priority: domain.PriorityHigh, OwnerID: 1},
		{ID: 5, Title: "important but done", Completed: true, Priority: domain.PriorityHigh, OwnerID: 1},
	})

	insights, err := svc.GetProductivityInsights(ctx, 1)
	require.NoError(t, err)

	require.NotEmpty(t, insights.Overdue)
	assert.Equal(t, int64(1), insights.Overdue[0].ID)
	assert.NotEmpty(t, insights.DueToday)
	assert.Len(t, insights.HighPriorityPending, 1)
	assert.Equal(t, int64(4), insights.HighPriorityPending[0].ID)

	// Recommendations follow a fixed precedence: overdue, then due today,
	// then high-priority pending.
	require.Len(t, insights.Recommendations, 3)
	assert.Contains(t, insights.Recommendations[0], "overdue")
	assert.Contains(t, insights.Recommendations[1], "due today")
	assert.Contains(t, insights.Recommendations[2], "high-priority")
}

func TestGetProductivityInsightsAllClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, tasks, _ := newTestService(t)

	tasks.Seed([]*domain.Task{
		{ID: 1, Title: "relaxed", Priority: domain.PriorityLow, OwnerID: 1},
	})

	insights, err := svc.GetProductivityInsights(ctx, 1)
	require.NoError(t, err)

	assert.Empty(t, insights.Overdue)
	assert.Empty(t, insights.DueToday)
	require.Len(t, insights.Recommendations, 1)
	assert.Contains(t, insights.Recommendations[0], "caught up")
}
