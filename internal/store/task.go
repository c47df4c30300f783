package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/phrazzld/tasker-api/internal/domain"
)

// TaskStats holds the per-owner aggregate counts for tasks.
type TaskStats struct {
	Total          int64 `json:"total"`
	Completed      int64 `json:"completed"`
	Pending        int64 `json:"pending"`
	Overdue        int64 `json:"overdue"`
	HighPriority   int64 `json:"high_priority"`
	MediumPriority int64 `json:"medium_priority"`
	LowPriority    int64 `json:"low_priority"`
}

// TaskFilter bundles the optional predicates for ListWithFilters.
// Nil fields are not applied; set fields are combined with AND.
type TaskFilter struct {
	Completed *bool
	Priority  *domain.Priority
	DueFrom   *time.Time
	DueTo     *time.Time
}

// TaskRepository defines the persistence contract for tasks. It extends the
// owner-scoped generic contract with task-specific lookups, bulk mutation,
// search, and aggregate statistics.
//
// Ordering: lists are sorted created_at descending (newest first) unless
// the operation is a due-date window, which sorts due_date ascending.
// Repositories raise only infrastructure-class errors or not-found
// sentinels; validation and business rules live in the service layer.
type TaskRepository interface {
	OwnerScopedRepository[domain.Task, domain.TaskCreate, domain.TaskUpdate]

	// ListByStatus retrieves the owner's tasks filtered by completion state.
	ListByStatus(ctx context.Context, ownerID int64, completed bool, skip, limit int) ([]*domain.Task, error)

	// ListByPriority retrieves the owner's tasks with the given priority.
	ListByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error)

	// ListOverdue retrieves the owner's pending tasks whose due date has
	// passed, ordered by due date ascending.
	ListOverdue(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error)

	// ListDueToday retrieves the owner's pending tasks due in
	// [today 00:00, tomorrow 00:00) UTC, ordered by due date ascending.
	ListDueToday(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// ListDueThisWeek retrieves the owner's pending tasks due between today
	// and seven days out (inclusive by date), ordered by due date ascending.
	ListDueThisWeek(ctx context.Context, ownerID int64) ([]*domain.Task, error)

	// MarkCompleted sets the task's completed flag and refreshes UpdatedAt.
	// Returns ErrTaskNotFound if the task is missing or not owned.
	MarkCompleted(ctx context.Context, ownerID, id int64) (*domain.Task, error)

	// MarkIncomplete clears the task's completed flag and refreshes UpdatedAt.
	// Returns ErrTaskNotFound if the task is missing or not owned.
	MarkIncomplete(ctx context.Context, ownerID, id int64) (*domain.Task, error)

	// BulkUpdatePriority applies the priority to every listed ID that the
	// owner actually holds; missing or foreign IDs are silently skipped.
	// Returns the updated tasks.
	BulkUpdatePriority(ctx context.Context, ownerID int64, ids []int64, priority domain.Priority) ([]*domain.Task, error)

	// BulkDelete removes every owned ID in the set and reports how many
	// rows were actually removed.
	BulkDelete(ctx context.Context, ownerID int64, ids []int64) (int64, error)

	// Search performs a case-insensitive substring match against title or
	// description, scoped to the owner, newest first.
	Search(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error)

	// ListWithFilters applies the conjunction of all set predicates.
	ListWithFilters(ctx context.Context, ownerID int64, filter TaskFilter, skip, limit int) ([]*domain.Task, error)

	// Stats returns the owner's aggregate task counts.
	Stats(ctx context.Context, ownerID int64) (*TaskStats, error)

	// CompletionRate returns completed/total for the owner, 0.0 when the
	// owner has no tasks.
	CompletionRate(ctx context.Context, ownerID int64) (float64, error)

	// WithTx returns a new TaskRepository instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) TaskRepository
}
