package mocks

import (
	"context"
	"database/sql"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/memory"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockTaskRepository implements store.TaskRepository for testing.
// Behavior defaults to the embedded in-memory store; set a function field to
// override the matching method.
type MockTaskRepository struct {
	*memory.TaskStore

	CreateFn             func(ctx context.Context, in domain.TaskCreate) (*domain.Task, error)
	GetByOwnerAndIDFn    func(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	ListByOwnerFn        func(ctx context.Context, ownerID int64, skip, limit int, filters store.Filters) ([]*domain.Task, error)
	CountByOwnerFn       func(ctx context.Context, ownerID int64, filters store.Filters) (int64, error)
	UpdateFn             func(ctx context.Context, existing *domain.Task, in domain.TaskUpdate) (*domain.Task, error)
	DeleteFn             func(ctx context.Context, id int64) (bool, error)
	MarkCompletedFn      func(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	MarkIncompleteFn     func(ctx context.Context, ownerID, id int64) (*domain.Task, error)
	BulkUpdatePriorityFn func(ctx context.Context, ownerID int64, ids []int64, priority domain.Priority) ([]*domain.Task, error)
	BulkDeleteFn         func(ctx context.Context, ownerID int64, ids []int64) (int64, error)
	SearchFn             func(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error)
	ListOverdueFn        func(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error)
	ListDueTodayFn       func(ctx context.Context, ownerID int64) ([]*domain.Task, error)
	ListDueThisWeekFn    func(ctx context.Context, ownerID int64) ([]*domain.Task, error)
	ListByPriorityFn     func(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error)
	StatsFn              func(ctx context.Context, ownerID int64) (*store.TaskStats, error)
	CompletionRateFn     func(ctx context.Context, ownerID int64) (float64, error)
}

// NewMockTaskRepository creates a mock backed by an empty in-memory store.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{TaskStore: memory.NewTaskStore()}
}

// Ensure MockTaskRepository implements store.TaskRepository interface
var _ store.TaskRepository = (*MockTaskRepository)(nil)

// WithTx returns the mock itself so function overrides survive the
// transactional path.
func (m *MockTaskRepository) WithTx(tx *sql.Tx) store.TaskRepository {
	return m
}

func (m *MockTaskRepository) Create(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, in)
	}
	return m.TaskStore.Create(ctx, in)
}

func (m *MockTaskRepository) GetByOwnerAndID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	if m.GetByOwnerAndIDFn != nil {
		return m.GetByOwnerAndIDFn(ctx, ownerID, id)
	}
	return m.TaskStore.GetByOwnerAndID(ctx, ownerID, id)
}

func (m *MockTaskRepository) ListByOwner(ctx context.Context, ownerID int64, skip, limit int, filters store.Filters) ([]*domain.Task, error) {
	if m.ListByOwnerFn != nil {
		return m.ListByOwnerFn(ctx, ownerID, skip, limit, filters)
	}
	return m.TaskStore.ListByOwner(ctx, ownerID, skip, limit, filters)
}

func (m *MockTaskRepository) CountByOwner(ctx context.Context, ownerID int64, filters store.Filters) (int64, error) {
	if m.CountByOwnerFn != nil {
		return m.CountByOwnerFn(ctx, ownerID, filters)
	}
	return m.TaskStore.CountByOwner(ctx, ownerID, filters)
}

func (m *MockTaskRepository) Update(ctx context.Context, existing *domain.Task, in domain.TaskUpdate) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, existing, in)
	}
	return m.TaskStore.Update(ctx, existing, in)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return m.TaskStore.Delete(ctx, id)
}

func (m *MockTaskRepository) MarkCompleted(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	if m.MarkCompletedFn != nil {
		return m.MarkCompletedFn(ctx, ownerID, id)
	}
	return m.TaskStore.MarkCompleted(ctx, ownerID, id)
}

func (m *MockTaskRepository) MarkIncomplete(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	if m.MarkIncompleteFn != nil {
		return m.MarkIncompleteFn(ctx, ownerID, id)
	}
	return m.TaskStore.MarkIncomplete(ctx, ownerID, id)
}

func (m *MockTaskRepository) BulkUpdatePriority(ctx context.Context, ownerID int64, ids []int64, priority domain.Priority) ([]*domain.Task, error) {
	if m.BulkUpdatePriorityFn != nil {
		return m.BulkUpdatePriorityFn(ctx, ownerID, ids, priority)
	}
	return m.TaskStore.BulkUpdatePriority(ctx, ownerID, ids, priority)
}

func (m *MockTaskRepository) BulkDelete(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	if m.BulkDeleteFn != nil {
		return m.BulkDeleteFn(ctx, ownerID, ids)
	}
	return m.TaskStore.BulkDelete(ctx, ownerID, ids)
}

func (m *MockTaskRepository) Search(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error) {
	if m.SearchFn != nil {
		return m.SearchFn(ctx, ownerID, query, skip, limit)
	}
	return m.TaskStore.Search(ctx, ownerID, query, skip, limit)
}

func (m *MockTaskRepository) ListOverdue(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, ownerID, skip, limit)
	}
	return m.TaskStore.ListOverdue(ctx, ownerID, skip, limit)
}

func (m *MockTaskRepository) ListDueToday(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	if m.ListDueTodayFn != nil {
		return m.ListDueTodayFn(ctx, ownerID)
	}
	return m.TaskStore.ListDueToday(ctx, ownerID)
}

func (m *MockTaskRepository) ListDueThisWeek(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	if m.ListDueThisWeekFn != nil {
		return m.ListDueThisWeekFn(ctx, ownerID)
	}
	return m.TaskStore.ListDueThisWeek(ctx, ownerID)
}

func (m *MockTaskRepository) ListByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error) {
	if m.ListByPriorityFn != nil {
		return m.ListByPriorityFn(ctx, ownerID, priority, skip, limit)
	}
	return m.TaskStore.ListByPriority(ctx, ownerID, priority, skip, limit)
}

func (m *MockTaskRepository) Stats(ctx context.Context, ownerID int64) (*store.TaskStats, error) {
	if m.StatsFn != nil {
		return m.StatsFn(ctx, ownerID)
	}
	return m.TaskStore.Stats(ctx, ownerID)
}

func (m *MockTaskRepository) CompletionRate(ctx context.Context, ownerID int64) (float64, error) {
	if m.CompletionRateFn != nil {
		return m.CompletionRateFn(ctx, ownerID)
	}
	return m.TaskStore.CompletionRate(ctx, ownerID)
}
