package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// TaskStatistics aggregates an owner's task counts together with metrics
// derived from the counts themselves.
type TaskStatistics struct {
	Total              int64           `json:"total"`
	Completed          int64           `json:"completed"`
	Pending            int64           `json:"pending"`
	Overdue            int64           `json:"overdue"`
	HighPriority       int64           `json:"high_priority"`
	MediumPriority     int64           `json:"medium_priority"`
	LowPriority        int64           `json:"low_priority"`
	CompletionRate     float64         `json:"completion_rate"`
	MostCommonPriority domain.Priority `json:"most_common_priority"`
}

// ProductivityInsights is a snapshot of what an owner should act on next:
// the tasks in each attention bucket plus recommendations derived from them.
type ProductivityInsights struct {
	DueToday            []*domain.Task `json:"due_today"`
	DueThisWeek         []*domain.Task `json:"due_this_week"`
	Overdue             []*domain.Task `json:"overdue"`
	HighPriorityPending []*domain.Task `json:"high_priority_pending"`
	Recommendations     []string       `json:"recommendations"`
}

// TaskService defines the business operations available on tasks. Every
// method is scoped to a single owner; a task belonging to someone else is
// treated exactly like a task that does not exist.
type TaskService interface {
	// CreateTask validates the payload, enforces the open-task limit for the
	// owner, and persists a new task.
	CreateTask(ctx context.Context, in domain.TaskCreate) (*domain.Task, error)

	// GetTask retrieves a single task owned by ownerID.
	GetTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)

	// ListTasks returns the owner's tasks, newest first, with optional
	// skip/limit paging.
	ListTasks(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error)

	// ListTasksByStatus returns the owner's tasks filtered by completion state.
	ListTasksByStatus(ctx context.Context, ownerID int64, completed bool, skip, limit int) ([]*domain.Task, error)

	// ListTasksByPriority returns the owner's tasks at the given priority.
	ListTasksByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error)

	// UpdateTask applies a partial update to an owned task. The due date of a
	// completed task cannot be changed.
	UpdateTask(ctx context.Context, ownerID, taskID int64, in domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask removes an owned task.
	DeleteTask(ctx context.Context, ownerID, taskID int64) error

	// CompleteTask marks an owned task as completed. Completing an already
	// completed task is a no-op that returns the current state.
	CompleteTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)

	// UncompleteTask marks an owned task as not completed.
	UncompleteTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error)

	// BulkUpdatePriority sets the priority on each of the owner's tasks named
	// by taskIDs and returns the tasks that changed. IDs that do not resolve
	// to an owned task are skipped.
	BulkUpdatePriority(ctx context.Context, ownerID int64, taskIDs []int64, priority domain.Priority) ([]*domain.Task, error)

	// BulkDeleteTasks deletes each of the owner's tasks named by taskIDs and
	// returns how many rows were removed.
	BulkDeleteTasks(ctx context.Context, ownerID int64, taskIDs []int64) (int64, error)

	// SearchTasks finds the owner's tasks whose title or description contains
	// the query, case-insensitively. A blank query matches nothing.
	SearchTasks(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error)

	// GetTaskStatistics returns aggregate counts and derived metrics for the
	// owner's tasks.
	GetTaskStatistics(ctx context.Context, ownerID int64) (*TaskStatistics, error)

	// GetProductivityInsights returns attention buckets and recommendations
	// for the owner's tasks.
	GetProductivityInsights(ctx context.Context, ownerID int64) (*ProductivityInsights, error)
}

// taskService implements the TaskService interface.
type taskService struct {
	taskRepo  store.TaskRepository
	ownerRepo store.OwnerRepository
	db        *sql.DB
	logger    *slog.Logger
	validate  *validator.Validate
	cfg       config.TaskConfig
}

// Verify interface implementation at compile time.
var _ TaskService = (*taskService)(nil)

// NewTaskService creates a new task service with the given dependencies.
// ownerRepo and db may be nil: without ownerRepo the owner existence check is
// skipped, and without db the create path runs outside a transaction (the
// in-memory backend has no transactions).
func NewTaskService(
	taskRepo store.TaskRepository,
	ownerRepo store.OwnerRepository,
	db *sql.DB,
	log *slog.Logger,
	cfg config.TaskConfig,
) (TaskService, error) {
	if taskRepo == nil {
		return nil, domain.NewValidationError("taskRepo", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		return nil, domain.NewValidationError("logger", "cannot be nil", domain.ErrValidation)
	}
	if cfg.MaxOpenTasks <= 0 {
		return nil, domain.NewValidationError("cfg.MaxOpenTasks", "must be positive", domain.ErrValidation)
	}

	return &taskService{
		taskRepo:  taskRepo,
		ownerRepo: ownerRepo,
		db:        db,
		logger:    log.With(slog.String("component", "task_service")),
		validate:  validator.New(),
		cfg:       cfg,
	}, nil
}

// CreateTask implements TaskService.CreateTask.
func (s *taskService) CreateTask(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	if s.ownerRepo != nil {
		if _, err := s.ownerRepo.GetByID(ctx, in.OwnerID); err != nil {
			if store.IsNotFoundError(err) {
				return nil, fmt.Errorf("%w: id %d", ErrOwnerNotFound, in.OwnerID)
			}
			return nil, NewTaskServiceError("create", "failed to verify owner", err)
		}
	}

	var created *domain.Task

	createFn := func(repo store.TaskRepository) error {
		open, err := repo.CountByOwner(ctx, in.OwnerID, store.Filters{"completed": false})
		if err != nil {
			return NewTaskServiceError("create", "failed to count open tasks", err)
		}
		if open >= int64(s.cfg.MaxOpenTasks) {
			return fmt.Errorf("%w: limit is %d", ErrTaskLimitReached, s.cfg.MaxOpenTasks)
		}

		created, err = repo.Create(ctx, in)
		if err != nil {
			if errors.Is(err, store.ErrInvalidEntity) || errors.Is(err, domain.ErrValidation) {
				return err
			}
			return NewTaskServiceError("create", "failed to save task", err)
		}
		return nil
	}

	var err error
	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return createFn(s.taskRepo.WithTx(tx))
		})
	} else {
		err = createFn(s.taskRepo)
	}
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "task created",
		slog.Int64("task_id", created.ID),
		slog.Int64("owner_id", created.OwnerID))
	return created, nil
}

// GetTask implements TaskService.GetTask.
func (s *taskService) GetTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	if err := validateIDs(ownerID, taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.mapLookupError("get", taskID, err)
	}
	return task, nil
}

// ListTasks implements TaskService.ListTasks.
func (s *taskService) ListTasks(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByOwner(ctx, ownerID, skip, limit, nil)
	if err != nil {
		return nil, NewTaskServiceError("list", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTasksByStatus implements TaskService.ListTasksByStatus.
func (s *taskService) ListTasksByStatus(ctx context.Context, ownerID int64, completed bool, skip, limit int) ([]*domain.Task, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.ListByStatus(ctx, ownerID, completed, skip, limit)
	if err != nil {
		return nil, NewTaskServiceError("list_by_status", "failed to list tasks", err)
	}
	return tasks, nil
}

// ListTasksByPriority implements TaskService.ListTasksByPriority.
func (s *taskService) ListTasksByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	if !domain.IsValidPriority(priority) {
		return nil, domain.NewValidationError("priority", "must be one of low, medium, high", domain.ErrInvalidPriority)
	}

	tasks, err := s.taskRepo.ListByPriority(ctx, ownerID, priority, skip, limit)
	if err != nil {
		return nil, NewTaskServiceError("list_by_priority", "failed to list tasks", err)
	}
	return tasks, nil
}

// UpdateTask implements TaskService.UpdateTask.
func (s *taskService) UpdateTask(ctx context.Context, ownerID, taskID int64, in domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateIDs(ownerID, taskID); err != nil {
		return nil, err
	}
	if err := s.validateUpdate(in); err != nil {
		return nil, err
	}

	existing, err := s.taskRepo.GetByOwnerAndID(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.mapLookupError("update", taskID, err)
	}

	if existing.Completed && changesDueDate(existing, in) {
		return nil, ErrCompletedDueDateLocked
	}

	updated, err := s.taskRepo.Update(ctx, existing, in)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, s.mapLookupError("update", taskID, err)
	}

	log.DebugContext(ctx, "task updated",
		slog.Int64("task_id", updated.ID),
		slog.Int64("owner_id", updated.OwnerID))
	return updated, nil
}

// DeleteTask implements TaskService.DeleteTask.
func (s *taskService) DeleteTask(ctx context.Context, ownerID, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateIDs(ownerID, taskID); err != nil {
		return err
	}

	// Resolve through the owner scope first so a foreign task deletes nothing.
	if _, err := s.taskRepo.GetByOwnerAndID(ctx, ownerID, taskID); err != nil {
		return s.mapLookupError("delete", taskID, err)
	}

	deleted, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return NewTaskServiceError("delete", "failed to delete task", err)
	}
	if !deleted {
		return fmt.Errorf("%w: id %d", ErrTaskNotFound, taskID)
	}

	log.DebugContext(ctx, "task deleted",
		slog.Int64("task_id", taskID),
		slog.Int64("owner_id", ownerID))
	return nil
}

// CompleteTask implements TaskService.CompleteTask.
func (s *taskService) CompleteTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	return s.setCompletion(ctx, "complete", ownerID, taskID, true)
}

// UncompleteTask implements TaskService.UncompleteTask.
func (s *taskService) UncompleteTask(ctx context.Context, ownerID, taskID int64) (*domain.Task, error) {
	return s.setCompletion(ctx, "uncomplete", ownerID, taskID, false)
}

func (s *taskService) setCompletion(ctx context.Context, op string, ownerID, taskID int64, completed bool) (*domain.Task, error) {
	if err := validateIDs(ownerID, taskID); err != nil {
		return nil, err
	}

	var (
		task *domain.Task
		err  error
	)
	if completed {
		task, err = s.taskRepo.MarkCompleted(ctx, ownerID, taskID)
	} else {
		task, err = s.taskRepo.MarkIncomplete(ctx, ownerID, taskID)
	}
	if err != nil {
		return nil, s.mapLookupError(op, taskID, err)
	}
	return task, nil
}

// BulkUpdatePriority implements TaskService.BulkUpdatePriority.
func (s *taskService) BulkUpdatePriority(ctx context.Context, ownerID int64, taskIDs []int64, priority domain.Priority) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}
	if !domain.IsValidPriority(priority) {
		return nil, domain.NewValidationError("priority", "must be one of low, medium, high", domain.ErrInvalidPriority)
	}
	if len(taskIDs) == 0 {
		return []*domain.Task{}, nil
	}

	updated, err := s.taskRepo.BulkUpdatePriority(ctx, ownerID, taskIDs, priority)
	if err != nil {
		return nil, NewTaskServiceError("bulk_update_priority", "failed to update tasks", err)
	}

	log.DebugContext(ctx, "bulk priority update",
		slog.Int64("owner_id", ownerID),
		slog.Int("requested", len(taskIDs)),
		slog.Int("updated", len(updated)))
	return updated, nil
}

// BulkDeleteTasks implements TaskService.BulkDeleteTasks.
func (s *taskService) BulkDeleteTasks(ctx context.Context, ownerID int64, taskIDs []int64) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}
	if len(taskIDs) == 0 {
		return 0, nil
	}

	deleted, err := s.taskRepo.BulkDelete(ctx, ownerID, taskIDs)
	if err != nil {
		return 0, NewTaskServiceError("bulk_delete", "failed to delete tasks", err)
	}

	log.DebugContext(ctx, "bulk delete",
		slog.Int64("owner_id", ownerID),
		slog.Int("requested", len(taskIDs)),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// SearchTasks implements TaskService.SearchTasks.
func (s *taskService) SearchTasks(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.Task{}, nil
	}

	tasks, err := s.taskRepo.Search(ctx, ownerID, query, skip, limit)
	if err != nil {
		return nil, NewTaskServiceError("search", "failed to search tasks", err)
	}
	return tasks, nil
}

// GetTaskStatistics implements TaskService.GetTaskStatistics.
func (s *taskService) GetTaskStatistics(ctx context.Context, ownerID int64) (*TaskStatistics, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	stats, err := s.taskRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("statistics", "failed to aggregate tasks", err)
	}
	rate, err := s.taskRepo.CompletionRate(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("statistics", "failed to compute completion rate", err)
	}

	return &TaskStatistics{
		Total:              stats.Total,
		Completed:          stats.Completed,
		Pending:            stats.Pending,
		Overdue:            stats.Overdue,
		HighPriority:       stats.HighPriority,
		MediumPriority:     stats.MediumPriority,
		LowPriority:        stats.LowPriority,
		CompletionRate:     math.Round(rate*100*100) / 100,
		MostCommonPriority: mostCommonPriority(stats),
	}, nil
}

// GetProductivityInsights implements TaskService.GetProductivityInsights.
func (s *taskService) GetProductivityInsights(ctx context.Context, ownerID int64) (*ProductivityInsights, error) {
	if err := validateOwner(ownerID); err != nil {
		return nil, err
	}

	dueToday, err := s.taskRepo.ListDueToday(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("insights", "failed to list tasks due today", err)
	}
	dueThisWeek, err := s.taskRepo.ListDueThisWeek(ctx, ownerID)
	if err != nil {
		return nil, NewTaskServiceError("insights", "failed to list tasks due this week", err)
	}
	overdue, err := s.taskRepo.ListOverdue(ctx, ownerID, 0, 0)
	if err != nil {
		return nil, NewTaskServiceError("insights", "failed to list overdue tasks", err)
	}
	highPriority, err := s.taskRepo.ListByPriority(ctx, ownerID, domain.PriorityHigh, 0, 0)
	if err != nil {
		return nil, NewTaskServiceError("insights", "failed to list high priority tasks", err)
	}

	highPending := make([]*domain.Task, 0, len(highPriority))
	for _, t := range highPriority {
		if !t.Completed {
			highPending = append(highPending, t)
		}
	}

	recommendations := []string{}
	if len(overdue) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("You have %d overdue task(s). Consider completing or rescheduling them.", len(overdue)))
	}
	if len(dueToday) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Focus on your %d task(s) due today.", len(dueToday)))
	}
	if len(highPending) > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("You have %d high-priority pending task(s).", len(highPending)))
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Great job! You're all caught up.")
	}

	return &ProductivityInsights{
		DueToday:            dueToday,
		DueThisWeek:         dueThisWeek,
		Overdue:             overdue,
		HighPriorityPending: highPending,
		Recommendations:     recommendations,
	}, nil
}

// validateCreate checks the create payload beyond struct tags: the title must
// survive trimming and a due date may not already be in the past.
func (s *taskService) validateCreate(in domain.TaskCreate) error {
	if in.Title == "" {
		return domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyTaskTitle)
	}
	if in.OwnerID <= 0 {
		return domain.NewValidationError("owner_id", "must be positive", domain.ErrEmptyTaskOwnerID)
	}
	if err := s.validate.Struct(in); err != nil {
		return domain.NewValidationError("task", "invalid create payload", fmt.Errorf("%w: %v", domain.ErrValidation, err))
	}
	if in.DueDate != nil && in.DueDate.Before(time.Now().UTC()) {
		return domain.NewValidationError("due_date", "cannot be in the past", domain.ErrValidation)
	}
	return nil
}

// validateUpdate checks the fields present in a partial update.
func (s *taskService) validateUpdate(in domain.TaskUpdate) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.NewValidationError("title", "cannot be empty", domain.ErrEmptyTaskTitle)
		}
		if len(title) > domain.MaxTitleLength {
			return domain.NewValidationError("title", "exceeds maximum length", domain.ErrTaskTitleTooLong)
		}
	}
	if in.Priority != nil && !domain.IsValidPriority(*in.Priority) {
		return domain.NewValidationError("priority", "must be one of low, medium, high", domain.ErrInvalidPriority)
	}
	if in.DueDate != nil && in.ClearDueDate {
		return domain.NewValidationError("due_date", "cannot both set and clear the due date", domain.ErrValidation)
	}
	return nil
}

// mapLookupError converts store-level lookup failures into service errors.
func (s *taskService) mapLookupError(op string, taskID int64, err error) error {
	if store.IsNotFoundError(err) {
		return fmt.Errorf("%w: id %d", ErrTaskNotFound, taskID)
	}
	return NewTaskServiceError(op, "repository operation failed", err)
}

// changesDueDate reports whether the update would alter the task's due date.
func changesDueDate(existing *domain.Task, in domain.TaskUpdate) bool {
	if in.ClearDueDate {
		return existing.DueDate != nil
	}
	if in.DueDate == nil {
		return false
	}
	return existing.DueDate == nil || !existing.DueDate.Equal(*in.DueDate)
}

// mostCommonPriority picks the priority bucket with the highest count,
// breaking ties in favor of the more urgent priority. An owner with no tasks
// reports medium, the creation default.
func mostCommonPriority(stats *store.TaskStats) domain.Priority {
	if stats.Total == 0 {
		return domain.PriorityMedium
	}
	best, count := domain.PriorityHigh, stats.HighPriority
	if stats.MediumPriority > count {
		best, count = domain.PriorityMedium, stats.MediumPriority
	}
	if stats.LowPriority > count {
		best = domain.PriorityLow
	}
	return best
}

func validateOwner(ownerID int64) error {
	if ownerID <= 0 {
		return domain.NewValidationError("owner_id", "must be positive", domain.ErrEmptyTaskOwnerID)
	}
	return nil
}

func validateIDs(ownerID, taskID int64) error {
	if err := validateOwner(ownerID); err != nil {
		return err
	}
	if taskID <= 0 {
		return domain.NewValidationError("task_id", "must be positive", domain.ErrInvalidID)
	}
	return nil
}
