package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// taskColumns is the canonical column list scanned by scanTask.
const taskColumns = "id, title, description, completed, priority, due_date, owner_id, created_at, updated_at"

// defaultListLimit bounds list queries when the caller passes no limit.
const defaultListLimit = 100

// taskFilterColumns whitelists the fields accepted in store.Filters.
// Anything else is rejected instead of being interpolated into SQL.
var taskFilterColumns = map[string]string{
	"completed": "completed",
	"priority":  "priority",
	"owner_id":  "owner_id",
}

// TaskStore implements the store.TaskRepository interface
// using a PostgreSQL database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskRepository interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskRepository interface
var _ store.TaskRepository = (*TaskStore)(nil)

// WithTx returns a new TaskStore that runs all operations on the provided transaction.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskRepository {
	return &TaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskRepository.Create
// It persists a new task and returns it with the store-assigned ID and
// timestamps. Returns store.ErrInvalidEntity if the owner does not exist
// (foreign key violation).
func (s *TaskStore) Create(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(in)
	if err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", in.OwnerID))
		return nil, err
	}

	query := `
		INSERT INTO tasks (title, description, completed, priority, due_date, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + taskColumns

	row := s.db.QueryRowContext(
		ctx,
		query,
		task.Title,
		task.Description,
		task.Completed,
		task.Priority,
		nullTime(task.DueDate),
		task.OwnerID,
		task.CreatedAt,
		task.UpdatedAt,
	)

	created, err := scanTask(row)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during task creation",
				slog.String("error", err.Error()),
				slog.Int64("owner_id", task.OwnerID))
			return nil, fmt.Errorf("%w: owner with ID %d not found",
				store.ErrInvalidEntity, task.OwnerID)
		}
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", task.OwnerID))
		return nil, MapError(err)
	}

	log.Info("task created successfully",
		slog.Int64("task_id", created.ID),
		slog.Int64("owner_id", created.OwnerID),
		slog.String("priority", string(created.Priority)))
	return created, nil
}

// GetByID implements store.TaskRepository.GetByID
// Returns store.ErrTaskNotFound if the task does not exist.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	return task, nil
}

// List implements store.TaskRepository.List
// It retrieves tasks matching the equality filters, newest first.
func (s *TaskStore) List(ctx context.Context, skip, limit int, filters store.Filters) ([]*domain.Task, error) {
	conds, args, err := filterConditions(nil, nil, filters)
	if err != nil {
		return nil, err
	}

	return s.queryTasks(ctx, conds, args, "created_at DESC, id DESC", skip, limit)
}

// Update implements store.TaskRepository.Update
// It applies only the fields present in the payload to the existing task,
// refreshes UpdatedAt, and returns the row as persisted.
func (s *TaskStore) Update(ctx context.Context, existing *domain.Task, in domain.TaskUpdate) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	updated := *existing
	if err := updated.Apply(in); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("task_id", existing.ID))
		return nil, err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, priority = $4, due_date = $5, updated_at = $6
		WHERE id = $7
		RETURNING ` + taskColumns

	row := s.db.QueryRowContext(
		ctx,
		query,
		updated.Title,
		updated.Description,
		updated.Completed,
		updated.Priority,
		nullTime(updated.DueDate),
		updated.UpdatedAt,
		updated.ID,
	)

	persisted, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found for update",
				slog.Int64("task_id", existing.ID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", existing.ID))
		return nil, MapError(err)
	}

	log.Info("task updated successfully",
		slog.Int64("task_id", persisted.ID))
	return persisted, nil
}

// Delete implements store.TaskRepository.Delete
// Reports true if a row was removed, false if no task existed under the ID.
func (s *TaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info("task deleted successfully", slog.Int64("task_id", id))
	}
	return rowsAffected > 0, nil
}

// Exists implements store.TaskRepository.Exists
func (s *TaskStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// Count implements store.TaskRepository.Count
func (s *TaskStore) Count(ctx context.Context, filters store.Filters) (int64, error) {
	conds, args, err := filterConditions(nil, nil, filters)
	if err != nil {
		return 0, err
	}

	return s.countTasks(ctx, conds, args)
}

// ListByOwner implements store.TaskRepository.ListByOwner
// It retrieves the owner's tasks, newest first.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID int64, skip, limit int, filters store.Filters) ([]*domain.Task, error) {
	conds, args, err := filterConditions(
		[]string{"owner_id = $1"}, []any{ownerID}, filters)
	if err != nil {
		return nil, err
	}

	return s.queryTasks(ctx, conds, args, "created_at DESC, id DESC", skip, limit)
}

// GetByOwnerAndID implements store.TaskRepository.GetByOwnerAndID
// Returns store.ErrTaskNotFound if the task does not exist or belongs to a
// different owner; the two cases are indistinguishable to the caller.
func (s *TaskStore) GetByOwnerAndID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND id = $2`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, ownerID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}

	return task, nil
}

// CountByOwner implements store.TaskRepository.CountByOwner
func (s *TaskStore) CountByOwner(ctx context.Context, ownerID int64, filters store.Filters) (int64, error) {
	conds, args, err := filterConditions(
		[]string{"owner_id = $1"}, []any{ownerID}, filters)
	if err != nil {
		return 0, err
	}

	return s.countTasks(ctx, conds, args)
}

// ListByStatus implements store.TaskRepository.ListByStatus
func (s *TaskStore) ListByStatus(ctx context.Context, ownerID int64, completed bool, skip, limit int) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		[]string{"owner_id = $1", "completed = $2"},
		[]any{ownerID, completed},
		"created_at DESC, id DESC", skip, limit)
}

// ListByPriority implements store.TaskRepository.ListByPriority
func (s *TaskStore) ListByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		[]string{"owner_id = $1", "priority = $2"},
		[]any{ownerID, priority},
		"created_at DESC, id DESC", skip, limit)
}

// ListOverdue implements store.TaskRepository.ListOverdue
// It retrieves pending tasks whose due date is in the past, most urgent first.
func (s *TaskStore) ListOverdue(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error) {
	return s.queryTasks(ctx,
		[]string{"owner_id = $1", "due_date < $2", "completed = FALSE"},
		[]any{ownerID, time.Now().UTC()},
		"due_date ASC", skip, limit)
}

// ListDueToday implements store.TaskRepository.ListDueToday
// The window is [today 00:00, tomorrow 00:00) in UTC.
func (s *TaskStore) ListDueToday(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	dayStart := startOfDayUTC(time.Now().UTC())
	dayEnd := dayStart.AddDate(0, 0, 1)

	return s.queryTasks(ctx,
		[]string{"owner_id = $1", "due_date >= $2", "due_date < $3", "completed = FALSE"},
		[]any{ownerID, dayStart, dayEnd},
		"due_date ASC", 0, 0)
}

// ListDueThisWeek implements store.TaskRepository.ListDueThisWeek
// The window covers today through seven days out, inclusive by date.
func (s *TaskStore) ListDueThisWeek(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	dayStart := startOfDayUTC(time.Now().UTC())
	weekEnd := dayStart.AddDate(0, 0, 8)

	return s.queryTasks(ctx,
		[]string{"owner_id = $1", "due_date >= $2", "due_date < $3", "completed = FALSE"},
		[]any{ownerID, dayStart, weekEnd},
		"due_date ASC", 0, 0)
}

// MarkCompleted implements store.TaskRepository.MarkCompleted
// Returns store.ErrTaskNotFound if the task is missing or not owned.
func (s *TaskStore) MarkCompleted(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.setCompleted(ctx, ownerID, id, true)
}

// MarkIncomplete implements store.TaskRepository.MarkIncomplete
// Returns store.ErrTaskNotFound if the task is missing or not owned.
func (s *TaskStore) MarkIncomplete(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.setCompleted(ctx, ownerID, id, false)
}

func (s *TaskStore) setCompleted(ctx context.Context, ownerID, id int64, completed bool) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET completed = $1, updated_at = $2
		WHERE owner_id = $3 AND id = $4
		RETURNING ` + taskColumns

	row := s.db.QueryRowContext(ctx, query, completed, time.Now().UTC(), ownerID, id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found for completion toggle",
				slog.Int64("task_id", id),
				slog.Int64("owner_id", ownerID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to toggle task completion",
			slog.String("error", err.Error()),
			slog.Int64("task_id", id))
		return nil, MapError(err)
	}

	log.Info("task completion updated",
		slog.Int64("task_id", task.ID),
		slog.Bool("completed", task.Completed))
	return task, nil
}

// BulkUpdatePriority implements store.TaskRepository.BulkUpdatePriority
// The predicate owner_id = ? AND id = ANY(?) is applied in a single
// statement; IDs that are missing or not owned simply match no row.
func (s *TaskStore) BulkUpdatePriority(ctx context.Context, ownerID int64, ids []int64, priority domain.Priority) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return []*domain.Task{}, nil
	}

	query := `
		UPDATE tasks
		SET priority = $1, updated_at = $2
		WHERE owner_id = $3 AND id = ANY($4)
		RETURNING ` + taskColumns

	rows, err := s.db.QueryContext(ctx, query, priority, time.Now().UTC(), ownerID, ids)
	if err != nil {
		log.Error("failed to bulk update task priority",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID),
			slog.Int("id_count", len(ids)))
		return nil, MapError(err)
	}

	tasks, err := collectTasks(rows, log)
	if err != nil {
		return nil, err
	}

	log.Info("bulk priority update applied",
		slog.Int64("owner_id", ownerID),
		slog.Int("requested", len(ids)),
		slog.Int("updated", len(tasks)),
		slog.String("priority", string(priority)))
	return tasks, nil
}

// BulkDelete implements store.TaskRepository.BulkDelete
// Removes every owned ID in the set in one statement and reports the count
// actually removed.
func (s *TaskStore) BulkDelete(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE owner_id = $1 AND id = ANY($2)`, ownerID, ids)
	if err != nil {
		log.Error("failed to bulk delete tasks",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID),
			slog.Int("id_count", len(ids)))
		return 0, MapError(err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("bulk delete applied",
		slog.Int64("owner_id", ownerID),
		slog.Int("requested", len(ids)),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

// Search implements store.TaskRepository.Search
// Matching is a case-insensitive substring test against title or
// description; ILIKE metacharacters in the query are escaped so they match
// literally.
func (s *TaskStore) Search(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error) {
	pattern := "%" + escapeLikePattern(query) + "%"

	return s.queryTasks(ctx,
		[]string{"owner_id = $1", `(title ILIKE $2 ESCAPE '\' OR description ILIKE $2 ESCAPE '\')`},
		[]any{ownerID, pattern},
		"created_at DESC, id DESC", skip, limit)
}

// ListWithFilters implements store.TaskRepository.ListWithFilters
// All set predicates are combined with AND.
func (s *TaskStore) ListWithFilters(ctx context.Context, ownerID int64, filter store.TaskFilter, skip, limit int) ([]*domain.Task, error) {
	conds := []string{"owner_id = $1"}
	args := []any{ownerID}

	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		conds = append(conds, fmt.Sprintf("completed = $%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		conds = append(conds, fmt.Sprintf("due_date >= $%d", len(args)))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		conds = append(conds, fmt.Sprintf("due_date <= $%d", len(args)))
	}

	return s.queryTasks(ctx, conds, args, "created_at DESC, id DESC", skip, limit)
}

// Stats implements store.TaskRepository.Stats
// All seven counts come back from one aggregate query so the table is
// never loaded into memory.
func (s *TaskStore) Stats(ctx context.Context, ownerID int64) (*store.TaskStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COUNT(*) FILTER (WHERE NOT completed),
			COUNT(*) FILTER (WHERE due_date < $2 AND NOT completed),
			COUNT(*) FILTER (WHERE priority = 'high'),
			COUNT(*) FILTER (WHERE priority = 'medium'),
			COUNT(*) FILTER (WHERE priority = 'low')
		FROM tasks
		WHERE owner_id = $1
	`

	var stats store.TaskStats
	err := s.db.QueryRowContext(ctx, query, ownerID, time.Now().UTC()).Scan(
		&stats.Total,
		&stats.Completed,
		&stats.Pending,
		&stats.Overdue,
		&stats.HighPriority,
		&stats.MediumPriority,
		&stats.LowPriority,
	)
	if err != nil {
		log.Error("failed to compute task stats",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", ownerID))
		return nil, MapError(err)
	}

	return &stats, nil
}

// CompletionRate implements store.TaskRepository.CompletionRate
// Defined as 0.0 when the owner has no tasks.
func (s *TaskStore) CompletionRate(ctx context.Context, ownerID int64) (float64, error) {
	var total, completed int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed) FROM tasks WHERE owner_id = $1`,
		ownerID,
	).Scan(&total, &completed)
	if err != nil {
		return 0, MapError(err)
	}

	if total == 0 {
		return 0.0, nil
	}
	return float64(completed) / float64(total), nil
}

// queryTasks runs a SELECT with the given conditions, ordering, and
// pagination, and collects the result rows.
func (s *TaskStore) queryTasks(ctx context.Context, conds []string, args []any, orderBy string, skip, limit int) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultListLimit
	}
	if skip < 0 {
		skip = 0
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return collectTasks(rows, log)
}

// countTasks runs a COUNT(*) with the given conditions.
func (s *TaskStore) countTasks(ctx context.Context, conds []string, args []any) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// filterConditions appends whitelisted equality filters to the given
// condition and argument lists. Unknown filter keys are an error, never
// silently dropped.
func filterConditions(conds []string, args []any, filters store.Filters) ([]string, []any, error) {
	for key, value := range filters {
		col, ok := taskFilterColumns[key]
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown filter field %q", store.ErrInvalidEntity, key)
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	return conds, args, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row in taskColumns order.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var priority string
	var dueDate sql.NullTime

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&dueDate,
		&task.OwnerID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	if dueDate.Valid {
		due := dueDate.Time.UTC()
		task.DueDate = &due
	}

	return &task, nil
}

// collectTasks drains rows into a slice, returning an empty slice rather
// than nil when nothing matched.
func collectTasks(rows *sql.Rows, log *slog.Logger) ([]*domain.Task, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return tasks, nil
}

// escapeLikePattern escapes the ILIKE metacharacters so user input matches
// literally inside a %...% pattern.
func escapeLikePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

// nullTime converts an optional time into its database/sql representation.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// startOfDayUTC truncates a time to midnight UTC.
func startOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
