package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// defaultListLimit mirrors the postgres implementation's bound for list
// queries when the caller passes no limit.
const defaultListLimit = 100

// TaskStore implements store.TaskRepository with a map keyed by task ID
// and a monotonic counter for ID assignment. The store object is owned by
// whoever constructs it; there is no process-wide state.
type TaskStore struct {
	mu     sync.RWMutex
	tasks  map[int64]*domain.Task
	nextID int64
}

// NewTaskStore creates an empty in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:  make(map[int64]*domain.Task),
		nextID: 1,
	}
}

// Ensure TaskStore implements store.TaskRepository interface
var _ store.TaskRepository = (*TaskStore)(nil)

// WithTx returns the store itself: the in-memory implementation has no
// transactions, and the contract only requires that operations keep working
// on the returned instance.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskRepository {
	return s
}

// Clear removes all tasks and resets the ID counter.
// Test affordance, not part of the repository contract.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[int64]*domain.Task)
	s.nextID = 1
}

// Seed bulk-inserts fixtures, assigning IDs to any task missing one and
// filling in zero timestamps. Test affordance, not part of the repository
// contract.
func (s *TaskStore) Seed(tasks []*domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range tasks {
		task := cloneTask(t)
		if task.ID == 0 {
			task.ID = s.nextID
			s.nextID++
		} else if task.ID >= s.nextID {
			s.nextID = task.ID + 1
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		if task.UpdatedAt.IsZero() {
			task.UpdatedAt = task.CreatedAt
		}
		s.tasks[task.ID] = task
	}
}

// Create implements store.TaskRepository.Create
func (s *TaskStore) Create(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
	task, err := domain.NewTask(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextID
	s.nextID++
	s.tasks[task.ID] = task

	return cloneTask(task), nil
}

// GetByID implements store.TaskRepository.GetByID
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// List implements store.TaskRepository.List
func (s *TaskStore) List(ctx context.Context, skip, limit int, filters store.Filters) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.selectTasks(func(t *domain.Task) bool { return true }, filters)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// Update implements store.TaskRepository.Update
func (s *TaskStore) Update(ctx context.Context, existing *domain.Task, in domain.TaskUpdate) (*domain.Task, error) {
	updated := cloneTask(existing)
	if err := updated.Apply(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[updated.ID]; !ok {
		return nil, store.ErrTaskNotFound
	}
	s.tasks[updated.ID] = cloneTask(updated)

	return updated, nil
}

// Delete implements store.TaskRepository.Delete
func (s *TaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

// Exists implements store.TaskRepository.Exists
func (s *TaskStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tasks[id]
	return ok, nil
}

// Count implements store.TaskRepository.Count
func (s *TaskStore) Count(ctx context.Context, filters store.Filters) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.selectTasks(func(t *domain.Task) bool { return true }, filters)
	if err != nil {
		return 0, err
	}
	return int64(len(tasks)), nil
}

// ListByOwner implements store.TaskRepository.ListByOwner
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID int64, skip, limit int, filters store.Filters) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.selectTasks(ownedBy(ownerID), filters)
	if err != nil {
		return nil, err
	}

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// GetByOwnerAndID implements store.TaskRepository.GetByOwnerAndID
// A task held by another owner is reported exactly like a missing one.
func (s *TaskStore) GetByOwnerAndID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// CountByOwner implements store.TaskRepository.CountByOwner
func (s *TaskStore) CountByOwner(ctx context.Context, ownerID int64, filters store.Filters) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, err := s.selectTasks(ownedBy(ownerID), filters)
	if err != nil {
		return 0, err
	}
	return int64(len(tasks)), nil
}

// ListByStatus implements store.TaskRepository.ListByStatus
func (s *TaskStore) ListByStatus(ctx context.Context, ownerID int64, completed bool, skip, limit int) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		return t.OwnerID == ownerID && t.Completed == completed
	}, nil)

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// ListByPriority implements store.TaskRepository.ListByPriority
func (s *TaskStore) ListByPriority(ctx context.Context, ownerID int64, priority domain.Priority, skip, limit int) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		return t.OwnerID == ownerID && t.Priority == priority
	}, nil)

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// ListOverdue implements store.TaskRepository.ListOverdue
func (s *TaskStore) ListOverdue(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error) {
	now := time.Now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		return t.OwnerID == ownerID && t.IsOverdue(now)
	}, nil)

	sortByDueDate(tasks)
	return paginate(tasks, skip, limit), nil
}

// ListDueToday implements store.TaskRepository.ListDueToday
func (s *TaskStore) ListDueToday(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	dayStart := startOfDayUTC(time.Now().UTC())
	dayEnd := dayStart.AddDate(0, 0, 1)

	return s.listDueWindow(ownerID, dayStart, dayEnd)
}

// ListDueThisWeek implements store.TaskRepository.ListDueThisWeek
func (s *TaskStore) ListDueThisWeek(ctx context.Context, ownerID int64) ([]*domain.Task, error) {
	dayStart := startOfDayUTC(time.Now().UTC())
	weekEnd := dayStart.AddDate(0, 0, 8)

	return s.listDueWindow(ownerID, dayStart, weekEnd)
}

func (s *TaskStore) listDueWindow(ownerID int64, from, to time.Time) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		return t.OwnerID == ownerID &&
			!t.Completed &&
			t.DueDate != nil &&
			!t.DueDate.Before(from) &&
			t.DueDate.Before(to)
	}, nil)

	sortByDueDate(tasks)
	return tasks, nil
}

// MarkCompleted implements store.TaskRepository.MarkCompleted
func (s *TaskStore) MarkCompleted(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.setCompleted(ownerID, id, true)
}

// MarkIncomplete implements store.TaskRepository.MarkIncomplete
func (s *TaskStore) MarkIncomplete(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	return s.setCompleted(ownerID, id, false)
}

func (s *TaskStore) setCompleted(ownerID, id int64, completed bool) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}

	task.Completed = completed
	task.UpdatedAt = time.Now().UTC()
	return cloneTask(task), nil
}

// BulkUpdatePriority implements store.TaskRepository.BulkUpdatePriority
// Row-by-row, best effort: missing or foreign IDs are skipped.
func (s *TaskStore) BulkUpdatePriority(ctx context.Context, ownerID int64, ids []int64, priority domain.Priority) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	updated := []*domain.Task{}
	for _, id := range ids {
		task, ok := s.tasks[id]
		if !ok || task.OwnerID != ownerID {
			continue
		}
		task.Priority = priority
		task.UpdatedAt = now
		updated = append(updated, cloneTask(task))
	}

	return updated, nil
}

// BulkDelete implements store.TaskRepository.BulkDelete
func (s *TaskStore) BulkDelete(ctx context.Context, ownerID int64, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		task, ok := s.tasks[id]
		if !ok || task.OwnerID != ownerID {
			continue
		}
		delete(s.tasks, id)
		deleted++
	}

	return deleted, nil
}

// Search implements store.TaskRepository.Search
func (s *TaskStore) Search(ctx context.Context, ownerID int64, query string, skip, limit int) ([]*domain.Task, error) {
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		return t.OwnerID == ownerID &&
			(strings.Contains(strings.ToLower(t.Title), needle) ||
				strings.Contains(strings.ToLower(t.Description), needle))
	}, nil)

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// ListWithFilters implements store.TaskRepository.ListWithFilters
func (s *TaskStore) ListWithFilters(ctx context.Context, ownerID int64, filter store.TaskFilter, skip, limit int) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks, _ := s.selectTasks(func(t *domain.Task) bool {
		if t.OwnerID != ownerID {
			return false
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			return false
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			return false
		}
		if filter.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*filter.DueFrom)) {
			return false
		}
		if filter.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*filter.DueTo)) {
			return false
		}
		return true
	}, nil)

	sortNewestFirst(tasks)
	return paginate(tasks, skip, limit), nil
}

// Stats implements store.TaskRepository.Stats
func (s *TaskStore) Stats(ctx context.Context, ownerID int64) (*store.TaskStats, error) {
	now := time.Now().UTC()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats store.TaskStats
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		stats.Total++
		if t.Completed {
			stats.Completed++
		} else {
			stats.Pending++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		switch t.Priority {
		case domain.PriorityHigh:
			stats.HighPriority++
		case domain.PriorityMedium:
			stats.MediumPriority++
		case domain.PriorityLow:
			stats.LowPriority++
		}
	}

	return &stats, nil
}

// CompletionRate implements store.TaskRepository.CompletionRate
func (s *TaskStore) CompletionRate(ctx context.Context, ownerID int64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, completed int64
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}

	if total == 0 {
		return 0.0, nil
	}
	return float64(completed) / float64(total), nil
}

// selectTasks collects clones of every task passing both the predicate and
// the equality filters. Callers must hold at least the read lock.
func (s *TaskStore) selectTasks(keep func(*domain.Task) bool, filters store.Filters) ([]*domain.Task, error) {
	matcher, err := filterMatcher(filters)
	if err != nil {
		return nil, err
	}

	tasks := []*domain.Task{}
	for _, t := range s.tasks {
		if keep(t) && matcher(t) {
			tasks = append(tasks, cloneTask(t))
		}
	}
	return tasks, nil
}

// filterMatcher compiles equality filters into a predicate, honoring the
// same field whitelist as the postgres implementation.
func filterMatcher(filters store.Filters) (func(*domain.Task) bool, error) {
	if len(filters) == 0 {
		return func(*domain.Task) bool { return true }, nil
	}

	preds := make([]func(*domain.Task) bool, 0, len(filters))
	for key, value := range filters {
		switch key {
		case "completed":
			want, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: filter %q wants a bool", store.ErrInvalidEntity, key)
			}
			preds = append(preds, func(t *domain.Task) bool { return t.Completed == want })
		case "priority":
			want, err := priorityValue(value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, func(t *domain.Task) bool { return t.Priority == want })
		case "owner_id":
			want, ok := value.(int64)
			if !ok {
				return nil, fmt.Errorf("%w: filter %q wants an int64", store.ErrInvalidEntity, key)
			}
			preds = append(preds, func(t *domain.Task) bool { return t.OwnerID == want })
		default:
			return nil, fmt.Errorf("%w: unknown filter field %q", store.ErrInvalidEntity, key)
		}
	}

	return func(t *domain.Task) bool {
		for _, pred := range preds {
			if !pred(t) {
				return false
			}
		}
		return true
	}, nil
}

func priorityValue(v any) (domain.Priority, error) {
	switch p := v.(type) {
	case domain.Priority:
		return p, nil
	case string:
		return domain.Priority(p), nil
	default:
		return "", fmt.Errorf("%w: filter \"priority\" wants a priority value", store.ErrInvalidEntity)
	}
}

func ownedBy(ownerID int64) func(*domain.Task) bool {
	return func(t *domain.Task) bool { return t.OwnerID == ownerID }
}

// sortNewestFirst orders created_at descending with ID descending as the
// tie-break, matching the postgres ORDER BY.
func sortNewestFirst(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// sortByDueDate orders due_date ascending with ID ascending as the tie-break.
func sortByDueDate(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].DueDate.Equal(*tasks[j].DueDate) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].DueDate.Before(*tasks[j].DueDate)
	})
}

func paginate(tasks []*domain.Task, skip, limit int) []*domain.Task {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if skip < 0 {
		skip = 0
	}
	if skip >= len(tasks) {
		return []*domain.Task{}
	}
	end := skip + limit
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[skip:end]
}

// cloneTask copies a task so callers never alias the store's internal state.
func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	return &c
}

func startOfDayUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
