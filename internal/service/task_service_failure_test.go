package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/store"
)

var errDown = errors.New("connection refused")

func newMockedService(t *testing.T, tasks *mocks.MockTaskRepository) TaskService {
	t.Helper()

	owners := mocks.NewMockOwnerRepository()
	owners.Seed([]*domain.Owner{{ID: 1, DisplayName: "Ada"}})

	svc, err := NewTaskService(tasks, owners, nil, slog.Default(), config.TaskConfig{MaxOpenTasks: 10})
	require.NoError(t, err)
	return svc
}

func TestCreateTaskWrapsCountFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	tasks.CountByOwnerFn = func(ctx context.Context, ownerID int64, filters store.Filters) (int64, error) {
		return 0, errDown
	}
	svc := newMockedService(t, tasks)

	_, err := svc.CreateTask(ctx, domain.TaskCreate{Title: "x", OwnerID: 1})
	require.Error(t, err)

	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "create", svcErr.Operation)
	assert.ErrorIs(t, err, errDown)
}

func TestCreateTaskPropagatesConstraintViolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	tasks.CreateFn = func(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
		return nil, store.ErrInvalidEntity
	}
	svc := newMockedService(t, tasks)

	_, err := svc.CreateTask(ctx, domain.TaskCreate{Title: "x", OwnerID: 1})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	// Constraint errors pass through unwrapped in a TaskServiceError.
	var svcErr *TaskServiceError
	assert.False(t, errors.As(err, &svcErr))
}

func TestCreateTaskWrapsOwnerLookupFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	owners := mocks.NewMockOwnerRepository()
	owners.GetByIDFn = func(ctx context.Context, id int64) (*domain.Owner, error) {
		return nil, errDown
	}

	svc, err := NewTaskService(tasks, owners, nil, slog.Default(), config.TaskConfig{MaxOpenTasks: 10})
	require.NoError(t, err)

	_, err = svc.CreateTask(ctx, domain.TaskCreate{Title: "x", OwnerID: 1})
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.ErrorIs(t, err, errDown)
}

func TestGetTaskStatisticsWrapsRepositoryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	tasks.StatsFn = func(ctx context.Context, ownerID int64) (*store.TaskStats, error) {
		return nil, errDown
	}
	svc := newMockedService(t, tasks)

	_, err := svc.GetTaskStatistics(ctx, 1)
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "statistics", svcErr.Operation)
}

func TestGetProductivityInsightsWrapsRepositoryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	tasks.ListOverdueFn = func(ctx context.Context, ownerID int64, skip, limit int) ([]*domain.Task, error) {
		return nil, errDown
	}
	svc := newMockedService(t, tasks)

	_, err := svc.GetProductivityInsights(ctx, 1)
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "insights", svcErr.Operation)
}

func TestDeleteTaskWrapsRepositoryFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tasks := mocks.NewMockTaskRepository()
	tasks.Seed([]*domain.Task{{ID: 1, Title: "x", Priority: domain.PriorityLow, OwnerID: 1}})
	tasks.DeleteFn = func(ctx context.Context, id int64) (bool, error) {
		return false, errDown
	}
	svc := newMockedService(t, tasks)

	err := svc.DeleteTask(ctx, 1, 1)
	var svcErr *TaskServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "delete", svcErr.Operation)
}
