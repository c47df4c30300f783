package mocks

import (
	"context"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/memory"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockOwnerRepository implements store.OwnerRepository for testing.
type MockOwnerRepository struct {
	*memory.OwnerStore

	GetByIDFn func(ctx context.Context, id int64) (*domain.Owner, error)
}

// NewMockOwnerRepository creates a mock backed by an empty in-memory store.
func NewMockOwnerRepository() *MockOwnerRepository {
	return &MockOwnerRepository{OwnerStore: memory.NewOwnerStore()}
}

// Ensure MockOwnerRepository implements store.OwnerRepository interface
var _ store.OwnerRepository = (*MockOwnerRepository)(nil)

func (m *MockOwnerRepository) GetByID(ctx context.Context, id int64) (*domain.Owner, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return m.OwnerStore.GetByID(ctx, id)
}
