package memory

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// OwnerStore implements store.OwnerRepository with an in-process map.
type OwnerStore struct {
	mu     sync.RWMutex
	owners map[int64]*domain.Owner
	nextID int64
}

// NewOwnerStore creates an empty in-memory owner store.
func NewOwnerStore() *OwnerStore {
	return &OwnerStore{
		owners: make(map[int64]*domain.Owner),
		nextID: 1,
	}
}

// Ensure OwnerStore implements store.OwnerRepository interface
var _ store.OwnerRepository = (*OwnerStore)(nil)

// Seed bulk-inserts owner fixtures, assigning IDs where missing.
// Test affordance, not part of the repository contract.
func (s *OwnerStore) Seed(owners []*domain.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, o := range owners {
		owner := *o
		if owner.ID == 0 {
			owner.ID = s.nextID
			s.nextID++
		} else if owner.ID >= s.nextID {
			s.nextID = owner.ID + 1
		}
		if owner.CreatedAt.IsZero() {
			owner.CreatedAt = now
		}
		if owner.UpdatedAt.IsZero() {
			owner.UpdatedAt = owner.CreatedAt
		}
		s.owners[owner.ID] = &owner
	}
}

// Clear removes all owners and resets the ID counter.
func (s *OwnerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.owners = make(map[int64]*domain.Owner)
	s.nextID = 1
}

// GetByID implements store.OwnerRepository.GetByID
func (s *OwnerStore) GetByID(ctx context.Context, id int64) (*domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owner, ok := s.owners[id]
	if !ok {
		return nil, store.ErrOwnerNotFound
	}

	c := *owner
	return &c, nil
}
