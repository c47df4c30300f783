package store

import (
	"context"

	"github.com/phrazzld/tasker-api/internal/domain"
)

// OwnerRepository is the minimal lookup capability the task service uses
// to verify an owner exists before attaching tasks to it. Account
// management beyond this lives outside the core.
type OwnerRepository interface {
	// GetByID retrieves an owner by ID.
	// Returns ErrOwnerNotFound if the owner does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Owner, error)
}
