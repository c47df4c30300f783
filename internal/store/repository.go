package store

import "context"

// Filters is a set of equality predicates keyed by field name.
// Implementations only honor the fields they know about; unknown keys are
// rejected with an error rather than silently dropped.
type Filters map[string]any

// Repository defines generic CRUD operations over an entity type T with a
// creation payload C and a partial-update payload U. Implementations never
// retry internally; failures propagate to the caller unchanged.
type Repository[T, C, U any] interface {
	// Create persists a new entity built from the payload and returns it
	// with store-assigned fields (ID, timestamps) populated.
	Create(ctx context.Context, in C) (*T, error)

	// GetByID retrieves an entity by its unique ID.
	// Returns ErrNotFound (or an entity-specific wrapper) if it does not exist.
	GetByID(ctx context.Context, id int64) (*T, error)

	// List retrieves entities matching the equality filters, paginated by
	// skip/limit.
	List(ctx context.Context, skip, limit int, filters Filters) ([]*T, error)

	// Update applies only the fields present in the payload to the existing
	// entity and persists the result. UpdatedAt is always refreshed. The
	// returned entity reflects the persisted state.
	Update(ctx context.Context, existing *T, in U) (*T, error)

	// Delete removes an entity by ID. Reports true if a row was removed,
	// false if nothing existed under that ID.
	Delete(ctx context.Context, id int64) (bool, error)

	// Exists reports whether an entity with the given ID is present.
	Exists(ctx context.Context, id int64) (bool, error)

	// Count returns the number of entities matching the filters.
	Count(ctx context.Context, filters Filters) (int64, error)
}

// OwnerScopedRepository extends Repository with read paths implicitly
// filtered by an owning identity.
//
// Contract guarantee: an entity owned by A is never returned, counted,
// updated, or deleted through a call scoped to owner B, even when the raw
// ID is known.
type OwnerScopedRepository[T, C, U any] interface {
	Repository[T, C, U]

	// ListByOwner retrieves the owner's entities, newest first.
	ListByOwner(ctx context.Context, ownerID int64, skip, limit int, filters Filters) ([]*T, error)

	// GetByOwnerAndID retrieves a single entity if and only if it belongs
	// to the owner. Returns ErrNotFound otherwise.
	GetByOwnerAndID(ctx context.Context, ownerID, id int64) (*T, error)

	// CountByOwner returns the number of the owner's entities matching the filters.
	CountByOwner(ctx context.Context, ownerID int64, filters Filters) (int64, error)
}
