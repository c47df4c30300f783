package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// OwnerStore implements the store.OwnerRepository interface
// using a PostgreSQL database as the storage backend.
type OwnerStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewOwnerStore creates a new PostgreSQL implementation of the OwnerRepository interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewOwnerStore(db store.DBTX, logger *slog.Logger) *OwnerStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &OwnerStore{
		db:     db,
		logger: logger.With(slog.String("component", "owner_store")),
	}
}

// Ensure OwnerStore implements store.OwnerRepository interface
var _ store.OwnerRepository = (*OwnerStore)(nil)

// GetByID implements store.OwnerRepository.GetByID
// Returns store.ErrOwnerNotFound if the owner does not exist.
func (s *OwnerStore) GetByID(ctx context.Context, id int64) (*domain.Owner, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, display_name, created_at, updated_at
		FROM owners
		WHERE id = $1
	`

	var owner domain.Owner
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&owner.ID,
		&owner.DisplayName,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("owner not found", slog.Int64("owner_id", id))
			return nil, store.ErrOwnerNotFound
		}
		log.Error("failed to get owner by ID",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", id))
		return nil, MapError(err)
	}

	return &owner, nil
}
