// Package app is the composition root: it assembles repositories and the
// task service from configuration so embedding programs and tests get a
// fully wired stack from a single call.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	// Register the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/memory"
	"github.com/phrazzld/tasker-api/internal/platform/postgres"
	"github.com/phrazzld/tasker-api/internal/redact"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
)

const pingTimeout = 5 * time.Second

// Stores bundles the repositories for one backend. DB is nil for the
// in-memory backend.
type Stores struct {
	Tasks  store.TaskRepository
	Owners store.OwnerRepository
	DB     *sql.DB
}

// Close releases the backend's resources. Safe to call on the in-memory
// backend, where it is a no-op.
func (s *Stores) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// NewStores builds the repositories named by cfg.Backend.
//
// The postgres backend opens a connection pool and verifies connectivity
// before returning; the memory backend needs no external resources.
func NewStores(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Stores, error) {
	if log == nil {
		return nil, domain.NewValidationError("logger", "cannot be nil", domain.ErrValidation)
	}

	switch cfg.Backend {
	case "postgres":
		db, err := sql.Open("pgx", cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}

		log.InfoContext(ctx, "database connection established",
			slog.String("backend", cfg.Backend),
			slog.String("url", redact.URL(cfg.URL)))
		return &Stores{
			Tasks:  postgres.NewTaskStore(db, log),
			Owners: postgres.NewOwnerStore(db, log),
			DB:     db,
		}, nil

	case "memory":
		log.InfoContext(ctx, "using in-memory stores",
			slog.String("backend", cfg.Backend))
		return &Stores{
			Tasks:  memory.NewTaskStore(),
			Owners: memory.NewOwnerStore(),
		}, nil

	default:
		return nil, domain.NewValidationError("database.backend",
			fmt.Sprintf("unknown backend %q", cfg.Backend), domain.ErrValidation)
	}
}

// NewTaskService assembles the task service over the configured backend.
// The returned Stores must be closed by the caller when done.
func NewTaskService(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.TaskService, *Stores, error) {
	stores, err := NewStores(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}

	svc, err := service.NewTaskService(stores.Tasks, stores.Owners, stores.DB, log, cfg.Task)
	if err != nil {
		_ = stores.Close()
		return nil, nil, err
	}
	return svc, stores, nil
}
