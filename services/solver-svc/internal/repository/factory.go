package repository

import (
	"context"
	"fmt"

	"netsimplex/migrations"
	"netsimplex/pkg/config"
	"netsimplex/pkg/database"
	"netsimplex/pkg/logger"
)

// Repositories контейнер репозиториев
type Repositories struct {
	Runs RunRepository
	db   *database.PostgresDB // Для закрытия при shutdown
}

// Close закрывает соединения
func (r *Repositories) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// NewRepositories создаёт репозитории на основе конфигурации. При
// выключенной базе история хранится в памяти процесса.
func NewRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	if !cfg.Enabled {
		return &Repositories{Runs: NewMemoryRunRepository()}, nil
	}

	switch cfg.Driver {
	case "postgres", "postgresql", "":
		return newPostgresRepositories(ctx, cfg)
	case "memory":
		return &Repositories{Runs: NewMemoryRunRepository()}, nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", cfg.Driver)
	}
}

func newPostgresRepositories(ctx context.Context, cfg *config.DatabaseConfig) (*Repositories, error) {
	db, err := database.NewPostgresDB(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, db.Pool(), cfg, migrations.PostgresMigrations, "postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("Run history stored in postgres", "host", cfg.Host, "database", cfg.Database)

	return &Repositories{
		Runs: NewPostgresRunRepository(db),
		db:   db,
	}, nil
}
