package backend

import (
	"context"
	"fmt"
	"log/slog"

	"bjt/internal/ledger/memory"
	"bjt/internal/postgres"
	"bjt/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the configured store, running its migrations first.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	if config.MemoryPersistFile == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		store := memory.New()
		return &BackendResult{Store: store, Cleanup: store.Close}, nil
	}

	store, err := memory.NewFromFile(config.MemoryPersistFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory store: %w", err)
	}

	f.logger.Info("Initialized memory backend", "persist_file", config.MemoryPersistFile)
	return &BackendResult{Store: store, Cleanup: store.Close}, nil
}

// createSQLiteBackend opens the database file; the repository applies
// migrations on open.
func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Tracker: repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := postgres.Open(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
	}

	f.logger.Info("Initialized PostgreSQL backend")

	return &BackendResult{
		Store:   repo,
		Tracker: repo,
		Cleanup: repo.Close,
	}, nil
}
