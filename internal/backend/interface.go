// Package backend selects and opens the ledger store named by the
// configuration.
package backend

import (
	"context"

	"bjt/internal/ledger"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the opened store and its cleanup function.
type BackendResult struct {
	Store ledger.Store
	// Tracker is nil for stores that do not record sync state.
	Tracker ledger.SyncTracker
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend; empty keeps data in memory only
	MemoryPersistFile string

	// SQLite
	SQLiteDBPath string

	// PostgreSQL
	PostgresURL string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
