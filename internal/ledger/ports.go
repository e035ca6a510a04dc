// Package ledger defines the data provider ports the report and services
// read from and write to. Adapters live in sub-packages.
package ledger

import (
	"context"
	"errors"

	"bjt/internal/core"
)

// ErrNotFound is returned when a record addressed by ID or period does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when creating a record whose ID is taken.
var ErrConflict = errors.New("already exists")

// Ports for outbound adapters.
type (
	TransactionReader interface {
		// ListTransactions returns every transaction dated within period,
		// ordered by date then insertion.
		ListTransactions(ctx context.Context, period core.Period) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	MonthlyExpenseReader interface {
		// GetMonthlyExpense returns nil, nil when the period has no record.
		GetMonthlyExpense(ctx context.Context, period core.Period) (*core.MonthlyExpense, error)
	}

	MonthlyExpenseWriter interface {
		// UpsertMonthlyExpense stores e as the record of its period. An
		// existing record keeps its ID; the stored value is returned.
		UpsertMonthlyExpense(ctx context.Context, e core.MonthlyExpense) (core.MonthlyExpense, error)
		DeleteMonthlyExpense(ctx context.Context, period core.Period) error
	}

	// AssetCatalog holds the fleet shown in entry forms.
	AssetCatalog interface {
		ListAssets(ctx context.Context) ([]core.Asset, error)
		// SeedAssets inserts assets that are not present yet, keyed by
		// type, name and plate.
		SeedAssets(ctx context.Context, assets []core.Asset) error
	}

	// SyncTracker is implemented by stores that remember which
	// transactions reached the spreadsheet mirror.
	SyncTracker interface {
		PendingSync(ctx context.Context, limit int) ([]string, error)
		MarkSynced(ctx context.Context, id string) error
		MarkSyncError(ctx context.Context, id string) error
	}

	// Store is everything a backend provides.
	Store interface {
		TransactionReader
		TransactionWriter
		MonthlyExpenseReader
		MonthlyExpenseWriter
		AssetCatalog
		Ping(ctx context.Context) error
		Close() error
	}
)
