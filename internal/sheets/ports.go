// Package sheets declares the spreadsheet mirror ports. The Google
// implementation lives in the google sub-package.
package sheets

import (
	"context"

	"bjt/internal/core"
)

// TransactionWriter appends one row per transaction and returns a
// reference to the written range.
type TransactionWriter interface {
	Append(ctx context.Context, t core.Transaction) (string, error)
}

// TransactionIndex lists the transaction IDs already present in the
// sheet.
type TransactionIndex interface {
	ListTransactionIDs(ctx context.Context) ([]string, error)
}
