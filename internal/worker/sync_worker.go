// Package worker mirrors stored transactions to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"bjt/internal/amqp"
	"bjt/internal/core"
	"bjt/internal/ledger"
	"bjt/internal/sheets"
)

// SyncWorker appends transactions to the sheet as ledger events arrive.
// Rows are append-only: an update appends a row only when the sheet does
// not hold the transaction yet, and a delete is skipped.
type SyncWorker struct {
	store     ledger.TransactionReader
	tracker   ledger.SyncTracker
	sheets    sheets.TransactionWriter
	index     sheets.TransactionIndex
	batchSize int
}

// NewSyncWorker wires the worker. tracker may be nil for stores that do
// not record sync state; index may be nil when the sheet cannot be read
// back.
func NewSyncWorker(store ledger.TransactionReader, tracker ledger.SyncTracker, writer sheets.TransactionWriter, index sheets.TransactionIndex, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		store:     store,
		tracker:   tracker,
		sheets:    writer,
		index:     index,
		batchSize: batchSize,
	}
}

// HandleEvent processes one ledger event from AMQP. An error asks the
// consumer to redeliver.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	if !event.IsTransaction() {
		slog.DebugContext(ctx, "Ignoring non-transaction event",
			"type", event.Type,
			"period", event.Period)
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger event",
		"type", event.Type,
		"id", event.ID)

	if event.Type == amqp.EventTransactionDeleted {
		slog.InfoContext(ctx, "Sheet rows are append-only, skipping delete",
			"id", event.ID,
			"period", event.Period)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, event.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		// Deleted before we got to it.
		slog.WarnContext(ctx, "Transaction no longer exists, skipping", "id", event.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if event.Type == amqp.EventTransactionUpdated && w.inSheet(ctx, t.ID) {
		slog.InfoContext(ctx, "Sheet already holds transaction, skipping update",
			"id", t.ID,
			"period", event.Period)
		w.markSynced(ctx, t.ID)
		return nil
	}

	if err := w.syncTransaction(ctx, t); err != nil {
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}
	return nil
}

// ProcessPendingTransactions syncs transactions whose events were lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	_, _, err := w.processPending(ctx, w.batchSize, nil)
	return err
}

// StartupSyncCheck syncs a larger backlog at startup. Transactions the
// sheet already holds are only marked synced, so a crash between append
// and mark does not duplicate rows.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	if w.tracker == nil {
		slog.InfoContext(ctx, "Store does not track sync state, skipping startup check")
		return nil
	}

	var present map[string]struct{}
	if w.index != nil {
		ids, err := w.index.ListTransactionIDs(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not read sheet ids, syncing without dedup", "error", err)
		} else {
			present = make(map[string]struct{}, len(ids))
			for _, id := range ids {
				present[id] = struct{}{}
			}
		}
	}

	synced, failed, err := w.processPending(ctx, w.batchSize*5, present)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) processPending(ctx context.Context, limit int, present map[string]struct{}) (synced, failed int, err error) {
	if w.tracker == nil {
		return 0, 0, nil
	}

	ids, err := w.tracker.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending transactions: %w", err)
	}
	if len(ids) == 0 {
		return 0, 0, nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(ids))

	for _, id := range ids {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}

		if _, ok := present[id]; ok {
			w.markSynced(ctx, id)
			synced++
			continue
		}

		t, err := w.store.GetTransaction(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", id, "error", err)
			w.markError(ctx, id)
			failed++
			continue
		}

		if err := w.syncTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction", "id", id, "error", err)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, t core.Transaction) error {
	ref, err := w.sheets.Append(ctx, t)
	if err != nil {
		w.markError(ctx, t.ID)
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row is written; a failed mark only means a later dedup.
	w.markSynced(ctx, t.ID)

	slog.InfoContext(ctx, "Synced transaction",
		"id", t.ID,
		"sheets_ref", ref,
		"asset", t.AssetName,
		"daily_cash", t.DailyCash.String())
	return nil
}

// inSheet reports whether the sheet already has a row for id. An
// unreadable sheet counts as not holding it.
func (w *SyncWorker) inSheet(ctx context.Context, id string) bool {
	if w.index == nil {
		return false
	}
	ids, err := w.index.ListTransactionIDs(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Could not read sheet ids, appending without dedup", "id", id, "error", err)
		return false
	}
	return slices.Contains(ids, id)
}

func (w *SyncWorker) markSynced(ctx context.Context, id string) {
	if w.tracker == nil {
		return
	}
	if err := w.tracker.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}
}

func (w *SyncWorker) markError(ctx context.Context, id string) {
	if w.tracker == nil {
		return
	}
	if err := w.tracker.MarkSyncError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
	}
}
