package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bjt/internal/amqp"
	"bjt/internal/core"
	"bjt/internal/ledger"
	applog "bjt/internal/log"
)

type transactionStore interface {
	ledger.TransactionReader
	ledger.TransactionWriter
}

// TransactionService turns entries into stored transactions. Every write
// publishes a ledger event and invalidates cached reports of the affected
// periods; neither can fail the write.
type TransactionService struct {
	store       transactionStore
	publisher   EventPublisher
	invalidator ReportInvalidator
	logger      *applog.StructuredLogger
	newID       func() string
}

func NewTransactionService(store transactionStore, publisher EventPublisher, invalidator ReportInvalidator, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.Default(applog.ComponentTransaction)
	}
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      applog.NewStructuredLogger(logger),
		newID:       uuid.NewString,
	}
}

// Create builds a transaction from the entry, assigns it an ID and stores it.
func (s *TransactionService) Create(ctx context.Context, e core.Entry) (core.Transaction, error) {
	t, err := e.Build()
	if err != nil {
		return core.Transaction{}, invalid(err)
	}
	t.ID = s.newID()

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.logger.LogTransactionSaved(ctx, applog.OpCreate, t)
	s.changed(ctx, amqp.EventTransactionCreated, t.ID, t.Date.Period())
	return t, nil
}

// Update replaces transaction id with one rebuilt from the entry. Daily
// cash is recomputed from the new values.
func (s *TransactionService) Update(ctx context.Context, id string, e core.Entry) (core.Transaction, error) {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	t, err := e.Build()
	if err != nil {
		return core.Transaction{}, invalid(err)
	}
	t.ID = old.ID

	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.LogTransactionSaved(ctx, applog.OpUpdate, t)
	s.changed(ctx, amqp.EventTransactionUpdated, t.ID, t.Date.Period())
	if oldPeriod := old.Date.Period(); oldPeriod != t.Date.Period() {
		s.invalidate(oldPeriod)
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, amqp.EventTransactionDeleted, id, old.Date.Period())
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) ListByPeriod(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid(err)
	}
	txs, err := s.store.ListTransactions(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) changed(ctx context.Context, t amqp.EventType, id string, period core.Period) {
	s.invalidate(period)
	publish(ctx, s.publisher, amqp.NewLedgerEvent(t, id, period.String()))
}

func (s *TransactionService) invalidate(period core.Period) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(period)
	}
}

// publish sends the event and only logs failures.
func publish(ctx context.Context, p EventPublisher, event *amqp.LedgerEvent) {
	if p == nil {
		applog.FromContext(ctx).DebugContext(ctx, "No event publisher, skipping ledger event", applog.FieldEventType, event.Type)
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to publish ledger event",
			applog.FieldEventType, event.Type,
			"id", event.ID,
			applog.FieldError, err)
	}
}
