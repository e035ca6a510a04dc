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

type monthlyExpenseStore interface {
	ledger.MonthlyExpenseReader
	ledger.MonthlyExpenseWriter
}

// MonthlyExpenseService keeps the single fixed-cost record of each period.
type MonthlyExpenseService struct {
	store       monthlyExpenseStore
	publisher   EventPublisher
	invalidator ReportInvalidator
	logger      *applog.Logger
}

func NewMonthlyExpenseService(store monthlyExpenseStore, publisher EventPublisher, invalidator ReportInvalidator, logger *applog.Logger) *MonthlyExpenseService {
	if logger == nil {
		logger = applog.Default(applog.ComponentExpense)
	}
	return &MonthlyExpenseService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Upsert stores e as the record of its period. The total is recomputed
// from the components; an existing record keeps its ID.
func (s *MonthlyExpenseService) Upsert(ctx context.Context, e core.MonthlyExpense) (core.MonthlyExpense, error) {
	if err := e.Validate(); err != nil {
		return core.MonthlyExpense{}, invalid(err)
	}
	e = e.ComputeTotal()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	saved, err := s.store.UpsertMonthlyExpense(ctx, e)
	if err != nil {
		return core.MonthlyExpense{}, fmt.Errorf("upsert monthly expense: %w", err)
	}

	period := saved.Period()
	s.logger.InfoContext(ctx, "Monthly expense saved",
		applog.FieldOperation, applog.OpUpsert,
		applog.FieldPeriod, period.String(),
		applog.FieldAmount, saved.TotalExpense.String())

	s.changed(ctx, amqp.EventMonthlyExpenseUpserted, saved.ID, period)
	return saved, nil
}

// Get returns nil without error when the period has no record.
func (s *MonthlyExpenseService) Get(ctx context.Context, period core.Period) (*core.MonthlyExpense, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.store.GetMonthlyExpense(ctx, period)
}

func (s *MonthlyExpenseService) Delete(ctx context.Context, period core.Period) error {
	if err := period.Validate(); err != nil {
		return invalid(err)
	}
	existing, err := s.store.GetMonthlyExpense(ctx, period)
	if err != nil {
		return err
	}
	if existing == nil {
		return ledger.ErrNotFound
	}
	if err := s.store.DeleteMonthlyExpense(ctx, period); err != nil {
		return fmt.Errorf("delete monthly expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Monthly expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldPeriod, period.String())
	s.changed(ctx, amqp.EventMonthlyExpenseDeleted, existing.ID, period)
	return nil
}

func (s *MonthlyExpenseService) changed(ctx context.Context, t amqp.EventType, id string, period core.Period) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(period)
	}
	publish(ctx, s.publisher, amqp.NewLedgerEvent(t, id, period.String()))
}
