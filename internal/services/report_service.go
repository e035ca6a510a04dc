package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bjt/internal/cache"
	"bjt/internal/core"
	"bjt/internal/ledger"
	applog "bjt/internal/log"
	"bjt/internal/report"
)

type reportStore interface {
	ledger.TransactionReader
	ledger.MonthlyExpenseReader
}

const reportKeyPrefix = "report:"

// ReportService computes period reports and keeps recent ones cached
// until a write to the period invalidates them.
type ReportService struct {
	store  reportStore
	cache  *cache.LRUCache[*report.Report]
	logger *applog.Logger

	// A report is only cached if no invalidation of its period (or of
	// everything) happened while it was being computed.
	mu         sync.Mutex
	generation map[core.Period]uint64
	epoch      uint64
}

type cacheStamp struct {
	generation uint64
	epoch      uint64
}

// NewReportService caches up to size reports for ttl. A size of zero
// disables caching.
func NewReportService(store reportStore, size int, ttl time.Duration, logger *applog.Logger) *ReportService {
	if logger == nil {
		logger = applog.Default(applog.ComponentReport)
	}
	s := &ReportService{store: store, logger: logger, generation: make(map[core.Period]uint64)}
	if size > 0 {
		s.cache = cache.NewLRUCache[*report.Report](size, ttl)
	}
	return s
}

// Cache exposes the report cache for registration with a cache.Manager.
// It is nil when caching is disabled.
func (s *ReportService) Cache() *cache.LRUCache[*report.Report] {
	return s.cache
}

// Build returns the report of period, fetching transactions and the
// monthly expense concurrently on a cache miss.
func (s *ReportService) Build(ctx context.Context, period core.Period) (*report.Report, error) {
	if err := period.Validate(); err != nil {
		return nil, invalid(err)
	}

	key := reportKey(period)
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}
	stamp := s.stamp(period)

	var (
		txs     []core.Transaction
		expense *core.MonthlyExpense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, period)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		expense, err = s.store.GetMonthlyExpense(gctx, period)
		if err != nil {
			return fmt.Errorf("fetch monthly expense: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var expenses []core.MonthlyExpense
	if expense != nil {
		expenses = append(expenses, *expense)
	}
	r := report.Compute(txs, expenses)

	s.logger.DebugContext(ctx, "Report computed",
		applog.FieldPeriod, period.String(),
		"transactions", len(txs),
		"balance", core.FormatRupiah(r.Balance()))

	s.remember(period, stamp, r)
	return r, nil
}

func (s *ReportService) stamp(period core.Period) cacheStamp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cacheStamp{generation: s.generation[period], epoch: s.epoch}
}

// remember caches r unless period was invalidated after stamp was taken.
func (s *ReportService) remember(period core.Period, stamp cacheStamp, r *report.Report) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation[period] != stamp.generation || s.epoch != stamp.epoch {
		s.logger.Debug("Report changed while computing, not cached", applog.FieldPeriod, period.String())
		return
	}
	s.cache.Set(reportKey(period), r)
}

// View builds the report of period and lays it out for display.
func (s *ReportService) View(ctx context.Context, period core.Period) (report.View, error) {
	r, err := s.Build(ctx, period)
	if err != nil {
		return report.View{}, err
	}
	return r.Summary(period), nil
}

// DailyTotals are the figures of a single day.
type DailyTotals struct {
	Date     core.Date       `json:"date"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Cash     decimal.Decimal `json:"cash"`
}

// Daily returns one day of period. Income is filtered by f, expenses by
// its asset name and cash by its asset type, matching the aggregator's
// daily queries.
func (s *ReportService) Daily(ctx context.Context, period core.Period, day int, f report.Filter) (DailyTotals, error) {
	if err := period.Validate(); err != nil {
		return DailyTotals{}, invalid(err)
	}
	if day < 1 || day > core.DaysInMonth(period.Year, period.Month) {
		return DailyTotals{}, invalid(fmt.Errorf("%w: %d", core.ErrInvalidDay, day))
	}

	r, err := s.Build(ctx, period)
	if err != nil {
		return DailyTotals{}, err
	}
	return DailyTotals{
		Date:     core.NewDate(period.Year, period.Month, day),
		Income:   r.DailyIncome(day, f),
		Expenses: r.DailyExpenses(day, f.AssetName),
		Cash:     r.DailyCash(day, f.AssetType),
	}, nil
}

// Invalidate drops the cached report of period.
func (s *ReportService) Invalidate(period core.Period) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation[period]++
	s.cache.Delete(reportKey(period))
}

// InvalidateAll drops every cached report.
func (s *ReportService) InvalidateAll() int {
	if s.cache == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.cache.DeletePrefix(reportKeyPrefix)
}

func reportKey(p core.Period) string {
	return reportKeyPrefix + p.String()
}
