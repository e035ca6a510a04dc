package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bjt/internal/core"
	"bjt/internal/ledger"
)

const uniqueViolation = "23505"

const transactionColumns = `id, date, asset_type, asset_name, rental_type, route,
	price, fuel_cost, driver_cost, trips, days, daily_cash`

const monthlyExpenseColumns = `id, year, month, staff_salary, night_guard_salary,
	electricity_bill, water_bill, internet_bill, other_expenses, total_expense`

// Repository implements ledger.Store on a *sql.DB speaking the postgres
// dialect.
type Repository struct {
	db *sql.DB
}

var (
	_ ledger.Store       = (*Repository)(nil)
	_ ledger.SyncTracker = (*Repository)(nil)
)

// NewRepository wraps an open handle. Migrations are not run.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) ListTransactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date BETWEEN $1 AND $2
		 ORDER BY date, seq`,
		period.Start().Time, period.End().Time)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	return t, err
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	fuel, driver := costArgs(t.OperationalCosts)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.Date.Time, string(t.AssetType), t.AssetName, string(t.RentalType), t.Route,
		t.Price, fuel, driver, t.Trips, t.Days, t.DailyCash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("transaction %s: %w", t.ID, ledger.ErrConflict)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", t.ID,
		"date", t.Date.String(),
		"asset_type", t.AssetType)
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	fuel, driver := costArgs(t.OperationalCosts)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = $2, asset_type = $3, asset_name = $4, rental_type = $5,
		 route = $6, price = $7, fuel_cost = $8, driver_cost = $9, trips = $10, days = $11,
		 daily_cash = $12, sync_status = 'pending', updated_at = now()
		 WHERE id = $1`,
		t.ID, t.Date.Time, string(t.AssetType), t.AssetName, string(t.RentalType), t.Route,
		t.Price, fuel, driver, t.Trips, t.Days, t.DailyCash)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOne(res, "transaction "+t.ID)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res, "transaction "+id)
}

func (r *Repository) GetMonthlyExpense(ctx context.Context, period core.Period) (*core.MonthlyExpense, error) {
	var e core.MonthlyExpense
	err := r.db.QueryRowContext(ctx,
		`SELECT `+monthlyExpenseColumns+` FROM monthly_expenses WHERE year = $1 AND month = $2`,
		period.Year, period.Month).Scan(
		&e.ID, &e.Year, &e.Month,
		&e.StaffSalary, &e.NightGuardSalary, &e.ElectricityBill,
		&e.WaterBill, &e.InternetBill, &e.OtherExpenses, &e.TotalExpense)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get monthly expense: %w", err)
	}
	return &e, nil
}

func (r *Repository) UpsertMonthlyExpense(ctx context.Context, e core.MonthlyExpense) (core.MonthlyExpense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO monthly_expenses (`+monthlyExpenseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (year, month) DO UPDATE SET
		   staff_salary = EXCLUDED.staff_salary,
		   night_guard_salary = EXCLUDED.night_guard_salary,
		   electricity_bill = EXCLUDED.electricity_bill,
		   water_bill = EXCLUDED.water_bill,
		   internet_bill = EXCLUDED.internet_bill,
		   other_expenses = EXCLUDED.other_expenses,
		   total_expense = EXCLUDED.total_expense,
		   updated_at = now()
		 RETURNING id`,
		e.ID, e.Year, e.Month,
		e.StaffSalary, e.NightGuardSalary, e.ElectricityBill,
		e.WaterBill, e.InternetBill, e.OtherExpenses, e.TotalExpense).Scan(&e.ID)
	if err != nil {
		return core.MonthlyExpense{}, fmt.Errorf("upsert monthly expense: %w", err)
	}
	return e, nil
}

func (r *Repository) DeleteMonthlyExpense(ctx context.Context, period core.Period) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_expenses WHERE year = $1 AND month = $2`, period.Year, period.Month)
	if err != nil {
		return fmt.Errorf("delete monthly expense: %w", err)
	}
	return affectedOne(res, "monthly expense "+period.String())
}

func (r *Repository) ListAssets(ctx context.Context) ([]core.Asset, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT asset_type, name, plate FROM assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Asset, 0)
	for rows.Next() {
		var a core.Asset
		var assetType string
		if err := rows.Scan(&assetType, &a.Name, &a.Plate); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		a.Type = core.AssetType(assetType)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) SeedAssets(ctx context.Context, assets []core.Asset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (asset_type, name, plate) VALUES ($1, $2, $3)
			 ON CONFLICT (asset_type, name, plate) DO NOTHING`,
			string(a.Type), a.Name, a.Plate); err != nil {
			return fmt.Errorf("seed asset %s: %w", a.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

func (r *Repository) PendingSync(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE sync_status <> 'synced' ORDER BY seq LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

func (r *Repository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s rowScanner) (core.Transaction, error) {
	var (
		t                 core.Transaction
		date              time.Time
		assetType, rental string
		fuel, driver      decimal.NullDecimal
	)
	err := s.Scan(&t.ID, &date, &assetType, &t.AssetName, &rental, &t.Route,
		&t.Price, &fuel, &driver, &t.Trips, &t.Days, &t.DailyCash)
	if errors.Is(err, sql.ErrNoRows) {
		return t, err
	}
	if err != nil {
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	t.Date = core.NewDate(date.Year(), int(date.Month()), date.Day())
	t.AssetType = core.AssetType(assetType)
	t.RentalType = core.RentalType(rental)
	if fuel.Valid || driver.Valid {
		t.OperationalCosts = &core.OperationalCosts{Fuel: fuel.Decimal, Driver: driver.Decimal}
	}
	return t, nil
}

func costArgs(c *core.OperationalCosts) (fuel, driver decimal.NullDecimal) {
	if c == nil {
		return
	}
	return decimal.NewNullDecimal(c.Fuel), decimal.NewNullDecimal(c.Driver)
}

func affectedOne(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ledger.ErrNotFound)
	}
	return nil
}
