package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bjt/internal/core"
	"bjt/internal/ledger"

	_ "modernc.org/sqlite"
)

const transactionColumns = `id, date, asset_type, asset_name, rental_type, route,
	price, fuel_cost, driver_cost, trips, days, daily_cash`

const monthlyExpenseColumns = `id, year, month, staff_salary, night_guard_salary,
	electricity_bill, water_bill, internet_bill, other_expenses, total_expense`

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.Store       = (*SQLiteRepository)(nil)
	_ ledger.SyncTracker = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListTransactions implements ledger.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context, period core.Period) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE date >= ? AND date <= ?
		 ORDER BY date, rowid`,
		period.Start().String(), period.End().String())
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

// GetTransaction implements ledger.TransactionReader
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	return t, err
}

// CreateTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	fuel, driver := costColumns(t.OperationalCosts)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Date.String(), string(t.AssetType), t.AssetName, string(t.RentalType), t.Route,
		t.Price.String(), fuel, driver, t.Trips, t.Days, t.DailyCash.String())
	if err != nil {
		if exists, _ := r.exists(ctx, t.ID); exists {
			return fmt.Errorf("transaction %s: %w", t.ID, ledger.ErrConflict)
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"date", t.Date.String(),
		"asset_type", t.AssetType,
		"asset_name", t.AssetName)
	return nil
}

// UpdateTransaction implements ledger.TransactionWriter. The row goes
// back to pending so the mirror picks up the new values.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	fuel, driver := costColumns(t.OperationalCosts)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, asset_type = ?, asset_name = ?, rental_type = ?,
		 route = ?, price = ?, fuel_cost = ?, driver_cost = ?, trips = ?, days = ?,
		 daily_cash = ?, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		t.Date.String(), string(t.AssetType), t.AssetName, string(t.RentalType), t.Route,
		t.Price.String(), fuel, driver, t.Trips, t.Days, t.DailyCash.String(), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOne(res, "transaction "+t.ID)
}

// DeleteTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res, "transaction "+id)
}

// GetMonthlyExpense implements ledger.MonthlyExpenseReader
func (r *SQLiteRepository) GetMonthlyExpense(ctx context.Context, period core.Period) (*core.MonthlyExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+monthlyExpenseColumns+` FROM monthly_expenses WHERE year = ? AND month = ?`,
		period.Year, period.Month)
	e, err := scanMonthlyExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpsertMonthlyExpense implements ledger.MonthlyExpenseWriter
func (r *SQLiteRepository) UpsertMonthlyExpense(ctx context.Context, e core.MonthlyExpense) (core.MonthlyExpense, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	var id string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO monthly_expenses (`+monthlyExpenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (year, month) DO UPDATE SET
		   staff_salary = excluded.staff_salary,
		   night_guard_salary = excluded.night_guard_salary,
		   electricity_bill = excluded.electricity_bill,
		   water_bill = excluded.water_bill,
		   internet_bill = excluded.internet_bill,
		   other_expenses = excluded.other_expenses,
		   total_expense = excluded.total_expense,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		e.ID, e.Year, e.Month,
		e.StaffSalary.String(), e.NightGuardSalary.String(), e.ElectricityBill.String(),
		e.WaterBill.String(), e.InternetBill.String(), e.OtherExpenses.String(),
		e.TotalExpense.String()).Scan(&id)
	if err != nil {
		return core.MonthlyExpense{}, fmt.Errorf("upsert monthly expense: %w", err)
	}
	e.ID = id
	return e, nil
}

// DeleteMonthlyExpense implements ledger.MonthlyExpenseWriter
func (r *SQLiteRepository) DeleteMonthlyExpense(ctx context.Context, period core.Period) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_expenses WHERE year = ? AND month = ?`, period.Year, period.Month)
	if err != nil {
		return fmt.Errorf("delete monthly expense: %w", err)
	}
	return affectedOne(res, "monthly expense "+period.String())
}

// ListAssets implements ledger.AssetCatalog
func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]core.Asset, error) {
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

// SeedAssets implements ledger.AssetCatalog
func (r *SQLiteRepository) SeedAssets(ctx context.Context, assets []core.Asset) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assets (asset_type, name, plate) VALUES (?, ?, ?)
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

// PendingSync returns the IDs of transactions not yet mirrored, oldest first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM transactions WHERE sync_status != 'synced' ORDER BY created_at, rowid LIMIT ?`, limit)
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

// MarkSynced marks a transaction as successfully mirrored
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction whose mirror attempt failed
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM transactions WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		date, assetType, rType string
		price, cash            decimal.Decimal
		fuel, driver           decimal.NullDecimal
	)
	err := s.Scan(&t.ID, &date, &assetType, &t.AssetName, &rType, &t.Route,
		&price, &fuel, &driver, &t.Trips, &t.Days, &cash)
	if errors.Is(err, sql.ErrNoRows) {
		return t, err
	}
	if err != nil {
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("transaction %s: %w", t.ID, err)
	}
	t.Date = d
	t.AssetType = core.AssetType(assetType)
	t.RentalType = core.RentalType(rType)
	t.Price = price
	t.DailyCash = cash
	if fuel.Valid || driver.Valid {
		t.OperationalCosts = &core.OperationalCosts{Fuel: fuel.Decimal, Driver: driver.Decimal}
	}
	return t, nil
}

func scanMonthlyExpense(s scanner) (core.MonthlyExpense, error) {
	var e core.MonthlyExpense
	err := s.Scan(&e.ID, &e.Year, &e.Month,
		&e.StaffSalary, &e.NightGuardSalary, &e.ElectricityBill,
		&e.WaterBill, &e.InternetBill, &e.OtherExpenses, &e.TotalExpense)
	if errors.Is(err, sql.ErrNoRows) {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scan monthly expense: %w", err)
	}
	return e, nil
}

func costColumns(c *core.OperationalCosts) (fuel, driver any) {
	if c == nil {
		return nil, nil
	}
	return c.Fuel.String(), c.Driver.String()
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
