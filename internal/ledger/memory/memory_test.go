package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"bjt/internal/core"
	"bjt/internal/ledger"
)

func tx(id string, day int, price int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		Date:      core.NewDate(2024, 3, day),
		AssetType: core.AssetSpeedboat,
		AssetName: "Speed Boat BJT 01",
		Price:     decimal.NewFromInt(price),
		Trips:     1,
		DailyCash: decimal.NewFromInt(10000),
	}
}

func TestTransactionsByPeriod(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, x := range []core.Transaction{tx("b", 9, 2), tx("a", 3, 1), tx("c", 9, 3)} {
		if err := s.CreateTransaction(ctx, x); err != nil {
			t.Fatalf("create %s: %v", x.ID, err)
		}
	}
	other := tx("d", 1, 4)
	other.Date = core.NewDate(2024, 4, 1)
	if err := s.CreateTransaction(ctx, other); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ListTransactions(ctx, core.Period{Year: 2024, Month: 3})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}

	empty, _ := s.ListTransactions(ctx, core.Period{Year: 2023, Month: 3})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}

	if err := s.CreateTransaction(ctx, tx("a", 1, 1)); !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.UpdateTransaction(ctx, tx("x", 1, 1)); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteTransaction(ctx, "x"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "x"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}

	_ = s.CreateTransaction(ctx, tx("x", 1, 1))
	if err := s.UpdateTransaction(ctx, tx("x", 2, 5)); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetTransaction(ctx, "x")
	if got.Date.Day() != 2 || !got.Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("update not applied: %+v", got)
	}
	if err := s.DeleteTransaction(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestReturnedTransactionsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	x := tx("x", 1, 1)
	x.AssetType = core.AssetCar
	x.RentalType = core.RentalDrop
	x.OperationalCosts = &core.OperationalCosts{Fuel: decimal.NewFromInt(7)}
	_ = s.CreateTransaction(ctx, x)

	x.OperationalCosts.Fuel = decimal.NewFromInt(99)
	got, _ := s.GetTransaction(ctx, "x")
	got.OperationalCosts.Fuel = decimal.NewFromInt(42)

	again, _ := s.GetTransaction(ctx, "x")
	if !again.OperationalCosts.Fuel.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("store aliased caller memory: %s", again.OperationalCosts.Fuel)
	}
}

func TestMonthlyExpenseUpsertKeepsID(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := core.Period{Year: 2024, Month: 3}

	if e, err := s.GetMonthlyExpense(ctx, p); err != nil || e != nil {
		t.Fatalf("expected nil, got %+v %v", e, err)
	}

	first, err := s.UpsertMonthlyExpense(ctx, core.MonthlyExpense{Year: 2024, Month: 3, TotalExpense: decimal.NewFromInt(1)})
	if err != nil || first.ID == "" {
		t.Fatalf("upsert: %+v %v", first, err)
	}
	second, _ := s.UpsertMonthlyExpense(ctx, core.MonthlyExpense{ID: "other", Year: 2024, Month: 3, TotalExpense: decimal.NewFromInt(2)})
	if second.ID != first.ID {
		t.Fatalf("id changed: %s -> %s", first.ID, second.ID)
	}
	got, _ := s.GetMonthlyExpense(ctx, p)
	if got == nil || !got.TotalExpense.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := s.DeleteMonthlyExpense(ctx, p); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteMonthlyExpense(ctx, p); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSeedAssetsDedupe(t *testing.T) {
	ctx := context.Background()
	s := New()
	all := core.DefaultCatalog().All()
	if err := s.SeedAssets(ctx, all); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.SeedAssets(ctx, all[:3]); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	got, _ := s.ListAssets(ctx)
	if len(got) != len(all) {
		t.Fatalf("expected %d assets, got %d", len(all), len(got))
	}
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = s.CreateTransaction(ctx, tx("a", 5, 100))
	_, _ = s.UpsertMonthlyExpense(ctx, core.MonthlyExpense{Year: 2024, Month: 3, TotalExpense: decimal.NewFromInt(9)})
	_ = s.SeedAssets(ctx, core.DefaultCatalog().Speedboats)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	txs, _ := reopened.ListTransactions(ctx, core.Period{Year: 2024, Month: 3})
	if len(txs) != 1 || !txs[0].Price.Equal(decimal.NewFromInt(100)) || txs[0].Date.Day() != 5 {
		t.Fatalf("transactions not restored: %+v", txs)
	}
	me, _ := reopened.GetMonthlyExpense(ctx, core.Period{Year: 2024, Month: 3})
	if me == nil || !me.TotalExpense.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("monthly expense not restored: %+v", me)
	}
	assets, _ := reopened.ListAssets(ctx)
	if len(assets) != 4 {
		t.Fatalf("assets not restored: %v", assets)
	}
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.CreateTransaction(ctx, tx("keep", 5, 100)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// a directory at the temp path makes every write fail
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatalf("block tmp: %v", err)
	}
	march := core.Period{Year: 2024, Month: 3}

	if err := s.CreateTransaction(ctx, tx("t1", 6, 200)); err == nil {
		t.Fatal("create succeeded with blocked temp file")
	}
	if _, err := s.GetTransaction(ctx, "t1"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("failed create kept the row: %v", err)
	}

	changed := tx("keep", 5, 999)
	if err := s.UpdateTransaction(ctx, changed); err == nil {
		t.Fatal("update succeeded with blocked temp file")
	}
	if err := s.DeleteTransaction(ctx, "keep"); err == nil {
		t.Fatal("delete succeeded with blocked temp file")
	}
	got, err := s.GetTransaction(ctx, "keep")
	if err != nil || !got.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("failed update or delete changed the row: %+v %v", got, err)
	}

	if _, err := s.UpsertMonthlyExpense(ctx, core.MonthlyExpense{Year: 2024, Month: 3, TotalExpense: decimal.NewFromInt(9)}); err == nil {
		t.Fatal("upsert succeeded with blocked temp file")
	}
	if me, _ := s.GetMonthlyExpense(ctx, march); me != nil {
		t.Fatalf("failed upsert kept the expense: %+v", me)
	}
	if err := s.SeedAssets(ctx, core.DefaultCatalog().Speedboats); err == nil {
		t.Fatal("seed succeeded with blocked temp file")
	}
	if assets, _ := s.ListAssets(ctx); len(assets) != 0 {
		t.Fatalf("failed seed kept assets: %v", assets)
	}

	if err := os.Remove(path + ".tmp"); err != nil {
		t.Fatalf("unblock tmp: %v", err)
	}
	if err := s.CreateTransaction(ctx, tx("t1", 6, 200)); err != nil {
		t.Fatalf("create after unblock: %v", err)
	}
	txs, _ := s.ListTransactions(ctx, march)
	if len(txs) != 2 {
		t.Fatalf("want 2 transactions, got %d", len(txs))
	}
}
