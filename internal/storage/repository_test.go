package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjt/internal/core"
	"bjt/internal/ledger"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "bjt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func drop(id string, day int) core.Transaction {
	return core.Transaction{
		ID:               id,
		Date:             core.NewDate(2024, 3, day),
		AssetType:        core.AssetCar,
		AssetName:        "Veloz 2021",
		RentalType:       core.RentalDrop,
		Route:            "Bandara - Kota",
		Price:            decimal.RequireFromString("200000.50"),
		OperationalCosts: &core.OperationalCosts{Fuel: decimal.NewFromInt(50000), Driver: decimal.NewFromInt(30000)},
		Trips:            2,
		Days:             1,
		DailyCash:        decimal.NewFromInt(20000),
	}
}

func TestSQLiteTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	require.NoError(t, repo.Ping(ctx))

	boat := core.Transaction{
		ID: "b1", Date: core.NewDate(2024, 3, 1), AssetType: core.AssetSpeedboat,
		AssetName: "Speed Boat BJT 01", Price: decimal.NewFromInt(750000), Trips: 3,
		DailyCash: decimal.NewFromInt(30000),
	}
	april := drop("c2", 1)
	april.Date = core.NewDate(2024, 4, 1)

	for _, tx := range []core.Transaction{drop("c1", 5), boat, april} {
		require.NoError(t, repo.CreateTransaction(ctx, tx))
	}
	err := repo.CreateTransaction(ctx, boat)
	assert.True(t, errors.Is(err, ledger.ErrConflict), "got %v", err)

	got, err := repo.ListTransactions(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Nil(t, got[0].OperationalCosts)

	c1 := got[1]
	assert.Equal(t, "2024-03-05", c1.Date.String())
	assert.Equal(t, core.RentalDrop, c1.RentalType)
	assert.True(t, c1.Price.Equal(decimal.RequireFromString("200000.50")))
	require.NotNil(t, c1.OperationalCosts)
	assert.True(t, c1.Expenses().Equal(decimal.NewFromInt(80000)))
	assert.Equal(t, 2, c1.Trips)

	empty, err := repo.ListTransactions(ctx, core.Period{Year: 2023, Month: 1})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSQLiteUpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	err := repo.UpdateTransaction(ctx, drop("missing", 1))
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	_, err = repo.GetTransaction(ctx, "missing")
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	tx := drop("c1", 5)
	require.NoError(t, repo.CreateTransaction(ctx, tx))
	tx.Price = decimal.NewFromInt(1)
	tx.OperationalCosts = nil
	require.NoError(t, repo.UpdateTransaction(ctx, tx))

	got, err := repo.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, got.OperationalCosts)

	require.NoError(t, repo.DeleteTransaction(ctx, "c1"))
	assert.True(t, errors.Is(repo.DeleteTransaction(ctx, "c1"), ledger.ErrNotFound))
}

func TestSQLiteMonthlyExpense(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	p := core.Period{Year: 2024, Month: 3}

	none, err := repo.GetMonthlyExpense(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, none)

	first, err := repo.UpsertMonthlyExpense(ctx, core.MonthlyExpense{
		Year: 2024, Month: 3, StaffSalary: decimal.NewFromInt(3000000),
	}.ComputeTotal())
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.UpsertMonthlyExpense(ctx, core.MonthlyExpense{
		ID: "ignored", Year: 2024, Month: 3, WaterBill: decimal.NewFromInt(120000),
	}.ComputeTotal())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetMonthlyExpense(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.StaffSalary.IsZero())
	assert.True(t, got.TotalExpense.Equal(decimal.NewFromInt(120000)))

	require.NoError(t, repo.DeleteMonthlyExpense(ctx, p))
	assert.True(t, errors.Is(repo.DeleteMonthlyExpense(ctx, p), ledger.ErrNotFound))
}

func TestSQLiteAssetsAndSync(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	all := core.DefaultCatalog().All()
	require.NoError(t, repo.SeedAssets(ctx, all))
	require.NoError(t, repo.SeedAssets(ctx, all))
	assets, err := repo.ListAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, assets)

	require.NoError(t, repo.CreateTransaction(ctx, drop("a", 1)))
	require.NoError(t, repo.CreateTransaction(ctx, drop("b", 2)))
	pending, err := repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, pending)

	require.NoError(t, repo.MarkSynced(ctx, "a"))
	require.NoError(t, repo.MarkSyncError(ctx, "b"))
	pending, err = repo.PendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, pending)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bjt.db")

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.CreateTransaction(ctx, drop("c1", 5)))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.GetTransaction(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Bandara - Kota", got.Route)
}
