package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bjt/internal/amqp"
	"bjt/internal/core"
	"bjt/internal/ledger"
	"bjt/internal/ledger/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingInvalidator struct {
	periods []core.Period
}

func (r *recordingInvalidator) Invalidate(p core.Period) {
	r.periods = append(r.periods, p)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func dropEntry() core.Entry {
	return core.Entry{
		Date:       core.NewDate(2024, 3, 5),
		AssetType:  core.AssetCar,
		AssetName:  "Avanza 2023",
		RentalType: core.RentalDrop,
		From:       "Bajo",
		To:         "Labuan",
		Price:      dec(500000),
		FuelCost:   dec(100000),
		DriverCost: dec(20000),
		Trips:      2,
	}
}

func newTransactionService(t *testing.T) (*TransactionService, *memory.Store, *recordingPublisher, *recordingInvalidator) {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	inv := &recordingInvalidator{}
	return NewTransactionService(store, pub, inv, nil), store, pub, inv
}

func TestTransactionServiceCreate(t *testing.T) {
	svc, store, pub, inv := newTransactionService(t)
	ctx := context.Background()

	tx, err := svc.Create(ctx, dropEntry())
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, "Bajo - Labuan", tx.Route)
	assert.True(t, tx.DailyCash.Equal(dec(20000)), "got %s", tx.DailyCash)

	stored, err := store.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.ID)

	assert.Equal(t, []amqp.EventType{amqp.EventTransactionCreated}, pub.types())
	assert.Equal(t, "2024-03", pub.events[0].Period)
	assert.Equal(t, []core.Period{{Year: 2024, Month: 3}}, inv.periods)
}

func TestTransactionServiceCreateRejectsInvalidEntry(t *testing.T) {
	svc, store, pub, _ := newTransactionService(t)
	ctx := context.Background()

	e := dropEntry()
	e.To = ""
	_, err := svc.Create(ctx, e)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, core.ErrEmptyRoute)

	e = dropEntry()
	e.AssetType = "truck"
	_, err = svc.Create(ctx, e)
	assert.ErrorIs(t, err, core.ErrInvalidAssetType)

	txs, err := store.ListTransactions(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Empty(t, pub.types())
}

func TestTransactionServicePublishFailureDoesNotFailWrite(t *testing.T) {
	store := memory.New()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub, nil, nil)

	tx, err := svc.Create(context.Background(), dropEntry())
	require.NoError(t, err)

	_, err = store.GetTransaction(context.Background(), tx.ID)
	assert.NoError(t, err)
}

func TestTransactionServiceWithoutPublisher(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil, nil, nil)
	_, err := svc.Create(context.Background(), dropEntry())
	assert.NoError(t, err)
}

func TestTransactionServiceUpdateRecomputesCash(t *testing.T) {
	svc, _, pub, inv := newTransactionService(t)
	ctx := context.Background()

	tx, err := svc.Create(ctx, dropEntry())
	require.NoError(t, err)

	e := dropEntry()
	e.Trips = 3
	e.Date = core.NewDate(2024, 4, 1)
	updated, err := svc.Update(ctx, tx.ID, e)
	require.NoError(t, err)

	assert.Equal(t, tx.ID, updated.ID)
	assert.True(t, updated.DailyCash.Equal(dec(30000)))

	got, err := svc.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Trips)

	assert.Equal(t, []amqp.EventType{amqp.EventTransactionCreated, amqp.EventTransactionUpdated}, pub.types())
	// The move to April invalidates both months.
	assert.Contains(t, inv.periods, core.Period{Year: 2024, Month: 3})
	assert.Contains(t, inv.periods, core.Period{Year: 2024, Month: 4})
}

func TestTransactionServiceUpdateMissing(t *testing.T) {
	svc, _, _, _ := newTransactionService(t)
	_, err := svc.Update(context.Background(), "nope", dropEntry())
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.False(t, IsValidation(err))
}

func TestTransactionServiceDelete(t *testing.T) {
	svc, _, pub, _ := newTransactionService(t)
	ctx := context.Background()

	tx, err := svc.Create(ctx, dropEntry())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, tx.ID))
	_, err = svc.Get(ctx, tx.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, tx.ID), ledger.ErrNotFound)

	types := pub.types()
	assert.Equal(t, amqp.EventTransactionDeleted, types[len(types)-1])
}

func TestTransactionServiceListByPeriod(t *testing.T) {
	svc, _, _, _ := newTransactionService(t)
	ctx := context.Background()

	resto := core.Entry{
		Date:        core.NewDate(2024, 3, 1),
		AssetType:   core.AssetRestaurant,
		SalesAmount: dec(750000),
	}
	_, err := svc.Create(ctx, dropEntry())
	require.NoError(t, err)
	r, err := svc.Create(ctx, resto)
	require.NoError(t, err)
	assert.Equal(t, core.RestaurantAssetName, r.AssetName)

	txs, err := svc.ListByPeriod(ctx, core.Period{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, r.ID, txs[0].ID, "listed by date")

	_, err = svc.ListByPeriod(ctx, core.Period{Year: 2024, Month: 13})
	assert.True(t, IsValidation(err))
}
