// Package memory is an in-process ledger store. When given a file path it
// rewrites a JSON snapshot after every change, which is enough for a
// single-operator install without a database.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bjt/internal/core"
	"bjt/internal/ledger"
)

type Store struct {
	mu       sync.RWMutex
	path     string
	txs      []core.Transaction
	expenses []core.MonthlyExpense
	assets   []core.Asset
}

type snapshot struct {
	Transactions    []core.Transaction    `json:"transactions"`
	MonthlyExpenses []core.MonthlyExpense `json:"monthlyExpenses"`
	Assets          []core.Asset          `json:"assets"`
}

var _ ledger.Store = (*Store)(nil)

// New returns an empty store that lives only in memory.
func New() *Store {
	return &Store{}
}

// NewFromFile returns a store persisted to path. A missing file starts an
// empty store; a corrupt one is an error.
func NewFromFile(path string) (*Store, error) {
	s := &Store{path: path}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(b) == 0 {
		return s, nil
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.txs = snap.Transactions
	s.expenses = snap.MonthlyExpenses
	s.assets = snap.Assets
	return s, nil
}

func (s *Store) ListTransactions(_ context.Context, period core.Period) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if period.Contains(t.Date) {
			out = append(out, clone(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return clone(s.txs[i]), nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	if t.ID == "" {
		return errors.New("transaction id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ledger.ErrConflict)
	}
	next := s.current()
	next.Transactions = append(slices.Clone(s.txs), clone(t))
	return s.commit(next)
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(t.ID)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ledger.ErrNotFound)
	}
	next := s.current()
	next.Transactions = slices.Clone(s.txs)
	next.Transactions[i] = clone(t)
	return s.commit(next)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrNotFound)
	}
	next := s.current()
	next.Transactions = slices.Delete(slices.Clone(s.txs), i, i+1)
	return s.commit(next)
}

func (s *Store) GetMonthlyExpense(_ context.Context, period core.Period) (*core.MonthlyExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.expenseIndex(period); i >= 0 {
		e := s.expenses[i]
		return &e, nil
	}
	return nil, nil
}

func (s *Store) UpsertMonthlyExpense(_ context.Context, e core.MonthlyExpense) (core.MonthlyExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.current()
	next.MonthlyExpenses = slices.Clone(s.expenses)
	if i := s.expenseIndex(e.Period()); i >= 0 {
		e.ID = s.expenses[i].ID
		next.MonthlyExpenses[i] = e
	} else {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		next.MonthlyExpenses = append(next.MonthlyExpenses, e)
	}
	if err := s.commit(next); err != nil {
		return core.MonthlyExpense{}, err
	}
	return e, nil
}

func (s *Store) DeleteMonthlyExpense(_ context.Context, period core.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.expenseIndex(period)
	if i < 0 {
		return fmt.Errorf("monthly expense %s: %w", period, ledger.ErrNotFound)
	}
	next := s.current()
	next.MonthlyExpenses = slices.Delete(slices.Clone(s.expenses), i, i+1)
	return s.commit(next)
}

func (s *Store) ListAssets(_ context.Context) ([]core.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Asset{}, s.assets...), nil
}

func (s *Store) SeedAssets(_ context.Context, assets []core.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.assets))
	for _, a := range s.assets {
		seen[a.Key()] = struct{}{}
	}
	next := s.current()
	next.Assets = slices.Clone(s.assets)
	for _, a := range assets {
		if _, ok := seen[a.Key()]; ok {
			continue
		}
		seen[a.Key()] = struct{}{}
		next.Assets = append(next.Assets, a)
	}
	if len(next.Assets) == len(s.assets) {
		return nil
	}
	return s.commit(next)
}

func (s *Store) Ping(context.Context) error { return nil }

// Close flushes the snapshot one last time.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(s.current())
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.txs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) expenseIndex(p core.Period) int {
	for i, e := range s.expenses {
		if e.Period() == p {
			return i
		}
	}
	return -1
}

func (s *Store) current() snapshot {
	return snapshot{
		Transactions:    s.txs,
		MonthlyExpenses: s.expenses,
		Assets:          s.assets,
	}
}

// commit persists next and only then makes it the live state, so a failed
// write leaves the store unchanged. Caller holds the write lock.
func (s *Store) commit(next snapshot) error {
	if err := s.persist(next); err != nil {
		return err
	}
	s.txs = next.Transactions
	s.expenses = next.MonthlyExpenses
	s.assets = next.Assets
	return nil
}

// persist writes snap through a temp file and rename.
func (s *Store) persist(snap snapshot) error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func clone(t core.Transaction) core.Transaction {
	if t.OperationalCosts != nil {
		c := *t.OperationalCosts
		t.OperationalCosts = &c
	}
	return t
}
