package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/docstore/memory"
	"carteira/internal/storage"

	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store      docstore.Store
	repo       *storage.Repository
	clock      *fakeClock
	reconciler *Reconciler
	txs        *TransactionService
	accounts   *AccountService
	methods    *PaymentMethodService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	t.Cleanup(func() { s.Close() })
	return newFixtureWithStore(t, s)
}

func newFixtureWithStore(t *testing.T, store docstore.Store) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)}
	repo := storage.NewRepository(store, "u1")
	rec := NewReconciler(repo, DefaultFreezeWindow, clock.Now)
	return &fixture{
		store:      store,
		repo:       repo,
		clock:      clock,
		reconciler: rec,
		txs:        NewTransactionService(repo, rec),
		accounts:   NewAccountService(repo, rec, clock.Now),
		methods:    NewPaymentMethodService(repo),
	}
}

func (f *fixture) seedAccount(t *testing.T, id, balance string) {
	t.Helper()
	err := f.repo.SaveAccount(context.Background(), core.BalanceAccount{
		ID:         id,
		Name:       "Conta " + id,
		Balance:    decimal.RequireFromString(balance),
		Type:       core.BankAccount,
		LastUpdate: f.clock.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func (f *fixture) seedMethod(t *testing.T, id string, typ core.PaymentMethodType) {
	t.Helper()
	err := f.repo.SavePaymentMethod(context.Background(), core.PaymentMethod{
		ID: id, Name: "Método " + id, Type: typ, CreditLimit: decimal.NewFromInt(1000),
	})
	if err != nil {
		t.Fatalf("seed payment method: %v", err)
	}
}

func (f *fixture) account(t *testing.T, id string) core.BalanceAccount {
	t.Helper()
	acc, ok, err := f.repo.Account(context.Background(), id)
	if err != nil || !ok {
		t.Fatalf("read account %s: ok=%v err=%v", id, ok, err)
	}
	return acc
}

func (f *fixture) assertBalance(t *testing.T, id, want string) {
	t.Helper()
	if got := f.account(t, id).Balance; !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("account %s balance = %s, want %s", id, got, want)
	}
}

func income(amount, category, account string) core.Transaction {
	return core.Transaction{
		Title:      "Entrada",
		Amount:     decimal.RequireFromString(amount),
		Date:       core.NewDate(2024, time.June, 5),
		CategoryID: category,
		AccountID:  account,
		Type:       core.Income,
		Frequency:  core.Fixed,
	}
}

func expense(amount, method, account string) core.Transaction {
	return core.Transaction{
		Title:           "Compra",
		Amount:          decimal.RequireFromString(amount),
		Date:            core.NewDate(2024, time.June, 6),
		CategoryID:      "food",
		PaymentMethodID: method,
		AccountID:       account,
		Type:            core.Expense,
		Frequency:       core.Variable,
	}
}

// failingStore rejects writes to one document path.
type failingStore struct {
	*memory.Store
	failPath string
	err      error
}

func (s *failingStore) WriteDocument(ctx context.Context, path string, fields docstore.Fields) error {
	if path == s.failPath {
		return s.err
	}
	return s.Store.WriteDocument(ctx, path, fields)
}
