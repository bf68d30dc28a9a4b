package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"carteira/internal/core"
	"carteira/internal/log"
	"carteira/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	repo       *storage.Repository
	reconciler *Reconciler
	now        func() time.Time
	log        *log.Logger
}

// NewAccountService returns the account service. A nil now uses time.Now.
func NewAccountService(repo *storage.Repository, reconciler *Reconciler, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		repo:       repo,
		reconciler: reconciler,
		now:        now,
		log:        log.ForComponent(log.ComponentReconciler),
	}
}

// List returns the accounts ordered by name.
func (s *AccountService) List(ctx context.Context) ([]core.BalanceAccount, error) {
	accounts, err := s.repo.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// Create stores a new account with its opening balance.
func (s *AccountService) Create(ctx context.Context, acc core.BalanceAccount) (core.BalanceAccount, error) {
	if strings.TrimSpace(acc.Name) == "" {
		return core.BalanceAccount{}, fmt.Errorf("account: %w", core.ErrEmptyName)
	}
	if acc.Type == "" {
		acc.Type = core.BankAccount
	}
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	acc.LastUpdate = s.now()
	// An opening balance is user input, not a sum of transactions.
	acc.ManualUpdate = !acc.Balance.IsZero()
	if err := s.repo.SaveAccount(ctx, acc); err != nil {
		return core.BalanceAccount{}, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

// SetManualBalance overwrites the balance from a direct user edit and
// starts the freeze window that shields it from recompute.
func (s *AccountService) SetManualBalance(ctx context.Context, id string, balance decimal.Decimal) (core.BalanceAccount, error) {
	acc, ok, err := s.repo.Account(ctx, id)
	if err != nil {
		return core.BalanceAccount{}, err
	}
	if !ok {
		return core.BalanceAccount{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	at := s.now()
	if err := s.repo.UpdateAccount(ctx, id, ManualBalanceFields(balance, at)); err != nil {
		return core.BalanceAccount{}, fmt.Errorf("set manual balance: %w", err)
	}
	s.log.InfoContext(ctx, "Manual balance set",
		log.FieldAccountID, id, log.FieldBalance, balance.String())

	acc.Balance = balance
	acc.ManualUpdate = true
	acc.LastUpdate = at
	return acc, nil
}

// Recompute forces a recompute of one account, subject to the freeze.
func (s *AccountService) Recompute(ctx context.Context, id string) (decimal.Decimal, error) {
	if _, ok, err := s.repo.Account(ctx, id); err != nil {
		return decimal.Zero, err
	} else if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return s.reconciler.Recompute(ctx, id)
}

// TotalBalance sums the balances of accounts.
func TotalBalance(accounts []core.BalanceAccount) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Balance)
	}
	return total
}
