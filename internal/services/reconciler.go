package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/log"
	"carteira/internal/storage"

	"github.com/shopspring/decimal"
)

// DefaultFreezeWindow is how long a manual balance edit is protected from recompute.
const DefaultFreezeWindow = 60 * time.Second

// Reconciler keeps cached account balances equal to the sum of their
// qualifying transaction effects. Create and update apply incremental
// deltas; delete recomputes the account from its full history.
type Reconciler struct {
	repo   *storage.Repository
	freeze time.Duration
	now    func() time.Time
	log    *log.Logger
}

// NewReconciler returns a reconciler. A nil now uses time.Now.
func NewReconciler(repo *storage.Repository, freeze time.Duration, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		repo:   repo,
		freeze: freeze,
		now:    now,
		log:    log.ForComponent(log.ComponentReconciler),
	}
}

// balanceEffect returns the account a transaction moves and by how much.
// Qualifying incomes add, non-credit expenses subtract; anything else,
// including transactions without an account, has no effect.
func balanceEffect(tx core.Transaction, methods core.PaymentMethodResolver) (string, decimal.Decimal, bool) {
	if tx.AccountID == "" {
		return "", decimal.Zero, false
	}
	switch tx.Type {
	case core.Income:
		if core.IsBalanceIncomeCategory(tx.CategoryID) {
			return tx.AccountID, tx.Amount, true
		}
	case core.Expense:
		if methods.Resolve(tx.PaymentMethodID).Type != core.Credit {
			return tx.AccountID, tx.Amount.Neg(), true
		}
	}
	return "", decimal.Zero, false
}

// OnCreate applies the new transaction's effect to its account.
func (r *Reconciler) OnCreate(ctx context.Context, tx core.Transaction) error {
	methods := r.lazyResolver(ctx)
	if err := r.applyIncome(ctx, tx, false); err != nil {
		return fmt.Errorf("apply income: %w", err)
	}
	if err := r.applyExpense(ctx, tx, false, methods); err != nil {
		return fmt.Errorf("apply expense: %w", err)
	}
	return nil
}

// OnUpdate reverts the old effect then applies the new one, in the order
// revert-income, revert-expense, apply-income, apply-expense. The first
// failing step aborts the sequence.
func (r *Reconciler) OnUpdate(ctx context.Context, oldTx, newTx core.Transaction) error {
	methods := r.lazyResolver(ctx)
	if err := r.applyIncome(ctx, oldTx, true); err != nil {
		return fmt.Errorf("revert income: %w", err)
	}
	if err := r.applyExpense(ctx, oldTx, true, methods); err != nil {
		return fmt.Errorf("revert expense: %w", err)
	}
	if err := r.applyIncome(ctx, newTx, false); err != nil {
		return fmt.Errorf("apply income: %w", err)
	}
	if err := r.applyExpense(ctx, newTx, false, methods); err != nil {
		return fmt.Errorf("apply expense: %w", err)
	}
	return nil
}

// OnDelete recomputes the account of a deleted transaction. The transaction
// must already be gone from the store.
func (r *Reconciler) OnDelete(ctx context.Context, tx core.Transaction) error {
	if tx.AccountID == "" {
		return nil
	}
	if _, err := r.Recompute(ctx, tx.AccountID); err != nil {
		return fmt.Errorf("recompute after delete: %w", err)
	}
	return nil
}

func (r *Reconciler) applyIncome(ctx context.Context, tx core.Transaction, revert bool) error {
	if tx.Type != core.Income {
		return nil
	}
	return r.applyEffect(ctx, tx, revert, nil)
}

func (r *Reconciler) applyExpense(ctx context.Context, tx core.Transaction, revert bool, methods func() (core.PaymentMethodResolver, error)) error {
	if tx.Type != core.Expense || tx.AccountID == "" {
		return nil
	}
	resolver, err := methods()
	if err != nil {
		return err
	}
	return r.applyEffect(ctx, tx, revert, resolver)
}

func (r *Reconciler) applyEffect(ctx context.Context, tx core.Transaction, revert bool, methods core.PaymentMethodResolver) error {
	accountID, delta, ok := balanceEffect(tx, methods)
	if !ok {
		return nil
	}
	if revert {
		delta = delta.Neg()
	}
	return r.adjust(ctx, accountID, delta, tx.ID)
}

// adjust adds delta to the stored balance. The manual flag is left as is.
func (r *Reconciler) adjust(ctx context.Context, accountID string, delta decimal.Decimal, txID string) error {
	acc, ok, err := r.repo.Account(ctx, accountID)
	if err != nil {
		return err
	}
	if !ok {
		r.log.WarnContext(ctx, "Account not found, skipping balance adjustment",
			log.FieldAccountID, accountID, log.FieldTransactionID, txID)
		return nil
	}
	balance := acc.Balance.Add(delta)
	if err := r.repo.UpdateAccount(ctx, accountID, storage.BalanceFields(balance, r.now())); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "Balance adjusted", log.NewFields().
		WithBalanceChange(accountID, delta, balance).
		WithOperation(log.OpUpdate).
		ToSlice()...)
	return nil
}

// Recompute rebuilds an account balance from every stored transaction and
// returns the resulting balance. While a manual edit is inside the freeze
// window the stored balance is returned unchanged.
func (r *Reconciler) Recompute(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acc, ok, err := r.repo.Account(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		r.log.WarnContext(ctx, "Account not found, skipping recompute", log.FieldAccountID, accountID)
		return decimal.Zero, nil
	}
	if r.frozen(acc) {
		r.log.InfoContext(ctx, "Manual balance is frozen, skipping recompute",
			log.FieldAccountID, accountID, log.FieldBalance, acc.Balance.String())
		return acc.Balance, nil
	}
	txs, err := r.repo.Transactions(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	methods, err := r.resolver(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return r.writeRecomputed(ctx, acc, txs, methods)
}

// ReconcileAll recomputes every account whose balance was never set by
// hand. Accounts carrying the manual flag keep their balance until a
// delete-triggered recompute clears it. Failures on one account do not
// stop the others.
func (r *Reconciler) ReconcileAll(ctx context.Context) error {
	accounts, err := r.repo.Accounts(ctx)
	if err != nil {
		return err
	}
	txs, err := r.repo.Transactions(ctx)
	if err != nil {
		return err
	}
	methods, err := r.resolver(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, acc := range accounts {
		if acc.ManualUpdate {
			continue
		}
		if _, err := r.writeRecomputed(ctx, acc, txs, methods); err != nil {
			errs = append(errs, fmt.Errorf("account %s: %w", acc.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) writeRecomputed(ctx context.Context, acc core.BalanceAccount, txs []core.Transaction, methods core.PaymentMethodResolver) (decimal.Decimal, error) {
	balance := AccountBalance(acc.ID, txs, methods)
	fields := storage.BalanceFields(balance, r.now())
	fields[storage.FieldManualUpdate] = false
	if err := r.repo.UpdateAccount(ctx, acc.ID, fields); err != nil {
		return decimal.Zero, err
	}
	r.log.InfoContext(ctx, "Balance recomputed", log.NewFields().
		WithBalanceChange(acc.ID, balance.Sub(acc.Balance), balance).
		WithOperation(log.OpRecompute).
		ToSlice()...)
	return balance, nil
}

func (r *Reconciler) frozen(acc core.BalanceAccount) bool {
	return acc.ManualUpdate && r.now().Sub(acc.LastUpdate) < r.freeze
}

// AccountBalance sums the qualifying effects of txs on accountID.
func AccountBalance(accountID string, txs []core.Transaction, methods core.PaymentMethodResolver) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if id, delta, ok := balanceEffect(tx, methods); ok && id == accountID {
			total = total.Add(delta)
		}
	}
	return total
}

func (r *Reconciler) resolver(ctx context.Context) (core.PaymentMethodResolver, error) {
	methods, err := r.repo.PaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	return NewPaymentMethodResolver(methods), nil
}

// lazyResolver loads payment methods at most once, and only when an
// expense actually needs one.
func (r *Reconciler) lazyResolver(ctx context.Context) func() (core.PaymentMethodResolver, error) {
	var (
		cached core.PaymentMethodResolver
		err    error
		loaded bool
	)
	return func() (core.PaymentMethodResolver, error) {
		if !loaded {
			cached, err = r.resolver(ctx)
			loaded = true
		}
		return cached, err
	}
}

// ManualBalanceFields is the write issued by a direct account edit; it
// starts the freeze window.
func ManualBalanceFields(balance decimal.Decimal, at time.Time) docstore.Fields {
	fields := storage.BalanceFields(balance, at)
	fields[storage.FieldManualUpdate] = true
	return fields
}
