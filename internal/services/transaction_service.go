package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"carteira/internal/billing"
	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/log"
	"carteira/internal/storage"

	"github.com/google/uuid"
)

// TransactionService persists transactions and keeps account balances in
// step through the reconciler. Store writes happen before balance updates,
// so a failed write leaves balances untouched.
type TransactionService struct {
	repo       *storage.Repository
	reconciler *Reconciler
	log        *log.Logger
}

func NewTransactionService(repo *storage.Repository, reconciler *Reconciler) *TransactionService {
	return &TransactionService{
		repo:       repo,
		reconciler: reconciler,
		log:        log.ForComponent(log.ComponentReconciler),
	}
}

// List returns every transaction, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.repo.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	SortByDateDesc(txs)
	return txs, nil
}

// ListMonth returns the transactions dated in month, newest first.
func (s *TransactionService) ListMonth(ctx context.Context, month core.MonthRef) ([]core.Transaction, error) {
	txs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if month.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *TransactionService) Get(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.repo.Transaction(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return core.Transaction{}, fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
	}
	return tx, err
}

// Create stores tx and applies its balance effect. The returned transaction
// carries the generated id.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	id, err := s.repo.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	tx.ID = id
	s.log.InfoContext(ctx, "Transaction created", log.NewFields().
		WithTransaction(id, tx.Amount).
		WithOperation(log.OpCreate).
		ToSlice()...)

	if err := s.reconciler.OnCreate(ctx, tx); err != nil {
		return tx, fmt.Errorf("reconcile created transaction %s: %w", id, err)
	}
	return tx, nil
}

// Update replaces a stored transaction and moves its balance effect.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	old, err := s.Get(ctx, tx.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.repo.SaveTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.log.InfoContext(ctx, "Transaction updated", log.NewFields().
		WithTransaction(tx.ID, tx.Amount).
		WithOperation(log.OpUpdate).
		ToSlice()...)

	if err := s.reconciler.OnUpdate(ctx, old, tx); err != nil {
		return tx, fmt.Errorf("reconcile updated transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}

// Delete removes a transaction and recomputes its account.
func (s *TransactionService) Delete(ctx context.Context, id string) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.log.InfoContext(ctx, "Transaction deleted", log.NewFields().
		WithTransaction(id, old.Amount).
		WithOperation(log.OpDelete).
		ToSlice()...)

	if err := s.reconciler.OnDelete(ctx, old); err != nil {
		return fmt.Errorf("reconcile deleted transaction %s: %w", id, err)
	}
	return nil
}

// CreateInstallmentPurchase splits a purchase of base.Amount into total
// monthly rows sharing a fresh purchase group id. All rows are written in
// one batch before any balance is touched.
func (s *TransactionService) CreateInstallmentPurchase(ctx context.Context, base core.Transaction, total int) ([]core.Transaction, error) {
	rows, err := billing.ExpandInstallments(base, total, uuid.NewString())
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}
	saved, err := s.repo.AddTransactions(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("create installment purchase: %w", err)
	}
	s.log.InfoContext(ctx, "Installment purchase created",
		"installments", len(saved),
		"purchase_group_id", saved[0].Installment.PurchaseGroupID,
		log.FieldAmount, base.Amount.String())

	for _, tx := range saved {
		if err := s.reconciler.OnCreate(ctx, tx); err != nil {
			return saved, fmt.Errorf("reconcile installment %s: %w", tx.ID, err)
		}
	}
	return saved, nil
}

// AddManualBills records lump-sum card bills as synthetic expense
// transactions dated on the first day of their reference month. Bills with
// a non-positive amount are ignored. No account balance is touched.
func (s *TransactionService) AddManualBills(ctx context.Context, bills []core.ManualBill) ([]core.Transaction, error) {
	methods, err := s.repo.PaymentMethods(ctx)
	if err != nil {
		return nil, err
	}
	resolver := NewPaymentMethodResolver(methods)

	var txs []core.Transaction
	for _, bill := range bills {
		if bill.Amount.Sign() <= 0 {
			continue
		}
		if err := bill.Validate(); err != nil {
			return nil, err
		}
		txs = append(txs, ManualBillTransaction(bill, resolver.Resolve(bill.ID)))
	}
	if len(txs) == 0 {
		return []core.Transaction{}, nil
	}
	saved, err := s.repo.AddTransactions(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("add manual bills: %w", err)
	}
	s.log.InfoContext(ctx, "Manual bills added", "count", len(saved))
	return saved, nil
}

// ManualBillTransaction builds the transaction that stands in for a card bill.
func ManualBillTransaction(bill core.ManualBill, card core.PaymentMethod) core.Transaction {
	return core.Transaction{
		Title:           core.ManualBillTitlePrefix + card.Name,
		Amount:          bill.Amount,
		Date:            core.NewDate(bill.Reference.Year, bill.Reference.Month, 1),
		CategoryID:      core.ManualBillCategory,
		PaymentMethodID: bill.ID,
		Type:            core.Expense,
		Frequency:       core.Variable,
		IsManualBill:    true,
	}
}

// SortByDateDesc orders transactions newest first, ties broken by id.
func SortByDateDesc(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}
