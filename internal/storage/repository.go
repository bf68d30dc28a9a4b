// Package storage maps the user's document collections to domain types.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"carteira/internal/core"
	"carteira/internal/docstore"

	"github.com/google/uuid"
)

// Repository gives typed access to one user's transactions, accounts and
// payment methods.
type Repository struct {
	store docstore.Store
	paths docstore.UserPaths
}

func NewRepository(store docstore.Store, userID string) *Repository {
	return &Repository{store: store, paths: docstore.ForUser(userID)}
}

func (r *Repository) Store() docstore.Store      { return r.store }
func (r *Repository) Paths() docstore.UserPaths { return r.paths }
func (r *Repository) UserID() string            { return r.paths.UserID }

// Transactions returns every transaction of the user. Documents that cannot
// be decoded are skipped and logged.
func (r *Repository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	docs, err := r.store.ReadCollection(ctx, r.paths.Transactions())
	if err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	return DecodeTransactions(ctx, docs), nil
}

// DecodeTransactions decodes a snapshot, skipping malformed documents.
func DecodeTransactions(ctx context.Context, docs []docstore.Document) []core.Transaction {
	out := make([]core.Transaction, 0, len(docs))
	for _, doc := range docs {
		tx, err := DecodeTransaction(doc)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed transaction", "transaction_id", doc.ID, "error", err)
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (r *Repository) Transaction(ctx context.Context, id string) (core.Transaction, error) {
	doc, ok, err := r.store.ReadDocument(ctx, r.paths.Transaction(id))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read transaction %s: %w", id, err)
	}
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, docstore.ErrNotFound)
	}
	return DecodeTransaction(doc)
}

// AddTransaction stores tx under a generated id and returns it.
func (r *Repository) AddTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	id, err := r.store.AddDocument(ctx, r.paths.Transactions(), EncodeTransaction(tx))
	if err != nil {
		return "", fmt.Errorf("add transaction: %w", err)
	}
	return id, nil
}

// SaveTransaction replaces the stored content of tx.ID.
func (r *Repository) SaveTransaction(ctx context.Context, tx core.Transaction) error {
	if err := r.store.WriteDocument(ctx, r.paths.Transaction(tx.ID), EncodeTransaction(tx)); err != nil {
		return fmt.Errorf("write transaction %s: %w", tx.ID, err)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.store.DeleteDocument(ctx, r.paths.Transaction(id)); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// AddTransactions assigns fresh ids to txs and writes them in one atomic batch.
func (r *Repository) AddTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	writes := make([]docstore.Write, len(txs))
	out := make([]core.Transaction, len(txs))
	for i, tx := range txs {
		tx.ID = uuid.NewString()
		out[i] = tx
		writes[i] = docstore.Write{Path: r.paths.Transaction(tx.ID), Fields: EncodeTransaction(tx)}
	}
	if err := r.store.BatchWrite(ctx, writes); err != nil {
		return nil, fmt.Errorf("batch add transactions: %w", err)
	}
	return out, nil
}

func (r *Repository) Accounts(ctx context.Context) ([]core.BalanceAccount, error) {
	docs, err := r.store.ReadCollection(ctx, r.paths.Accounts())
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	return DecodeAccounts(ctx, docs), nil
}

func DecodeAccounts(ctx context.Context, docs []docstore.Document) []core.BalanceAccount {
	out := make([]core.BalanceAccount, 0, len(docs))
	for _, doc := range docs {
		acc, err := DecodeAccount(doc)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed account", "account_id", doc.ID, "error", err)
			continue
		}
		out = append(out, acc)
	}
	return out
}

// Account returns ok=false when the account does not exist.
func (r *Repository) Account(ctx context.Context, id string) (core.BalanceAccount, bool, error) {
	doc, ok, err := r.store.ReadDocument(ctx, r.paths.Account(id))
	if err != nil {
		return core.BalanceAccount{}, false, fmt.Errorf("read account %s: %w", id, err)
	}
	if !ok {
		return core.BalanceAccount{}, false, nil
	}
	acc, err := DecodeAccount(doc)
	if err != nil {
		return core.BalanceAccount{}, false, fmt.Errorf("decode account %s: %w", id, err)
	}
	return acc, true, nil
}

func (r *Repository) SaveAccount(ctx context.Context, acc core.BalanceAccount) error {
	if err := r.store.WriteDocument(ctx, r.paths.Account(acc.ID), EncodeAccount(acc)); err != nil {
		return fmt.Errorf("write account %s: %w", acc.ID, err)
	}
	return nil
}

// UpdateAccount merges a partial field set into the account document.
func (r *Repository) UpdateAccount(ctx context.Context, id string, fields docstore.Fields) error {
	if err := r.store.WriteDocument(ctx, r.paths.Account(id), fields); err != nil {
		return fmt.Errorf("update account %s: %w", id, err)
	}
	return nil
}

func (r *Repository) PaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	docs, err := r.store.ReadCollection(ctx, r.paths.PaymentMethods())
	if err != nil {
		return nil, fmt.Errorf("read payment methods: %w", err)
	}
	return DecodePaymentMethods(ctx, docs), nil
}

func DecodePaymentMethods(ctx context.Context, docs []docstore.Document) []core.PaymentMethod {
	out := make([]core.PaymentMethod, 0, len(docs))
	for _, doc := range docs {
		pm, err := DecodePaymentMethod(doc)
		if err != nil {
			slog.WarnContext(ctx, "Skipping malformed payment method", "payment_method_id", doc.ID, "error", err)
			continue
		}
		out = append(out, pm)
	}
	return out
}

func (r *Repository) SavePaymentMethod(ctx context.Context, pm core.PaymentMethod) error {
	if err := r.store.WriteDocument(ctx, r.paths.PaymentMethod(pm.ID), EncodePaymentMethod(pm)); err != nil {
		return fmt.Errorf("write payment method %s: %w", pm.ID, err)
	}
	return nil
}

// SetDefaultPaymentMethod flags id as default and clears the flag on every
// other stored method in one atomic batch.
func (r *Repository) SetDefaultPaymentMethod(ctx context.Context, id string) error {
	methods, err := r.PaymentMethods(ctx)
	if err != nil {
		return err
	}
	writes := make([]docstore.Write, 0, len(methods))
	found := false
	for _, pm := range methods {
		isDefault := pm.ID == id
		found = found || isDefault
		writes = append(writes, docstore.Write{
			Path:   r.paths.PaymentMethod(pm.ID),
			Fields: docstore.Fields{fieldIsDefault: isDefault},
		})
	}
	if !found {
		return fmt.Errorf("payment method %s: %w", id, docstore.ErrNotFound)
	}
	if err := r.store.BatchWrite(ctx, writes); err != nil {
		return fmt.Errorf("set default payment method: %w", err)
	}
	return nil
}
