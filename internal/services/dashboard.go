package services

import (
	"context"
	"fmt"

	"carteira/internal/billing"
	"carteira/internal/cache"
	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/log"
	"carteira/internal/storage"
	"carteira/internal/summary"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the month view model.
type Dashboard struct {
	Month         core.MonthRef         `json:"month"`
	Summary       core.FinancialSummary `json:"summary"`
	PreviousBills billing.PreviousBills `json:"previousBills"`
	Cards         []billing.CardStatus  `json:"cards"`
	Accounts      []core.BalanceAccount `json:"accounts"`
	TotalBalance  decimal.Decimal       `json:"totalBalance"`
}

// DashboardService builds dashboards from the three user collections and
// caches them per month until the store reports a change.
type DashboardService struct {
	repo  *storage.Repository
	cache cache.Cache[Dashboard]
	log   *log.Logger
}

func NewDashboardService(repo *storage.Repository, c cache.Cache[Dashboard]) *DashboardService {
	return &DashboardService{repo: repo, cache: c, log: log.ForComponent(log.ComponentCache)}
}

func (s *DashboardService) Dashboard(ctx context.Context, month core.MonthRef) (Dashboard, error) {
	if err := month.Validate(); err != nil {
		return Dashboard{}, err
	}
	key := s.repo.UserID() + ":" + month.Key()
	if d, ok := s.cache.Get(ctx, key); ok {
		return d, nil
	}

	var (
		txs      []core.Transaction
		accounts []core.BalanceAccount
		methods  []core.PaymentMethod
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.repo.Transactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		accounts, err = s.repo.Accounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		methods, err = s.repo.PaymentMethods(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("load dashboard: %w", err)
	}

	d := BuildDashboard(month, txs, accounts, methods)
	s.cache.Set(ctx, key, d)
	return d, nil
}

// BuildDashboard assembles the view model from already loaded collections.
func BuildDashboard(month core.MonthRef, txs []core.Transaction, accounts []core.BalanceAccount, methods []core.PaymentMethod) Dashboard {
	resolver := NewPaymentMethodResolver(methods)
	cards := CreditCards(methods)

	statuses := make([]billing.CardStatus, 0, len(cards))
	for _, card := range cards {
		statuses = append(statuses, billing.CreditStatus(card, txs, month))
	}
	return Dashboard{
		Month:         month,
		Summary:       summary.Summarize(summary.InMonth(txs, month), resolver),
		PreviousBills: billing.AggregatePreviousBills(cards, txs, month),
		Cards:         statuses,
		Accounts:      accounts,
		TotalBalance:  TotalBalance(accounts),
	}
}

// Watch subscribes to the user's collections and purges the cache on every
// committed change. The returned function detaches the subscriptions.
func (s *DashboardService) Watch(ctx context.Context) (func(), error) {
	store := s.repo.Store()
	paths := s.repo.Paths()
	var unsubs []func()
	stop := func() {
		for _, u := range unsubs {
			u()
		}
	}
	for _, coll := range []string{paths.Transactions(), paths.Accounts(), paths.PaymentMethods()} {
		unsub, err := store.Subscribe(ctx, coll, func(snap docstore.Snapshot) {
			if len(snap.Changes) == 0 {
				return
			}
			s.cache.Purge(ctx)
			s.log.DebugContext(ctx, "Dashboard cache purged",
				log.FieldCollection, docstore.LastSegment(snap.Collection),
				"changes", len(snap.Changes))
		})
		if err != nil {
			stop()
			return nil, fmt.Errorf("subscribe %s: %w", coll, err)
		}
		unsubs = append(unsubs, unsub)
	}
	return stop, nil
}
