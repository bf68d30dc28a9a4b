package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/billing"
	"carteira/internal/core"
	"carteira/internal/docstore"
	"carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/sheets"
	"carteira/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Consumer delivers document change messages until ctx is done.
type Consumer interface {
	ConsumeDocumentChanges(ctx context.Context, handler func(context.Context, *amqp.DocumentChangeMessage) error) error
}

// Worker exports the previous-month bills whenever the user's
// transactions or payment methods change, and periodically recomputes
// every account balance.
type Worker struct {
	repo       *storage.Repository
	reconciler *services.Reconciler
	exporter   sheets.BillExporter
	interval   time.Duration
	now        func() time.Time
	log        *log.Logger

	// exportMu serializes exports so two changes cannot interleave rows.
	exportMu sync.Mutex
}

func New(repo *storage.Repository, reconciler *services.Reconciler, exporter sheets.BillExporter, interval time.Duration, now func() time.Time) *Worker {
	if now == nil {
		now = time.Now
	}
	return &Worker{
		repo:       repo,
		reconciler: reconciler,
		exporter:   exporter,
		interval:   interval,
		now:        now,
		log:        log.ForComponent(log.ComponentWorker),
	}
}

// HandleDocumentChange reacts to one change message from the broker.
func (w *Worker) HandleDocumentChange(ctx context.Context, msg *amqp.DocumentChangeMessage) error {
	if msg.UserID != w.repo.UserID() {
		w.log.DebugContext(ctx, "Ignoring change for another user",
			log.FieldUserID, msg.UserID,
			log.FieldCollection, msg.Collection)
		return nil
	}
	w.log.InfoContext(ctx, "Processing document change",
		log.FieldCollection, msg.Collection,
		"document_id", msg.DocumentID,
		"kind", msg.Kind)

	switch msg.Collection {
	case docstore.TransactionsCollection, docstore.PaymentMethodsCollection:
		if err := w.ExportPreviousBills(ctx); err != nil {
			return fmt.Errorf("export after %s change: %w", msg.Collection, err)
		}
	}
	return nil
}

// ExportPreviousBills exports the bills of the month before the current one.
func (w *Worker) ExportPreviousBills(ctx context.Context) error {
	w.exportMu.Lock()
	defer w.exportMu.Unlock()

	var (
		txs     []core.Transaction
		methods []core.PaymentMethod
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = w.repo.Transactions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		methods, err = w.repo.PaymentMethods(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load bill inputs: %w", err)
	}

	bills := billing.AggregatePreviousBills(services.CreditCards(methods), txs, core.MonthOf(w.now()))
	if err := w.exporter.ExportBills(ctx, w.repo.UserID(), bills); err != nil {
		return fmt.Errorf("export bills: %w", err)
	}
	w.log.InfoContext(ctx, "Previous bills exported",
		"month", bills.Reference.Key(),
		"cards", len(bills.Bills),
		log.FieldAmount, bills.Total.String())
	return nil
}

// Reconcile recomputes every account balance once.
func (w *Worker) Reconcile(ctx context.Context) error {
	start := w.now()
	if err := w.reconciler.ReconcileAll(ctx); err != nil {
		return err
	}
	w.log.InfoContext(ctx, "Balances reconciled", log.FieldDuration, w.now().Sub(start))
	return nil
}

// WatchStore exports bills on every committed change of the user's
// transactions and payment methods, without a broker. The returned
// function detaches the subscriptions.
func (w *Worker) WatchStore(ctx context.Context) (func(), error) {
	store := w.repo.Store()
	paths := w.repo.Paths()
	var unsubs []func()
	stop := func() {
		for _, u := range unsubs {
			u()
		}
	}
	for _, coll := range []string{paths.Transactions(), paths.PaymentMethods()} {
		unsub, err := store.Subscribe(ctx, coll, func(snap docstore.Snapshot) {
			if len(snap.Changes) == 0 {
				return
			}
			if err := w.ExportPreviousBills(ctx); err != nil {
				w.log.ErrorContext(ctx, "Bill export failed", log.FieldError, err)
			}
		})
		if err != nil {
			stop()
			return nil, fmt.Errorf("subscribe %s: %w", coll, err)
		}
		unsubs = append(unsubs, unsub)
	}
	return stop, nil
}

// Run exports and reconciles once at startup, then consumes change
// messages (when consumer is non-nil) and reconciles on every tick until
// ctx is cancelled.
func (w *Worker) Run(ctx context.Context, consumer Consumer) error {
	if err := w.ExportPreviousBills(ctx); err != nil {
		w.log.ErrorContext(ctx, "Startup bill export failed", log.FieldError, err)
	}
	if err := w.Reconcile(ctx); err != nil {
		w.log.ErrorContext(ctx, "Startup reconcile failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeDocumentChanges(gctx, w.HandleDocumentChange)
		})
	}
	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := w.Reconcile(gctx); err != nil {
					w.log.ErrorContext(gctx, "Periodic reconcile failed", log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
