package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"carteira/internal/cache"
	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

func TestResolver(t *testing.T) {
	r := NewPaymentMethodResolver([]core.PaymentMethod{
		{ID: "nu", Name: "Nubank", Type: core.Credit},
		{ID: "pix", Name: "Meu Pix", Type: core.Pix},
	})
	tests := []struct {
		id       string
		wantType core.PaymentMethodType
		wantName string
	}{
		{"nu", core.Credit, "Nubank"},
		{"pix", core.Pix, "Meu Pix"},
		{"food_voucher", core.Food, "Vale Alimentação"},
		{"money", core.Cash, "Dinheiro"},
		{"nope", core.Other, UnknownPaymentMethodName},
		{"", core.Other, UnknownPaymentMethodName},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pm := r.Resolve(tt.id)
			if pm.Type != tt.wantType || pm.Name != tt.wantName || pm.ID != tt.id {
				t.Errorf("Resolve(%q) = %+v", tt.id, pm)
			}
		})
	}
}

func TestPaymentMethodService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	nu, err := f.methods.Save(ctx, core.PaymentMethod{Name: "Nubank", Type: core.Credit, DueDate: 10, CreditLimit: decimal.NewFromInt(5000)})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.methods.Save(ctx, core.PaymentMethod{Name: "Inter", Type: core.Debit, IsDefault: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.methods.Save(ctx, core.PaymentMethod{Name: ""}); err == nil {
		t.Error("expected validation error for empty name")
	}

	if err := f.methods.SetDefault(ctx, nu.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}
	methods, _ := f.methods.List(ctx)
	defaults := 0
	for _, pm := range methods {
		if pm.IsDefault {
			defaults++
			if pm.ID != nu.ID {
				t.Errorf("wrong default: %s", pm.Name)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default, got %d", defaults)
	}

	if err := f.methods.SetDefault(ctx, "missing"); !errors.Is(err, ErrPaymentMethodNotFound) {
		t.Errorf("expected ErrPaymentMethodNotFound, got %v", err)
	}
	cards, _ := f.methods.CreditCards(ctx)
	if len(cards) != 1 || cards[0].ID != nu.ID {
		t.Errorf("credit cards = %+v", cards)
	}
}

func TestAccountServiceCreateAndManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	acc, err := f.accounts.Create(ctx, core.BalanceAccount{Name: "Carteira", Balance: decimal.NewFromInt(20), Type: core.CashAccount})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !acc.ManualUpdate {
		t.Error("non-zero opening balance should be marked manual")
	}
	if _, err := f.accounts.Create(ctx, core.BalanceAccount{}); err == nil {
		t.Error("expected error for unnamed account")
	}
	empty, err := f.accounts.Create(ctx, core.BalanceAccount{Name: "Poupança"})
	if err != nil {
		t.Fatalf("create empty: %v", err)
	}
	if empty.ManualUpdate {
		t.Error("zero opening balance should stay derived")
	}

	updated, err := f.accounts.SetManualBalance(ctx, acc.ID, decimal.NewFromInt(75))
	if err != nil {
		t.Fatalf("manual: %v", err)
	}
	if !updated.ManualUpdate || !updated.LastUpdate.Equal(f.clock.Now()) {
		t.Errorf("unexpected account: %+v", updated)
	}
	stored := f.account(t, acc.ID)
	if !stored.Balance.Equal(decimal.NewFromInt(75)) || !stored.ManualUpdate {
		t.Errorf("stored account: %+v", stored)
	}

	if _, err := f.accounts.SetManualBalance(ctx, "missing", decimal.Zero); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	list, _ := f.accounts.List(ctx)
	if total := TotalBalance(list); !total.Equal(decimal.NewFromInt(75)) {
		t.Errorf("total balance = %s", total)
	}
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedAccount(t, "A", "0")
	if err := f.repo.SavePaymentMethod(ctx, core.PaymentMethod{ID: "nu", Name: "Nubank", Type: core.Credit, DueDate: 31, CreditLimit: decimal.NewFromInt(2000)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := f.txs.Create(ctx, income("3000", "salary", "A")); err != nil {
		t.Fatalf("create: %v", err)
	}
	mayBill := expense("250", "nu", "")
	mayBill.Date = core.NewDate(2024, time.May, 20)
	if _, err := f.txs.Create(ctx, mayBill); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.txs.Create(ctx, expense("400", "nu", "")); err != nil {
		t.Fatalf("create: %v", err)
	}

	svc := NewDashboardService(f.repo, cache.NewLRUCache[Dashboard](8, time.Minute))
	d, err := svc.Dashboard(ctx, core.MonthRef{Year: 2024, Month: time.June})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !d.Summary.MonthlyIncome.Equal(decimal.NewFromInt(3000)) || !d.Summary.MonthlyExpenses.Equal(decimal.NewFromInt(400)) {
		t.Errorf("summary = %+v", d.Summary)
	}
	if len(d.PreviousBills.Bills) != 1 || !d.PreviousBills.Total.Equal(decimal.NewFromInt(250)) {
		t.Errorf("previous bills = %+v", d.PreviousBills)
	}
	if len(d.Cards) != 1 || !d.Cards[0].Available.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("cards = %+v", d.Cards)
	}
	if !d.Cards[0].DueDate.Equal(core.NewDate(2024, time.June, 30)) {
		t.Errorf("due date = %v", d.Cards[0].DueDate)
	}
	if !d.TotalBalance.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("total balance = %s", d.TotalBalance)
	}

	if _, err := svc.Dashboard(ctx, core.MonthRef{Year: 2024, Month: 13}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestDashboardCacheInvalidatedByStoreChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newFixture(t)
	svc := NewDashboardService(f.repo, cache.NewLRUCache[Dashboard](8, time.Hour))
	june := core.MonthRef{Year: 2024, Month: time.June}

	first, err := svc.Dashboard(ctx, june)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !first.Summary.MonthlyExpenses.IsZero() {
		t.Fatalf("expected empty month, got %s", first.Summary.MonthlyExpenses)
	}

	// Without a watcher the cached view is served.
	if _, err := f.repo.AddTransaction(ctx, expense("10", "pix", "")); err != nil {
		t.Fatalf("add: %v", err)
	}
	cached, _ := svc.Dashboard(ctx, june)
	if !cached.Summary.MonthlyExpenses.IsZero() {
		t.Fatal("expected cached dashboard")
	}

	stop, err := svc.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer stop()
	if _, err := f.repo.AddTransaction(ctx, expense("5", "pix", "")); err != nil {
		t.Fatalf("add: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		d, err := svc.Dashboard(ctx, june)
		if err != nil {
			t.Fatalf("dashboard: %v", err)
		}
		if d.Summary.MonthlyExpenses.Equal(decimal.NewFromInt(15)) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("cache never invalidated, expenses = %s", d.Summary.MonthlyExpenses)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
