package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Title:      "Mercado",
		Amount:     decimal.NewFromInt(100),
		Date:       NewDate(2025, time.January, 1),
		CategoryID: "market",
		Type:       Expense,
		Frequency:  Variable,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	withDescription := good
	withDescription.Title = ""
	withDescription.Description = "from description"
	if err := withDescription.Validate(); err != nil {
		t.Fatalf("description should stand in for title, got %v", err)
	}

	bads := map[string]func(*Transaction){
		"zero amount":     func(tx *Transaction) { tx.Amount = decimal.Zero },
		"negative amount": func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) },
		"empty title":     func(tx *Transaction) { tx.Title = "" },
		"empty category":  func(tx *Transaction) { tx.CategoryID = " " },
		"zero date":       func(tx *Transaction) { tx.Date = time.Time{} },
		"bad type":        func(tx *Transaction) { tx.Type = "transfer" },
		"bad installment": func(tx *Transaction) { tx.Installment = &Installment{Current: 3, Total: 2} },
	}
	for name, mutate := range bads {
		tx := good
		mutate(&tx)
		if err := tx.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestPaymentMethodValidate(t *testing.T) {
	pm := PaymentMethod{Name: "Nubank", Type: Credit, DueDate: 10, CreditLimit: decimal.NewFromInt(5000)}
	if err := pm.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	pm.DueDate = 32
	if err := pm.Validate(); err != ErrInvalidDueDate {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
}

func TestManualBillValidate(t *testing.T) {
	b := ManualBill{ID: "card", Amount: decimal.NewFromInt(80), Reference: MonthRef{Year: 2024, Month: time.March}}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	b.Amount = decimal.Zero
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestLegacyManualBillDetection(t *testing.T) {
	tx := Transaction{Title: ManualBillTitlePrefix + "Nubank"}
	if !tx.IsLegacyManualBill() {
		t.Fatal("expected title marker to be recognised")
	}
	if (Transaction{Title: "Padaria"}).IsLegacyManualBill() {
		t.Fatal("ordinary title flagged as manual bill")
	}
}

func TestHasInstallment(t *testing.T) {
	if (Transaction{Title: "Padaria"}).HasInstallment() {
		t.Fatal("one-shot row reported as installment")
	}
	tx := Transaction{Installment: &Installment{Current: 2, Total: 3}}
	if !tx.HasInstallment() {
		t.Fatal("installment row not recognised")
	}
}

func TestLookupCategory(t *testing.T) {
	if c := LookupCategory("salary"); c.Type != Income {
		t.Fatalf("salary should be income, got %+v", c)
	}
	if c := LookupCategory("nope"); c.ID != UnknownCategoryID {
		t.Fatalf("expected unknown fallback, got %+v", c)
	}
	for _, id := range []string{"salary", "bonus", "investment", "refund"} {
		if !IsBalanceIncomeCategory(id) {
			t.Errorf("%s should credit balances", id)
		}
	}
	if IsBalanceIncomeCategory("other_income") {
		t.Error("other_income must not credit balances")
	}
}
