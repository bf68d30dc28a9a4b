package summary

import (
	"math"
	"testing"
	"time"

	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

type fakeMethods map[string]core.PaymentMethod

func (f fakeMethods) Resolve(id string) core.PaymentMethod {
	if pm, ok := f[id]; ok {
		return pm
	}
	return core.PaymentMethod{ID: id, Type: core.Other}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(typ core.TransactionType, category, amount string, freq core.Frequency, method string) core.Transaction {
	return core.Transaction{
		Title:           category,
		Amount:          dec(amount),
		Date:            core.NewDate(2024, time.May, 10),
		CategoryID:      category,
		Type:            typ,
		Frequency:       freq,
		PaymentMethodID: method,
	}
}

func TestSummarize_Totals(t *testing.T) {
	methods := fakeMethods{
		"vr": {ID: "vr", Type: core.Food},
		"nu": {ID: "nu", Type: core.Credit},
	}
	txs := []core.Transaction{
		tx(core.Income, "salary", "5000", core.Fixed, ""),
		tx(core.Expense, "housing", "1500", core.Fixed, "nu"),
		tx(core.Expense, "food", "300", core.Variable, "vr"),
		tx(core.Expense, "food", "200", "", "nu"),
	}

	got := Summarize(txs, methods)

	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"income", got.MonthlyIncome, "5000"},
		{"expenses", got.MonthlyExpenses, "2000"},
		{"fixed", got.FixedExpenses, "1500"},
		{"variable", got.VariableExpenses, "500"},
		{"food voucher", got.FoodVoucherExpenses, "300"},
	}
	for _, c := range checks {
		if !c.got.Equal(dec(c.want)) {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}

	if len(got.CategorySummaries) != 3 {
		t.Fatalf("expected 3 categories, got %+v", got.CategorySummaries)
	}
	first := got.CategorySummaries[0]
	if first.CategoryID != "salary" || first.Count != 1 {
		t.Fatalf("expected salary first, got %+v", first)
	}
	food := got.CategorySummaries[2]
	if food.CategoryID != "food" || food.Count != 2 || !food.Amount.Equal(dec("500")) {
		t.Fatalf("unexpected food summary %+v", food)
	}
}

func TestSummarize_PercentagesSumToHundred(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "food", "33.33", core.Variable, ""),
		tx(core.Expense, "transport", "33.33", core.Variable, ""),
		tx(core.Expense, "leisure", "33.34", core.Variable, ""),
		tx(core.Income, "salary", "17", core.Fixed, ""),
	}

	got := Summarize(txs, nil)

	sum := 0.0
	for _, c := range got.CategorySummaries {
		sum += c.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v, want 100", sum)
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize(nil, nil)
	if got.CategorySummaries == nil || len(got.CategorySummaries) != 0 {
		t.Fatalf("expected empty category list, got %+v", got.CategorySummaries)
	}
	if !got.MonthlyIncome.IsZero() || !got.MonthlyExpenses.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestSummarize_MissingCategoryFallsBackToUnknown(t *testing.T) {
	got := Summarize([]core.Transaction{tx(core.Expense, "", "10", core.Variable, "")}, nil)
	if len(got.CategorySummaries) != 1 || got.CategorySummaries[0].CategoryID != core.UnknownCategoryID {
		t.Fatalf("expected unknown category, got %+v", got.CategorySummaries)
	}
	if got.CategorySummaries[0].Percentage != 100 {
		t.Fatalf("single category should be 100%%, got %v", got.CategorySummaries[0].Percentage)
	}
}

func TestSummarize_UncataloguedCategoriesShareUnknownBucket(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Expense, "", "10", core.Variable, ""),
		tx(core.Expense, "legacy-pets", "15", core.Variable, ""),
		tx(core.Expense, "typo-fod", "5", core.Variable, ""),
		tx(core.Expense, "food", "20", core.Variable, ""),
	}
	got := Summarize(txs, nil)
	if len(got.CategorySummaries) != 2 {
		t.Fatalf("expected food and unknown only, got %+v", got.CategorySummaries)
	}
	for _, cs := range got.CategorySummaries {
		switch cs.CategoryID {
		case core.UnknownCategoryID:
			if !cs.Amount.Equal(dec("30")) || cs.Count != 3 {
				t.Errorf("unknown bucket = %+v, want 30 across 3", cs)
			}
		case "food":
		default:
			t.Errorf("unexpected category %q", cs.CategoryID)
		}
	}
}

func TestInMonth(t *testing.T) {
	in := tx(core.Expense, "food", "1", core.Variable, "")
	out := in
	out.Date = core.NewDate(2024, time.June, 1)

	got := InMonth([]core.Transaction{in, out}, core.MonthRef{Year: 2024, Month: time.May})
	if len(got) != 1 || !got[0].Date.Equal(in.Date) {
		t.Fatalf("unexpected filter result %+v", got)
	}
}
