// Package summary rolls transaction sets up into monthly totals and
// per-category breakdowns.
package summary

import (
	"sort"

	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type categoryTotal struct {
	amount decimal.Decimal
	count  int
}

// Summarize accumulates income and expense totals in one pass. Expenses are
// further split by frequency, and by food-voucher payment methods when
// methods is not nil. Every transaction also feeds the per-category map;
// percentages are |amount| over the sum of |amount| across categories, with
// the divisor floored at 1.
//
// CategorySummaries is sorted by amount descending, then by id, and is empty
// (not nil) when txs is empty.
func Summarize(txs []core.Transaction, methods core.PaymentMethodResolver) core.FinancialSummary {
	s := core.FinancialSummary{
		MonthlyIncome:       decimal.Zero,
		MonthlyExpenses:     decimal.Zero,
		FixedExpenses:       decimal.Zero,
		VariableExpenses:    decimal.Zero,
		FoodVoucherExpenses: decimal.Zero,
		CategorySummaries:   []core.CategorySummary{},
	}

	byCategory := make(map[string]*categoryTotal)

	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.MonthlyIncome = s.MonthlyIncome.Add(tx.Amount)
		case core.Expense:
			s.MonthlyExpenses = s.MonthlyExpenses.Add(tx.Amount)
			if tx.Frequency == core.Fixed {
				s.FixedExpenses = s.FixedExpenses.Add(tx.Amount)
			} else {
				s.VariableExpenses = s.VariableExpenses.Add(tx.Amount)
			}
			if methods != nil && tx.PaymentMethodID != "" && methods.Resolve(tx.PaymentMethodID).Type == core.Food {
				s.FoodVoucherExpenses = s.FoodVoucherExpenses.Add(tx.Amount)
			}
		}

		// Ids missing from the catalog share the unknown bucket.
		id := core.LookupCategory(tx.CategoryID).ID
		ct, ok := byCategory[id]
		if !ok {
			ct = &categoryTotal{amount: decimal.Zero}
			byCategory[id] = ct
		}
		ct.amount = ct.amount.Add(tx.Amount)
		ct.count++
	}

	if len(byCategory) == 0 {
		return s
	}

	absTotal := decimal.Zero
	for _, ct := range byCategory {
		absTotal = absTotal.Add(ct.amount.Abs())
	}
	divisor := decimal.Max(absTotal, decimal.NewFromInt(1))

	for id, ct := range byCategory {
		pct, _ := ct.amount.Abs().Div(divisor).Mul(hundred).Float64()
		s.CategorySummaries = append(s.CategorySummaries, core.CategorySummary{
			CategoryID: id,
			Amount:     ct.amount,
			Count:      ct.count,
			Percentage: pct,
		})
	}

	sort.Slice(s.CategorySummaries, func(i, j int) bool {
		a, b := s.CategorySummaries[i], s.CategorySummaries[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		return a.CategoryID < b.CategoryID
	})

	return s
}

// InMonth keeps the transactions dated in month.
func InMonth(txs []core.Transaction, month core.MonthRef) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if month.Contains(tx.Date) {
			out = append(out, tx)
		}
	}
	return out
}
