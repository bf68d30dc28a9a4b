// Package billing holds the credit-card calculations: limit consumption,
// previous-month bills and installment series.
package billing

import (
	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

// purchaseKey identifies one logical purchase across its installment rows.
// group is set for rows carrying a purchase group id; the other fields are
// the legacy composite identity used when it is missing.
type purchaseKey struct {
	group    string
	title    string
	start    int64
	original string
}

func keyOf(tx core.Transaction) purchaseKey {
	inst := tx.Installment
	if inst.PurchaseGroupID != "" {
		return purchaseKey{group: inst.PurchaseGroupID}
	}
	return purchaseKey{
		title:    tx.DisplayTitle(),
		start:    inst.StartDate.UnixMilli(),
		original: inst.OriginalAmount.String(),
	}
}

// originalAmount falls back to the row amount when the original total is missing.
func originalAmount(tx core.Transaction) decimal.Decimal {
	if !tx.HasInstallment() || tx.Installment.OriginalAmount.IsZero() {
		return tx.Amount
	}
	return tx.Installment.OriginalAmount
}

// UsedLimit returns the credit limit consumed by the expense rows of a single
// card. The caller filters by card and period.
//
// One-shot purchases count their amount. Installment rows are collapsed per
// purchase and count the purchase's original amount once, however many rows
// of the series are present. Negative amounts pass through unclamped.
func UsedLimit(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	seen := make(map[purchaseKey]struct{})

	for _, tx := range txs {
		if !tx.HasInstallment() || tx.Installment.Total <= 1 {
			total = total.Add(tx.Amount)
			continue
		}

		key := keyOf(tx)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		total = total.Add(originalAmount(tx))
	}

	return total
}
