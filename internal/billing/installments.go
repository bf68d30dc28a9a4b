package billing

import (
	"fmt"

	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

// ExpandInstallments splits a purchase into an installment series.
//
// base.Amount is the purchase total and base.Date the first installment date.
// Row i is dated i months after the first, with the day clamped to the month
// length. Each row carries the per-installment amount truncated to cents; the
// last row absorbs the remainder so the series sums to the purchase total.
func ExpandInstallments(base core.Transaction, total int, groupID string) ([]core.Transaction, error) {
	if total < 1 {
		return nil, fmt.Errorf("expand installments: %w", core.ErrInvalidInstallment)
	}
	if base.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("expand installments: %w", core.ErrInvalidAmount)
	}

	original := base.Amount
	per := core.TruncateCents(original.Div(decimal.NewFromInt(int64(total))))
	if per.Sign() <= 0 {
		return nil, fmt.Errorf("expand installments: amount %s too small for %d installments: %w",
			original, total, core.ErrInvalidAmount)
	}
	last := original.Sub(per.Mul(decimal.NewFromInt(int64(total - 1))))

	rows := make([]core.Transaction, total)
	for i := 0; i < total; i++ {
		row := base
		row.ID = ""
		row.Date = core.AddMonthsClamped(base.Date, i)
		row.Amount = per
		if i == total-1 {
			row.Amount = last
		}
		row.Installment = &core.Installment{
			Current:         i + 1,
			Total:           total,
			OriginalAmount:  original,
			StartDate:       base.Date,
			PurchaseGroupID: groupID,
		}
		rows[i] = row
	}

	return rows, nil
}
