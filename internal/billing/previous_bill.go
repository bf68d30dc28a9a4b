package billing

import (
	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

// BillSummary is one card's bill for a month.
type BillSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	LastDigits string          `json:"lastDigits,omitempty"`
	Color      string          `json:"color,omitempty"`
	Total      decimal.Decimal `json:"total"`
	// ManualExists is informational: at least one manual-bill row contributed.
	ManualExists bool `json:"manualExists"`
}

// PreviousBills is the result of AggregatePreviousBills.
type PreviousBills struct {
	Reference core.MonthRef   `json:"reference"`
	Bills     []BillSummary   `json:"bills"`
	Total     decimal.Decimal `json:"total"`
}

// AggregatePreviousBills builds one bill per card for the month before current.
//
// Itemized expenses and manual-bill rows dated in that month are summed per
// card; both live in the same transaction set and are not deduplicated
// against each other. Cards without a positive total are omitted. Bills keep
// the order of cards.
func AggregatePreviousBills(cards []core.PaymentMethod, txs []core.Transaction, current core.MonthRef) PreviousBills {
	ref := current.Previous()
	result := PreviousBills{
		Reference: ref,
		Bills:     []BillSummary{},
		Total:     decimal.Zero,
	}
	if len(cards) == 0 {
		return result
	}

	bills := make([]BillSummary, len(cards))
	index := make(map[string]int, len(cards))
	for i, card := range cards {
		bills[i] = BillSummary{
			ID:         card.ID,
			Name:       card.Name,
			LastDigits: card.LastDigits,
			Color:      card.Color,
			Total:      decimal.Zero,
		}
		if _, dup := index[card.ID]; !dup {
			index[card.ID] = i
		}
	}

	for _, tx := range txs {
		if tx.Type != core.Expense || !ref.Contains(tx.Date) {
			continue
		}
		i, ok := index[tx.PaymentMethodID]
		if !ok {
			continue
		}
		bills[i].Total = bills[i].Total.Add(tx.Amount)
		if tx.IsManualBill || tx.IsLegacyManualBill() {
			bills[i].ManualExists = true
		}
	}

	for _, b := range bills {
		if b.Total.Sign() <= 0 {
			continue
		}
		result.Bills = append(result.Bills, b)
		result.Total = result.Total.Add(b.Total)
	}

	return result
}
