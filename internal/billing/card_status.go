package billing

import (
	"time"

	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

// CardStatus is the limit picture of one credit card for a billing month.
type CardStatus struct {
	Card      core.PaymentMethod `json:"card"`
	Used      decimal.Decimal    `json:"used"`
	Available decimal.Decimal    `json:"available"`
	// DueDate is the bill due date inside the month, zero when the card has none.
	DueDate time.Time `json:"dueDate"`
}

// CardExpenses selects the expense rows of one card dated in month.
func CardExpenses(cardID string, txs []core.Transaction, month core.MonthRef) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.PaymentMethodID != cardID {
			continue
		}
		if !month.Contains(tx.Date) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// CreditStatus computes used and available limit for card in month.
// Available may be negative when the card is over its limit.
func CreditStatus(card core.PaymentMethod, txs []core.Transaction, month core.MonthRef) CardStatus {
	used := UsedLimit(CardExpenses(card.ID, txs, month))
	status := CardStatus{
		Card:      card,
		Used:      used,
		Available: card.CreditLimit.Sub(used),
	}
	if card.DueDate > 0 {
		lastDay := time.Date(month.Year, month.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
		day := card.DueDate
		if day > lastDay {
			day = lastDay
		}
		status.DueDate = time.Date(month.Year, month.Month, day, 0, 0, 0, 0, time.UTC)
	}
	return status
}
