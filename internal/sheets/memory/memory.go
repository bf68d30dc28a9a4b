package memory

import (
	"context"
	"slices"
	"sync"

	"carteira/internal/billing"
	"carteira/internal/core"
)

type exportKey struct {
	userID string
	month  core.MonthRef
}

// Exporter keeps exported bills in memory. Used when no spreadsheet is
// configured and in tests.
type Exporter struct {
	mu      sync.Mutex
	exports map[exportKey]billing.PreviousBills
	calls   int
}

func New() *Exporter {
	return &Exporter{exports: make(map[exportKey]billing.PreviousBills)}
}

// ExportBills stores a copy of bills, replacing any earlier export of the
// same user and month.
func (e *Exporter) ExportBills(_ context.Context, userID string, bills billing.PreviousBills) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	bills.Bills = slices.Clone(bills.Bills)
	e.exports[exportKey{userID: userID, month: bills.Reference}] = bills
	e.calls++
	return nil
}

// Exported returns the last export for the user and month.
func (e *Exporter) Exported(userID string, month core.MonthRef) (billing.PreviousBills, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bills, ok := e.exports[exportKey{userID: userID, month: month}]
	return bills, ok
}

// Calls counts ExportBills invocations.
func (e *Exporter) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
