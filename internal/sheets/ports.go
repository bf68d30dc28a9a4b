package sheets

import (
	"context"

	"carteira/internal/billing"
)

// Ports for outbound adapters.
type (
	// BillExporter publishes a month's previous-bill summary to an
	// external sheet. Exporting the same month twice replaces its rows.
	BillExporter interface {
		ExportBills(ctx context.Context, userID string, bills billing.PreviousBills) error
	}
)
