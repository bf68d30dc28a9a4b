package google

import (
	"testing"
	"time"

	"carteira/internal/billing"
	"carteira/internal/core"

	"github.com/shopspring/decimal"
)

func may2024Bills(bills ...billing.BillSummary) billing.PreviousBills {
	return billing.PreviousBills{
		Reference: core.MonthRef{Year: 2024, Month: time.May},
		Bills:     bills,
	}
}

func TestPlanExport_EmptySheetWritesHeader(t *testing.T) {
	plan := planExport(nil, "u1", may2024Bills(
		billing.BillSummary{ID: "c1", Name: "Nubank", LastDigits: "1234", Total: decimal.RequireFromString("150.5")},
	))

	if len(plan.Updates) != 0 {
		t.Fatalf("updates = %d, want 0", len(plan.Updates))
	}
	if len(plan.Appends) != 2 {
		t.Fatalf("appends = %d, want header plus one row", len(plan.Appends))
	}
	if plan.Appends[0][0] != "Mes" {
		t.Errorf("first append is not the header: %v", plan.Appends[0])
	}
	row := plan.Appends[1]
	if row[0] != "2024-05" || row[1] != "u1" || row[2] != "c1" || row[5] != "150.50" {
		t.Errorf("row = %v", row)
	}
}

func TestPlanExport_RewritesExistingRows(t *testing.T) {
	values := [][]interface{}{
		header,
		{"2024-04", "u1", "c1", "Nubank", "1234", "90.00", false},
		{"2024-05", "u1", "c1", "Nubank", "1234", "100.00", false},
		{"2024-05", "u2", "c1", "Nubank", "1234", "7.00", false},
		{"2024-05", "u1", "c2", "Inter", "9999", "40.00", true},
	}
	plan := planExport(values, "u1", may2024Bills(
		billing.BillSummary{ID: "c1", Name: "Nubank", LastDigits: "1234", Total: decimal.NewFromInt(120)},
		billing.BillSummary{ID: "c3", Name: "XP", Total: decimal.NewFromInt(5)},
	))

	if len(plan.Updates) != 2 {
		t.Fatalf("updates = %+v, want 2", plan.Updates)
	}
	if plan.Updates[0].Row != 3 || plan.Updates[0].Values[5] != "120.00" {
		t.Errorf("c1 update = %+v", plan.Updates[0])
	}
	// c2 has no bill this time
	if plan.Updates[1].Row != 5 || plan.Updates[1].Values[5] != "0.00" || plan.Updates[1].Values[6] != false {
		t.Errorf("c2 update = %+v", plan.Updates[1])
	}
	if plan.Updates[1].Values[3] != "Inter" {
		t.Errorf("zeroed row lost its name: %v", plan.Updates[1].Values)
	}
	if len(plan.Appends) != 1 || plan.Appends[0][2] != "c3" {
		t.Errorf("appends = %v, want only c3", plan.Appends)
	}
}

func TestRowRange(t *testing.T) {
	if got := rowRange("Faturas", 7); got != "Faturas!A7:G7" {
		t.Errorf("rowRange = %q", got)
	}
}
