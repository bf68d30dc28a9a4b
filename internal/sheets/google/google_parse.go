package google

import (
	"fmt"
	"sort"
	"strings"

	"carteira/internal/billing"
)

var header = []interface{}{"Mes", "Usuario", "Cartao", "Nome", "Final", "Total", "Manual"}

const (
	colMonth = iota
	colUser
	colCard
)

type rowUpdate struct {
	Row    int // 1-based sheet row
	Values []interface{}
}

type exportPlan struct {
	Updates []rowUpdate
	Appends [][]interface{}
}

// planExport matches the bills against the rows already in the sheet
// (values as read from A1). Rows of the same user and month are rewritten
// in place, new cards are appended, and cards that no longer have a bill
// are zeroed.
func planExport(values [][]interface{}, userID string, bills billing.PreviousBills) exportPlan {
	month := bills.Reference.Key()
	existing := map[string]int{}
	for i, raw := range values {
		row := toStrings(raw)
		if i == 0 && len(row) > 0 && row[0] == header[0] {
			continue
		}
		if safeGet(row, colMonth) != month || safeGet(row, colUser) != userID {
			continue
		}
		existing[safeGet(row, colCard)] = i + 1
	}

	var plan exportPlan
	if len(values) == 0 {
		plan.Appends = append(plan.Appends, header)
	}
	seen := map[string]bool{}
	for _, bill := range bills.Bills {
		seen[bill.ID] = true
		row := billRow(month, userID, bill)
		if n, ok := existing[bill.ID]; ok {
			plan.Updates = append(plan.Updates, rowUpdate{Row: n, Values: row})
			continue
		}
		plan.Appends = append(plan.Appends, row)
	}
	for cardID, n := range existing {
		if seen[cardID] {
			continue
		}
		plan.Updates = append(plan.Updates, rowUpdate{Row: n, Values: zeroRow(values[n-1])})
	}
	sort.Slice(plan.Updates, func(i, j int) bool { return plan.Updates[i].Row < plan.Updates[j].Row })
	return plan
}

func billRow(month, userID string, bill billing.BillSummary) []interface{} {
	return []interface{}{
		month,
		userID,
		bill.ID,
		bill.Name,
		bill.LastDigits,
		bill.Total.StringFixed(2),
		bill.ManualExists,
	}
}

func zeroRow(raw []interface{}) []interface{} {
	row := toStrings(raw)
	for len(row) < len(header) {
		row = append(row, "")
	}
	out := make([]interface{}, len(header))
	for i := range out {
		out[i] = row[i]
	}
	out[5] = "0.00"
	out[6] = false
	return out
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:G%d", sheet, row, row)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
