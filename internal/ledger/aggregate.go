package ledger

import (
	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// RecentLimit is the number of rows in the recent list.
const RecentLimit = 5

// TrendPoint is one point of the spending chart.
type TrendPoint struct {
	Label  string
	Amount decimal.Decimal
}

// Recent returns the first min(n, len(records)) records.
func Recent(records []core.ExpenseRecord, n int) []core.ExpenseRecord {
	if n < 0 {
		n = 0
	}
	if n > len(records) {
		n = len(records)
	}
	return append([]core.ExpenseRecord(nil), records[:n]...)
}

// Total sums every amount.
func Total(records []core.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Trend groups records by day label (year ignored) and sums each group. Points come
// in order of first occurrence while iterating records, which for a newest-first
// ledger is not necessarily calendar order.
func Trend(records []core.ExpenseRecord) []TrendPoint {
	points := []TrendPoint{}
	index := map[string]int{}
	for _, r := range records {
		label := r.Date.DayLabel()
		if i, ok := index[label]; ok {
			points[i].Amount = points[i].Amount.Add(r.Amount)
			continue
		}
		index[label] = len(points)
		points = append(points, TrendPoint{Label: label, Amount: r.Amount})
	}
	return points
}
