package expense

import (
	"time"

	"github.com/jlsanzbreton/smart-receipt-analyzer2/internal/category"
)

// CheckBreaches computes threshold breaches for the calendar month and year
// of now. It is a pure function: every invocation recomputes from scratch,
// which is fine at single-user record volumes. A threshold with amount 0 is
// inactive; spend equal to the threshold does not breach, only strictly
// greater does.
func CheckBreaches(expenses []*Expense, thresholds []Threshold, now time.Time) []Breach {
	spentByCategory := make(map[category.Category]float64)
	for _, expense := range expenses {
		date, err := time.Parse("2006-01-02", expense.TransactionDate)
		if err != nil {
			continue
		}
		if date.Year() == now.Year() && date.Month() == now.Month() {
			spentByCategory[expense.Category] += expense.TotalAmount
		}
	}

	breaches := make([]Breach, 0)
	for _, threshold := range thresholds {
		if threshold.Amount <= 0 {
			continue
		}
		if spent := spentByCategory[threshold.Category]; spent > threshold.Amount {
			breaches = append(breaches, Breach{
				Category:  threshold.Category,
				Spent:     spent,
				Threshold: threshold.Amount,
			})
		}
	}
	return breaches
}
