// Package stats holds the dashboard aggregations: pure functions over a
// snapshot of transactions already fetched for one user. Amounts stay in
// int64 cents end to end, so sums carry no floating-point drift.
package stats

import (
	"time"

	"finance-tracker/internal/models"
)

// DashboardStats is derived, never persisted: recomputed on demand from the
// transaction set and a reference date.
type DashboardStats struct {
	TotalBalanceCents          int64 `json:"total_balance_cents"`
	MonthlyIncomeCents         int64 `json:"monthly_income_cents"`
	MonthlyExpensesCents       int64 `json:"monthly_expenses_cents"`
	PreviousMonthIncomeCents   int64 `json:"previous_month_income_cents"`
	PreviousMonthExpensesCents int64 `json:"previous_month_expenses_cents"`
}

// CategoryTotal is one chart-ready (label, total) pair.
type CategoryTotal struct {
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
}

// dateOf strips the time-of-day so month windows compare calendar dates.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthWindows returns the first day of the reference date's month, and the
// first and last days of the previous month. The last day of the previous
// month is day 0 of the current one.
func MonthWindows(now time.Time) (firstOfCurrent, firstOfPrevious, lastOfPrevious time.Time) {
	firstOfCurrent = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	firstOfPrevious = firstOfCurrent.AddDate(0, -1, 0)
	lastOfPrevious = firstOfCurrent.AddDate(0, 0, -1)
	return
}

// Compute derives the dashboard figures from the full transaction set and a
// reference date. The total balance runs over the entire input; the monthly
// figures partition by calendar month, and a transaction dated two months
// back belongs to neither monthly set. Unrecognized transaction types
// contribute to no sum.
func Compute(transactions []models.Transaction, now time.Time) DashboardStats {
	firstOfCurrent, firstOfPrevious, lastOfPrevious := MonthWindows(now)

	var s DashboardStats
	for i := range transactions {
		t := &transactions[i]
		d := dateOf(t.Date)

		switch t.Type {
		case models.KindIncome:
			s.TotalBalanceCents += t.AmountCents
		case models.KindExpense:
			s.TotalBalanceCents -= t.AmountCents
		default:
			continue
		}

		switch {
		case !d.Before(firstOfCurrent):
			if t.Type == models.KindIncome {
				s.MonthlyIncomeCents += t.AmountCents
			} else {
				s.MonthlyExpensesCents += t.AmountCents
			}
		case !d.Before(firstOfPrevious) && !d.After(lastOfPrevious):
			if t.Type == models.KindIncome {
				s.PreviousMonthIncomeCents += t.AmountCents
			} else {
				s.PreviousMonthExpensesCents += t.AmountCents
			}
		}
	}
	return s
}

// ExpensesByCategory groups expense transactions by exact category label and
// sums amounts per group. Pairs come out in first-occurrence order, and a
// category with no expenses is never emitted.
func ExpensesByCategory(transactions []models.Transaction) []CategoryTotal {
	idx := make(map[string]int)
	var totals []CategoryTotal

	for i := range transactions {
		t := &transactions[i]
		if t.Type != models.KindExpense {
			continue
		}
		j, ok := idx[t.Category]
		if !ok {
			j = len(totals)
			idx[t.Category] = j
			totals = append(totals, CategoryTotal{Category: t.Category})
		}
		totals[j].AmountCents += t.AmountCents
	}
	return totals
}
