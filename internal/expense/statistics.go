package expense

import (
	"sort"
	"time"

	"github.com/frahmantamala/payable/internal"
	"github.com/frahmantamala/payable/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
)

const (
	PeriodAll     = ""
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodYearly  = "yearly"
)

type CategoryTotal struct {
	Category string  `json:"category"`
	Count    int64   `json:"count"`
	Amount   float64 `json:"amount"`
}

// Statistics mirrors the dashboard totals.
type Statistics struct {
	Period         string          `json:"period,omitempty"`
	TotalExpenses  int64           `json:"totalExpenses"`
	PaidExpenses   int64           `json:"paidExpenses"`
	UnpaidExpenses int64           `json:"unpaidExpenses"`
	TotalAmount    float64         `json:"totalAmount"`
	PaidAmount     float64         `json:"paidAmount"`
	UnpaidAmount   float64         `json:"unpaidAmount"`
	ByCategory     []CategoryTotal `json:"byCategory"`
}

// PeriodRange converts a period view into an inclusive expense-date range
// relative to now. Dates compare as YYYY-MM-DD strings.
func PeriodRange(period string, now time.Time) (expenseDatamodel.DateRange, error) {
	today := now.Format(validation.DateLayout)
	switch period {
	case PeriodAll:
		return expenseDatamodel.DateRange{}, nil
	case PeriodDaily:
		return expenseDatamodel.DateRange{From: today, To: today}, nil
	case PeriodWeekly:
		return expenseDatamodel.DateRange{From: now.AddDate(0, 0, -7).Format(validation.DateLayout), To: today}, nil
	case PeriodMonthly:
		month := now.Format("2006-01")
		return expenseDatamodel.DateRange{From: month + "-01", To: month + "-31"}, nil
	case PeriodYearly:
		year := now.Format("2006")
		return expenseDatamodel.DateRange{From: year + "-01-01", To: year + "-12-31"}, nil
	default:
		return expenseDatamodel.DateRange{}, internal.NewValidationFieldError("period",
			"period must be one of: daily, weekly, monthly, yearly", internal.ErrCodeValidationFailed)
	}
}

// FromAggregates folds (category, status) buckets into Statistics.
func FromAggregates(rows []expenseDatamodel.Aggregate) Statistics {
	var stats Statistics
	byCategory := map[string]*CategoryTotal{}

	for _, row := range rows {
		stats.TotalExpenses += row.Count
		stats.TotalAmount += row.Amount
		if row.Status == StatusPaid {
			stats.PaidExpenses += row.Count
			stats.PaidAmount += row.Amount
		}

		ct, ok := byCategory[row.Category]
		if !ok {
			ct = &CategoryTotal{Category: row.Category}
			byCategory[row.Category] = ct
		}
		ct.Count += row.Count
		ct.Amount += row.Amount
	}

	stats.UnpaidExpenses = stats.TotalExpenses - stats.PaidExpenses
	stats.UnpaidAmount = stats.TotalAmount - stats.PaidAmount

	stats.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		stats.ByCategory = append(stats.ByCategory, *ct)
	}
	sort.Slice(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Category < stats.ByCategory[j].Category
	})

	return stats
}

// Aggregate buckets expenses by category and status, keeping only those
// whose date falls in r.
func Aggregate(expenses []*Expense, r expenseDatamodel.DateRange) []expenseDatamodel.Aggregate {
	type key struct{ category, status string }
	buckets := map[key]*expenseDatamodel.Aggregate{}
	var order []key

	for _, e := range expenses {
		if !r.Contains(e.Date) {
			continue
		}
		k := key{e.Category, e.Status}
		b, ok := buckets[k]
		if !ok {
			b = &expenseDatamodel.Aggregate{Category: e.Category, Status: e.Status}
			buckets[k] = b
			order = append(order, k)
		}
		b.Count++
		b.Amount += e.Amount
	}

	rows := make([]expenseDatamodel.Aggregate, len(order))
	for i, k := range order {
		rows[i] = *buckets[k]
	}
	return rows
}

// Summarize computes statistics over an in-memory list.
func Summarize(expenses []*Expense) Statistics {
	return FromAggregates(Aggregate(expenses, expenseDatamodel.DateRange{}))
}
