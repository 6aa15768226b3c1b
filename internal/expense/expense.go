package expense

import (
	"sort"
	"time"

	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
)

const (
	StatusPaid    = "paid"
	StatusNotPaid = "not_paid"
)

// Expense is a spending record. PaidBy and PaidAt are set exactly when the
// status is paid.
type Expense struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	PaidBy      *string   `json:"paidBy,omitempty"`
	PaidAt      *string   `json:"paidAt,omitempty"`
}

func (e *Expense) IsPaid() bool {
	return e.Status == StatusPaid
}

// SortNewestFirst orders expenses by CreatedAt, most recent first.
func SortNewestFirst(expenses []*Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
	})
}

func ToDataModel(e *Expense) *expenseDatamodel.Expense {
	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt
		createdAt = &t
	}
	return &expenseDatamodel.Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Status:      e.Status,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   createdAt,
		PaidBy:      e.PaidBy,
		PaidAt:      e.PaidAt,
	}
}

func FromDataModel(e *expenseDatamodel.Expense) *Expense {
	out := &Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		Category:    e.Category,
		Date:        e.Date,
		Status:      e.Status,
		CreatedBy:   e.CreatedBy,
		PaidBy:      e.PaidBy,
		PaidAt:      e.PaidAt,
	}
	if e.CreatedAt != nil {
		out.CreatedAt = *e.CreatedAt
	}
	return out
}

func FromDataModelSlice(expenses []*expenseDatamodel.Expense) []*Expense {
	result := make([]*Expense, len(expenses))
	for i, e := range expenses {
		result[i] = FromDataModel(e)
	}
	return result
}
