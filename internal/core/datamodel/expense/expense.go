package expense

import "time"

type Expense struct {
	ID          string     `gorm:"primaryKey;column:id" bson:"id" json:"id"`
	Description string     `gorm:"column:description;not null" bson:"description" json:"description"`
	Amount      float64    `gorm:"column:amount;not null" bson:"amount" json:"amount"`
	Category    string     `gorm:"column:category;not null;index" bson:"category" json:"category"`
	Date        string     `gorm:"column:date;type:varchar(10);not null;index" bson:"date" json:"date"`
	Status      string     `gorm:"column:status;not null;default:not_paid" bson:"status" json:"status"`
	CreatedBy   string     `gorm:"column:created_by" bson:"createdBy" json:"createdBy"`
	CreatedAt   *time.Time `gorm:"column:created_at" bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	PaidBy      *string    `gorm:"column:paid_by" bson:"paidBy,omitempty" json:"paidBy,omitempty"`
	PaidAt      *string    `gorm:"column:paid_at;type:varchar(10)" bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

func (Expense) TableName() string {
	return "expenses"
}

// PaymentPatch is the single-record update written when an expense is
// marked paid or unpaid. Nil pointers clear the stored value.
type PaymentPatch struct {
	Status string
	PaidBy *string
	PaidAt *string
}

// Aggregate is one (category, status) bucket of expense totals.
type Aggregate struct {
	Category string  `db:"category" bson:"category"`
	Status   string  `db:"status" bson:"status"`
	Count    int64   `db:"count" bson:"count"`
	Amount   float64 `db:"amount" bson:"amount"`
}

// DateRange bounds an aggregate by expense date, inclusive. Empty bounds
// are open.
type DateRange struct {
	From string
	To   string
}

// Contains reports whether date (YYYY-MM-DD) falls within r.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}
