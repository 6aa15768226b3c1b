package userrequest

import "time"

type UserRequest struct {
	ID          string     `gorm:"primaryKey;column:id" bson:"id" json:"id"`
	Name        string     `gorm:"column:name;not null" bson:"name" json:"name"`
	Email       string     `gorm:"column:email;not null" bson:"email" json:"email"`
	RequestedAt time.Time  `gorm:"column:requested_at;not null;index" bson:"requestedAt" json:"requestedAt"`
	Status      string     `gorm:"column:status;not null;index" bson:"status" json:"status"`
	Role        *string    `gorm:"column:role" bson:"role,omitempty" json:"role,omitempty"`
	ApprovedBy  *string    `gorm:"column:approved_by" bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time `gorm:"column:approved_at" bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
}

func (UserRequest) TableName() string {
	return "user_requests"
}

// Transition is the patch applied by a conditional status change. All four
// columns are written; nil pointers clear the stored value.
type Transition struct {
	Status     string
	Role       *string
	ApprovedBy *string
	ApprovedAt *time.Time
}

// Apply writes t onto r.
func (t Transition) Apply(r *UserRequest) {
	r.Status = t.Status
	r.Role = t.Role
	r.ApprovedBy = t.ApprovedBy
	r.ApprovedAt = t.ApprovedAt
}
