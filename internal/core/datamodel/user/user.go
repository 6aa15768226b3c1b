package user

import "time"

type User struct {
	ID        string    `gorm:"primaryKey;column:id" bson:"id" json:"id"`
	Name      string    `gorm:"column:name;not null" bson:"name" json:"name"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" bson:"email" json:"email"`
	Role      string    `gorm:"column:role;not null" bson:"role" json:"role"`
	Status    string    `gorm:"column:status;not null;default:active" bson:"status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" bson:"createdAt,omitempty" json:"-"`
}

func (User) TableName() string {
	return "users"
}
