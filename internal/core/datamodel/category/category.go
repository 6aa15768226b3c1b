package category

import "time"

// Category rows are ordered by ID, which preserves insertion order.
type Category struct {
	ID        int64     `gorm:"primaryKey" bson:"-" json:"-"`
	Name      string    `gorm:"column:name;uniqueIndex;not null" bson:"name" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" bson:"createdAt,omitempty" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
