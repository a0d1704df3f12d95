package models

import "time"

// Transaction kinds form a closed enum; anything else is rejected at write
// time before it can reach the aggregators.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction represents a single dated income or expense record.
type Transaction struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Description string `gorm:"size:255;not null"`
	Type        string `gorm:"size:16;index;not null"` // income / expense
	Category    string `gorm:"size:64;index;not null"`
	AmountCents int64  `gorm:"not null"` // store in cents to avoid float
	Date        time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
