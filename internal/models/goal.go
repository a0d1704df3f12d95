package models

import "time"

// FinancialGoal is a savings target tracked per user. CurrentAmount may
// exceed TargetAmount; progress is left unclamped.
type FinancialGoal struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"index;not null"`
	Name         string `gorm:"size:128;not null"`
	TargetCents  int64  `gorm:"not null"`
	CurrentCents int64  `gorm:"not null;default:0"`
	Color        string `gorm:"size:32;default:bg-blue-500"` // display color tag
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// Progress returns percent complete, unclamped; 0 when the target is 0.
func (g *FinancialGoal) Progress() float64 {
	if g.TargetCents == 0 {
		return 0
	}
	return float64(g.CurrentCents) / float64(g.TargetCents) * 100
}
