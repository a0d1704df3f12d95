package models

import "time"

// Session stores user login sessions so logout can revoke issued tokens.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"` // UUID
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"index;not null"`
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// PasswordReset is a one-shot token for the password recovery flow.
type PasswordReset struct {
	Token     string    `gorm:"primaryKey;size:64"` // UUID
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UsedAt    *time.Time
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
