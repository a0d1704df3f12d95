package models

import "time"

// User represents application user credentials and login metadata.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}

// UserProfile holds display preferences, created at sign-up in a separate
// row so a failed profile insert can be reported apart from the account.
type UserProfile struct {
	ID                 uint   `gorm:"primaryKey"`
	UserID             uint   `gorm:"uniqueIndex;not null"`
	FirstName          string `gorm:"size:64"`
	LastName           string `gorm:"size:64"`
	PreferredCurrency  string `gorm:"size:8;default:EUR"`
	Theme              string `gorm:"size:16;default:light"`
	Language           string `gorm:"size:8;default:pt"`
	EmailNotifications bool   `gorm:"default:true"`
	PushNotifications  bool   `gorm:"default:true"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
