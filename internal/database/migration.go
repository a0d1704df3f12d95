package database

import (
	"fmt"

	"finance-tracker/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Transaction{},
		&models.FinancialGoal{},
		&models.Session{},
		&models.PasswordReset{},
		&models.ActivityLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
