package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks the address has a plausible shape.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword enforces the sign-up strength rules: at least 6
// characters with one upper-case letter, one digit and one special character.
func ValidatePassword(pwd string) error {
	if len(pwd) < 6 || len(pwd) > 72 {
		return fmt.Errorf("password must be 6-72 characters")
	}
	var hasUpper, hasDigit, hasSpecial bool
	for _, ch := range pwd {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsDigit(ch):
			hasDigit = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasDigit || !hasSpecial {
		return fmt.Errorf("password needs an upper-case letter, a digit and a special character")
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD calendar date.
func ValidateDate(dateStr string) error {
	if dateStr == "" {
		return fmt.Errorf("date is empty")
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return fmt.Errorf("invalid date format: %w", err)
	}
	return nil
}

// ValidateCategory checks the label is present and of sane length.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category is empty")
	}
	if len(category) > 64 {
		return fmt.Errorf("category too long, max 64 characters")
	}
	return nil
}

// ValidateAmountCents checks a transaction amount is positive and below the
// sanity cap (ten million units).
func ValidateAmountCents(cents int64) error {
	if cents <= 0 {
		return fmt.Errorf("amount must be positive, got %d cents", cents)
	}
	if cents >= 10_000_000_00 {
		return fmt.Errorf("amount too large, got %d cents", cents)
	}
	return nil
}
