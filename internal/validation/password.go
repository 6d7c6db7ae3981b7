// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

// ValidatePassword checks the password policy: at least 8 characters, at most
// 72 bytes, with an upper-case letter, a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", maxPasswordBytes)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsSpace(r):
			return fmt.Errorf("password must not contain whitespace")
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	return nil
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ValidatePhone accepts 10 to 15 digits with an optional leading plus.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("invalid phone number")
	}
	return nil
}
