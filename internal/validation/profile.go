// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"unicode/utf8"
)

const (
	// MinUsernameLen and MaxUsernameLen bound the trimmed display name.
	// Lengths are counted in runes so multi-byte names get the full range.
	MinUsernameLen = 1
	MaxUsernameLen = 20

	maxPasswordLen = 128
)

// ValidateUsername checks if a (pre-trimmed) username meets requirements
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLen {
		return fmt.Errorf("username is required")
	}
	if n > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	// Cap length to keep bcrypt input bounded.
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}
	return nil
}
