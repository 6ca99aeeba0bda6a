// ABOUTME: Identity and password validation rules applied at registration
// ABOUTME: Usernames are 3-30 chars of [a-zA-Z0-9_-]; passwords need mixed case and a digit

package auth

import (
	"fmt"
	"regexp"
	"unicode"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks the username against the allowed pattern.
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-30 characters of letters, digits, underscore or hyphen", ErrInvalidIdentity)
	}
	return nil
}

// ValidateEmail performs a shallow shape check on the email address.
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRe.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrInvalidIdentity)
	}
	return nil
}

// ValidatePassword enforces the password strength policy: at least eight
// characters with one uppercase letter, one lowercase letter, and a digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrWeakPassword)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return fmt.Errorf("%w: password needs an uppercase letter, a lowercase letter, and a digit", ErrWeakPassword)
	}
	return nil
}
