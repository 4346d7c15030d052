// Package validation holds the form predicates run before any auth call
// reaches the network. Every function is total: it returns nil or one of the
// sentinel errors below and never panics.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	MinUsernameLength = 3
)

// Error texts are shown to the user verbatim.
var (
	ErrEmailBlank   = errors.New("Email can't be blank")
	ErrEmailInvalid = errors.New("Please enter a valid email address")

	ErrPasswordBlank    = errors.New("Password can't be blank")
	ErrPasswordTooShort = errors.New("Password must be at least 6 characters")

	ErrUsernameBlank    = errors.New("Username can't be blank")
	ErrUsernameTooShort = errors.New("Username must be at least 3 characters")
	ErrUsernameInvalid  = errors.New("Username can only contain letters, numbers, and underscores")
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// ValidateEmail accepts a local@domain.tld shape.
func ValidateEmail(s string) error {
	if s == "" {
		return ErrEmailBlank
	}
	if !emailPattern.MatchString(s) {
		return ErrEmailInvalid
	}
	return nil
}

func ValidatePassword(s string) error {
	if s == "" {
		return ErrPasswordBlank
	}
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateUsername checks the trimmed value.
func ValidateUsername(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrUsernameBlank
	}
	if utf8.RuneCountInString(s) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	if !usernamePattern.MatchString(s) {
		return ErrUsernameInvalid
	}
	return nil
}
