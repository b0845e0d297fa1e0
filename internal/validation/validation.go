package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrInvalidName      = errors.New("name must be between 2 and 100 characters")
	ErrInvalidColor     = errors.New("color must be a hex value like #4A90E2")
)

// ValidateEmail checks that email is a bare address with a local part and
// a domain
func ValidateEmail(email string) error {
	if email == "" || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum password length
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateName checks a parent or child display name
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < 2 || n > 100 {
		return ErrInvalidName
	}
	return nil
}

// ValidateColor accepts "#RRGGBB" avatar colors
func ValidateColor(color string) error {
	if len(color) != 7 || color[0] != '#' {
		return ErrInvalidColor
	}
	for _, c := range color[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return ErrInvalidColor
		}
	}
	return nil
}
