// Package validation provides input checks shared by the auth flow, the
// resume forms and the HTTP API: sanitising, email and password policy, and
// user-safe error messages.
package validation

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Field length limits applied to user input.
const (
	MaxNameLength  = 100
	MaxEmailLength = 320
	MaxTextLength  = 5000
	MaxShortLength = 200
)

var validate = validator.New()

// SanitizeInput removes characters unsafe for markup ('<', '>') and control
// characters other than newline and tab, trims surrounding whitespace, and
// truncates the result to at most maxLength runes.
func SanitizeInput(value string, maxLength int) string {
	if maxLength <= 0 || value == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '<' || r == '>':
			return -1
		case r == '\n' || r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, value)
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) > maxLength {
		runes = runes[:maxLength]
	}
	return string(runes)
}

// ValidateEmail reports whether value has the shape of an email address.
func ValidateEmail(value string) bool {
	if value == "" {
		return false
	}
	return validate.Var(value, "required,email,max=320") == nil
}
