package validation

import "unicode"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// PasswordValidation is the outcome of checking a password against the policy.
type PasswordValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	// Strength counts satisfied requirements (0-5). Informational only.
	Strength int `json:"strength"`
}

type passwordRequirement struct {
	message string
	met     func(s passwordShape) bool
}

type passwordShape struct {
	length                      int
	upper, lower, digit, symbol bool
}

var passwordRequirements = []passwordRequirement{
	{"Password must be at least 8 characters long", func(s passwordShape) bool { return s.length >= MinPasswordLength }},
	{"Password must contain at least one uppercase letter", func(s passwordShape) bool { return s.upper }},
	{"Password must contain at least one lowercase letter", func(s passwordShape) bool { return s.lower }},
	{"Password must contain at least one number", func(s passwordShape) bool { return s.digit }},
	{"Password must contain at least one special character", func(s passwordShape) bool { return s.symbol }},
}

// ValidatePassword checks length and character class coverage.
// Errors are listed in requirement order: length, uppercase, lowercase, digit, symbol.
func ValidatePassword(value string) PasswordValidation {
	shape := passwordShape{}
	for _, r := range value {
		shape.length++
		switch {
		case unicode.IsUpper(r):
			shape.upper = true
		case unicode.IsLower(r):
			shape.lower = true
		case unicode.IsDigit(r):
			shape.digit = true
		case unicode.IsSpace(r):
		default:
			shape.symbol = true
		}
	}

	result := PasswordValidation{Errors: []string{}}
	for _, req := range passwordRequirements {
		if req.met(shape) {
			result.Strength++
		} else {
			result.Errors = append(result.Errors, req.message)
		}
	}
	result.IsValid = len(result.Errors) == 0
	return result
}
