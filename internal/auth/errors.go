package auth

import (
	"fmt"
	"time"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrNotVerified indicates the account has not confirmed its email yet
type ErrNotVerified struct {
	Email string
}

func (e *ErrNotVerified) Error() string {
	return fmt.Sprintf("email not verified: %s", e.Email)
}

// ErrInvalidCode indicates a wrong, expired or exhausted passcode
type ErrInvalidCode struct {
	Reason string
}

func (e *ErrInvalidCode) Error() string {
	return fmt.Sprintf("invalid verification code: %s", e.Reason)
}

// ErrResendCooldown indicates a passcode was sent too recently
type ErrResendCooldown struct {
	Remaining time.Duration
}

func (e *ErrResendCooldown) Error() string {
	return fmt.Sprintf("verification code recently sent, retry in %s", e.Remaining.Round(time.Second))
}

// ErrUnauthorized indicates a missing, invalid, expired or revoked session token
type ErrUnauthorized struct {
	Reason string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
