package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/validation"
)

// Sentinels matched by errors.Is against an *APIError.
var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrStaleWrite     = errors.New("resume changed since it was loaded")
	ErrNotFound       = errors.New("not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrResendCooldown = errors.New("verification code recently sent")
	ErrNotVerified    = errors.New("email not verified")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status     int
	Code       string
	Message    string
	Field      string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api error %d %s (%s): %s", e.Status, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Is maps API error codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrStaleWrite:
		return e.Code == "stale_write"
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrEmailExists:
		return e.Code == "email_exists"
	case ErrResendCooldown:
		return e.Code == "resend_cooldown"
	case ErrNotVerified:
		return e.Code == "not_verified"
	}
	return false
}

// NetworkError means the API could not be reached or answered garbage.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// Category classifies err for a user-facing message.
func Category(err error) validation.Category {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return validation.CategoryNetwork
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	switch {
	case apiErr.Status == http.StatusTooManyRequests:
		return validation.CategoryRateLimit
	case apiErr.Code == "validation_error", apiErr.Code == "invalid_request", apiErr.Code == "invalid_template":
		return validation.CategoryValidation
	case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusForbidden,
		apiErr.Code == "email_exists", apiErr.Code == "invalid_code":
		return validation.CategoryAuth
	case apiErr.Code == "stale_write", apiErr.Status == http.StatusNotFound:
		return validation.CategoryStorage
	case apiErr.Status >= http.StatusInternalServerError:
		return validation.CategoryNetwork
	}
	return ""
}
