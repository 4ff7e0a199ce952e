// Package server provides the HTTP JSON API of the resume builder: accounts
// and sessions, resume storage, the template catalog, preview and export.
package server

import (
	"errors"
	"math"
	"net/http"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/resume"
	"github.com/jonathan/resume-builder/internal/templates"
	"github.com/jonathan/resume-builder/internal/validation"
)

// Machine-readable error codes carried in ErrorResponse.Error.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidation         = "validation_error"
	CodeEmailExists        = "email_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNotVerified        = "not_verified"
	CodeInvalidCode        = "invalid_code"
	CodeResendCooldown     = "resend_cooldown"
	CodeUnauthorized       = "unauthorized"
	CodeNotFound           = "not_found"
	CodeStaleWrite         = "stale_write"
	CodeInvalidTemplate    = "invalid_template"
	CodeRateLimited        = "rate_limit_exceeded"
	CodeInternal           = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response. Message is a
// generic, user-safe text; backend detail is only logged.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

// errorBody builds the response body for err.
func errorBody(err error) ErrorResponse {
	_, body := classify(err)
	return body
}

func classify(err error) (int, ErrorResponse) {
	var (
		exists      *auth.ErrEmailAlreadyExists
		credentials *auth.ErrInvalidCredentials
		notVerified *auth.ErrNotVerified
		badCode     *auth.ErrInvalidCode
		cooldown    *auth.ErrResendCooldown
		unauth      *auth.ErrUnauthorized
		invalid     *auth.ErrValidation
		fieldErr    *resume.FieldError
		reqErr      *requestError
	)

	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, body(CodeInvalidRequest, validation.CategoryValidation, reqErr.Field)
	case errors.As(err, &invalid):
		return http.StatusBadRequest, body(CodeValidation, validation.CategoryValidation, invalid.Field)
	case errors.As(err, &fieldErr):
		return http.StatusBadRequest, body(CodeValidation, validation.CategoryValidation, fieldErr.Field)
	case errors.As(err, &exists):
		return http.StatusConflict, body(CodeEmailExists, validation.CategoryAuth, "")
	case errors.As(err, &credentials):
		return http.StatusUnauthorized, body(CodeInvalidCredentials, validation.CategoryAuth, "")
	case errors.As(err, &notVerified):
		return http.StatusForbidden, body(CodeNotVerified, validation.CategoryAuth, "")
	case errors.As(err, &badCode):
		return http.StatusBadRequest, body(CodeInvalidCode, validation.CategoryAuth, "code")
	case errors.As(err, &cooldown):
		b := body(CodeResendCooldown, validation.CategoryRateLimit, "")
		b.RetryAfter = int(math.Ceil(cooldown.Remaining.Seconds()))
		return http.StatusTooManyRequests, b
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, body(CodeUnauthorized, validation.CategoryAuth, "")
	case errors.Is(err, db.ErrStaleWrite):
		return http.StatusConflict, body(CodeStaleWrite, validation.CategoryStorage, "")
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, body(CodeNotFound, validation.CategoryStorage, "")
	case errors.Is(err, templates.ErrTemplateNotFound):
		return http.StatusBadRequest, body(CodeInvalidTemplate, validation.CategoryValidation, "template_id")
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:   CodeInternal,
			Message: validation.GenericErrorMessage(""),
		}
	}
}

func body(code string, category validation.Category, field string) ErrorResponse {
	return ErrorResponse{Error: code, Message: validation.GenericErrorMessage(category), Field: field}
}

// requestError reports a body or path parameter the handler could not accept.
type requestError struct {
	Field  string
	Reason string
}

func (e *requestError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return "invalid request: " + e.Field + " " + e.Reason
}
