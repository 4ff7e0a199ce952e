// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/validation"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	// userIDKey is the context key for storing the authenticated user ID.
	userIDKey ContextKey = "userID"
	// tokenKey holds the raw bearer token so handlers can revoke it.
	tokenKey ContextKey = "token"
)

// ErrUnavailable is wrapped by validators when the token could not be
// checked, as opposed to being rejected. The middleware answers 503.
var ErrUnavailable = errors.New("session check unavailable")

// TokenValidator validates bearer tokens. Validation may consult storage
// (for revoked sessions), so it takes the request context.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (UserIDGetter, error)
}

// UserIDGetter is an interface for extracting user ID from token claims.
type UserIDGetter interface {
	GetUserID() uuid.UUID
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the
// user ID and the token to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := BearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", validation.CategoryAuth)
				return
			}

			claims, err := validator.ValidateToken(r.Context(), tokenString)
			if errors.Is(err, ErrUnavailable) {
				writeError(w, http.StatusServiceUnavailable, "unavailable", validation.CategoryNetwork)
				return
			}
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", validation.CategoryAuth)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.GetUserID())
			ctx = context.WithValue(ctx, tokenKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (uuid.UUID, error) {
	userID, ok := r.Context().Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user ID not found in request context")
	}
	return userID, nil
}

// GetToken returns the bearer token the request was authenticated with.
func GetToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenKey).(string)
	return token, ok && token != ""
}

// UserIDKey returns the context key for user ID (for testing purposes).
func UserIDKey() ContextKey {
	return userIDKey
}

func writeError(w http.ResponseWriter, status int, code string, category validation.Category) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": validation.GenericErrorMessage(category),
	})
}
