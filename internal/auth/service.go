// Package auth implements account sign-up with one-time passcode
// verification, password sign-in and JWT sessions that can be revoked.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/validation"
	"go.uber.org/zap"
)

// MinFullNameLength is the shortest accepted full name, in characters.
const MinFullNameLength = 2

// Store is the persistence the service needs. *db.DB implements it.
type Store interface {
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (*db.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SavePasscode(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error
	GetPasscode(ctx context.Context, userID uuid.UUID) (*db.Passcode, error)
	IncrementPasscodeAttempts(ctx context.Context, userID uuid.UUID) (int, error)
	DeletePasscode(ctx context.Context, userID uuid.UUID) error
	RevokeToken(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error)
}

// Account is the public view of a user.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is an issued sign-in.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   Account   `json:"account"`
}

// SignUpRequest represents a request to create an account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
}

// SignInRequest represents a password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyRequest carries a one-time passcode.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

// ResendRequest asks for a fresh passcode.
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Service provides business logic for authentication operations
type Service struct {
	store     Store
	passwords *config.PasswordConfig
	passcodes config.PasscodeConfig
	tokens    *TokenService
	mailer    Mailer
	logger    *zap.Logger
	now       func() time.Time
	newCode   func(length int) (string, error)

	checkPassword func(pw, hash string) bool
	dummyOnce     sync.Once
	dummyHash     string
}

// NewService creates a new Service with the given dependencies
func NewService(store Store, passwords *config.PasswordConfig, passcodes config.PasscodeConfig, tokens *TokenService, mailer Mailer, logger *zap.Logger) *Service {
	logger = logging.OrNop(logger)
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &Service{
		store:         store,
		passwords:     passwords,
		passcodes:     passcodes,
		tokens:        tokens,
		mailer:        mailer,
		logger:        logger,
		now:           time.Now,
		newCode:       generateCode,
		checkPassword: passwords.VerifyPassword,
	}
}

// NormalizeEmail sanitizes and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(validation.SanitizeInput(email, validation.MaxEmailLength))
}

// SignUp creates an unverified account and sends it a passcode.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*Account, error) {
	email := NormalizeEmail(req.Email)
	fullName := validation.SanitizeInput(req.FullName, validation.MaxNameLength)

	if !validation.ValidateEmail(email) {
		return nil, &ErrValidation{Field: "email", Message: "must be a valid email address"}
	}
	if pv := validation.ValidatePassword(req.Password); !pv.IsValid {
		return nil, &ErrValidation{Field: "password", Message: strings.Join(pv.Errors, "; ")}
	}
	if utf8.RuneCountInString(fullName) < MinFullNameLength {
		return nil, &ErrValidation{Field: "full_name", Message: fmt.Sprintf("must be at least %d characters", MinFullNameLength)}
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, &ErrEmailAlreadyExists{Email: email}
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	passwordHash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, fullName, passwordHash)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, &ErrEmailAlreadyExists{Email: email}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issuePasscode(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created", zap.String("user_id", user.ID.String()))
	account := toAccount(user)
	return &account, nil
}

// VerifyCode confirms the account's email with its passcode and signs it in.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	email = NormalizeEmail(email)
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &ErrInvalidCode{Reason: "no pending verification"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Verified {
		return nil, &ErrInvalidCode{Reason: "no pending verification"}
	}

	passcode, err := s.store.GetPasscode(ctx, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &ErrInvalidCode{Reason: "no pending verification"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get passcode: %w", err)
	}

	if passcode.Attempts >= s.passcodes.MaxAttempts {
		return nil, &ErrInvalidCode{Reason: "too many attempts"}
	}
	if !s.now().Before(passcode.ExpiresAt) {
		return nil, &ErrInvalidCode{Reason: "code expired"}
	}
	if !s.passwords.VerifyCode(strings.TrimSpace(code), passcode.CodeHash) {
		if _, err := s.store.IncrementPasscodeAttempts(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to record attempt: %w", err)
		}
		return nil, &ErrInvalidCode{Reason: "code does not match"}
	}

	if err := s.store.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark verified: %w", err)
	}
	if err := s.store.DeletePasscode(ctx, user.ID); err != nil {
		s.logger.Warn("failed to delete used passcode", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	user.Verified = true

	s.logger.Info("account verified", zap.String("user_id", user.ID.String()))
	return s.issueSession(user)
}

// ResendCode sends a fresh passcode. Unknown or already verified addresses
// succeed silently so the endpoint does not reveal which emails exist.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		s.logger.Debug("resend requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user by email: %w", err)
	}
	if user.Verified {
		return nil
	}

	passcode, err := s.store.GetPasscode(ctx, user.ID)
	switch {
	case err == nil:
		if elapsed := s.now().Sub(passcode.SentAt); elapsed < s.passcodes.ResendCooldown {
			return &ErrResendCooldown{Remaining: s.passcodes.ResendCooldown - elapsed}
		}
	case !errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("failed to get passcode: %w", err)
	}

	return s.issuePasscode(ctx, user)
}

// SignIn checks a password and issues a session for a verified account.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		// Same error and the same bcrypt work as a wrong password.
		s.checkPassword(password, s.unknownUserHash())
		return nil, &ErrInvalidCredentials{}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if !s.checkPassword(password, user.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}
	if !user.Verified {
		return nil, &ErrNotVerified{Email: email}
	}

	return s.issueSession(user)
}

// unknownUserHash is a hash at the configured cost that no password matches.
func (s *Service) unknownUserHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwords.HashPassword(uuid.NewString())
		if err != nil {
			s.logger.Error("failed to build placeholder password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// Authenticate validates a session token, including its revocation status.
func (s *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, &ErrUnauthorized{Reason: err.Error()}
	}
	tokenID, _ := claims.TokenID()

	revoked, err := s.store.IsTokenRevoked(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if revoked {
		return nil, &ErrUnauthorized{Reason: "session signed out"}
	}
	return claims, nil
}

// SignOut revokes the session token.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	tokenID, _ := claims.TokenID()

	if err := s.store.RevokeToken(ctx, tokenID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.logger.Info("signed out", zap.String("user_id", claims.UserID.String()))
	return nil
}

// CurrentAccount resolves a session token to its account.
func (s *Service) CurrentAccount(ctx context.Context, token string) (*Account, error) {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &ErrUnauthorized{Reason: "account no longer exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	account := toAccount(user)
	return &account, nil
}

func (s *Service) issuePasscode(ctx context.Context, user *db.User) error {
	code, err := s.newCode(s.passcodes.Length)
	if err != nil {
		return fmt.Errorf("failed to generate passcode: %w", err)
	}
	codeHash, err := s.passwords.HashCode(code)
	if err != nil {
		return fmt.Errorf("failed to hash passcode: %w", err)
	}
	if err := s.store.SavePasscode(ctx, user.ID, codeHash, s.now().Add(s.passcodes.TTL)); err != nil {
		return fmt.Errorf("failed to store passcode: %w", err)
	}
	if err := s.mailer.SendPasscode(ctx, user.Email, code); err != nil {
		return fmt.Errorf("failed to send passcode: %w", err)
	}
	return nil
}

func (s *Service) issueSession(user *db.User) (*Session, error) {
	token, claims, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Account:   toAccount(user),
	}, nil
}

func toAccount(u *db.User) Account {
	return Account{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

func generateCode(length int) (string, error) {
	var sb strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
