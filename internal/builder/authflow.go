package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/client"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/validation"
)

const (
	// ResendCooldown is the number of ticks a resend stays disabled.
	ResendCooldown = 60
	// CodeLength is the length of a verification code.
	CodeLength = config.PasscodeLength

	minNameLength = 2
)

var (
	ErrResendCooldown   = errors.New("resend is disabled until the cooldown elapses")
	ErrNoPendingSignUp  = errors.New("no sign-up is awaiting verification")
	ErrInvalidForm      = errors.New("form input is invalid")
	ErrMalformedCode    = errors.New("verification code must be 6 digits")
	ErrAuthInProgress   = errors.New("an authentication request is already running")
	ErrUnknownFormField = errors.New("unknown form field")
)

// AuthClient is the auth collaborator the flow sequences calls against.
type AuthClient interface {
	SignUp(ctx context.Context, req auth.SignUpRequest) error
	VerifyCode(ctx context.Context, email, code string) (*auth.Session, error)
	ResendCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentAccount(ctx context.Context, token string) (*auth.Account, error)
}

// View is the auth screen currently shown.
type View string

const (
	ViewSignIn View = "signIn"
	ViewSignUp View = "signUp"
	ViewVerify View = "verify"
)

// Form is the sign-in / sign-up form content.
type Form struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// AuthFlow sequences the authentication screens around the auth collaborator.
// Credential checks beyond local form validation are left to the server.
type AuthFlow struct {
	client   AuthClient
	session  *Session
	notifier Notifier
	logger   *zap.Logger

	tickInterval    time.Duration
	onAuthenticated func(ctx context.Context)
	onSignedOut     func()

	mu       sync.Mutex
	view     View
	form     Form
	password validation.PasswordValidation
	cooldown int
	busy     bool
}

// NewAuthFlow creates a flow writing to session. notifier and logger may be nil.
func NewAuthFlow(c AuthClient, session *Session, notifier Notifier, logger *zap.Logger) *AuthFlow {
	if notifier == nil {
		notifier = discard{}
	}
	logger = logging.OrNop(logger)
	return &AuthFlow{
		client:       c,
		session:      session,
		notifier:     notifier,
		logger:       logger,
		tickInterval: time.Second,
		view:         ViewSignIn,
		password:     validation.ValidatePassword(""),
	}
}

func (f *AuthFlow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// SetView switches between the sign-in and sign-up forms. Entered data is kept.
func (f *AuthFlow) SetView(v View) error {
	if v != ViewSignIn && v != ViewSignUp {
		return fmt.Errorf("cannot switch to view %q", v)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = v
	return nil
}

func (f *AuthFlow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// PasswordValidation is the live policy check of the entered password.
func (f *AuthFlow) PasswordValidation() validation.PasswordValidation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.password
}

// SetField stores one form field. Name and email are sanitized as typed;
// the password is re-checked against the policy.
func (f *AuthFlow) SetField(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case "email":
		f.form.Email = validation.SanitizeInput(value, validation.MaxEmailLength)
	case "password":
		f.form.Password = value
		f.password = validation.ValidatePassword(value)
	case "confirmPassword":
		f.form.ConfirmPassword = value
	case "fullName":
		f.form.FullName = validation.SanitizeInput(value, validation.MaxNameLength)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormField, field)
	}
	return nil
}

// Busy reports whether an auth request is in flight.
func (f *AuthFlow) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Cooldown is the number of ticks until a resend is allowed again.
func (f *AuthFlow) Cooldown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldown
}

// Tick advances the resend cooldown by one unit.
func (f *AuthFlow) Tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cooldown > 0 {
		f.cooldown--
	}
}

// RunCooldown ticks the cooldown down to zero, arming one single-shot timer
// per tick. It returns early when ctx is done.
func (f *AuthFlow) RunCooldown(ctx context.Context) {
	for f.Cooldown() > 0 {
		timer := time.NewTimer(f.tickInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			f.Tick()
		}
	}
}

// SignUp submits the sign-up form. On success the flow waits for the
// emailed code; on failure it stays on the sign-up form with input intact.
func (f *AuthFlow) SignUp(ctx context.Context) error {
	form, err := f.begin(true)
	if err != nil {
		return err
	}
	defer f.end()

	err = f.client.SignUp(ctx, auth.SignUpRequest{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
	})
	if err != nil {
		f.logger.Warn("sign up failed", zap.String("email", form.Email), zap.Error(err))
		f.notifier.Notify(f.authFailure("Sign up failed", err))
		return err
	}

	f.session.awaitVerification(form.Email)
	f.mu.Lock()
	f.view = ViewVerify
	f.cooldown = ResendCooldown
	f.mu.Unlock()

	f.notifier.Notify(success("Account created successfully!", "Enter the 6-digit code sent to your email."))
	return nil
}

// SignIn submits the sign-in form. An unverified account is sent to the
// verification screen with resend immediately available.
func (f *AuthFlow) SignIn(ctx context.Context) error {
	form, err := f.begin(false)
	if err != nil {
		return err
	}
	defer f.end()

	sess, err := f.client.SignIn(ctx, form.Email, form.Password)
	if errors.Is(err, client.ErrNotVerified) {
		f.session.awaitVerification(form.Email)
		f.mu.Lock()
		f.view = ViewVerify
		f.cooldown = 0
		f.mu.Unlock()
		f.notifier.Notify(Notification{
			Level:    LevelInfo,
			Title:    "Email not verified",
			Message:  "Request a new code to verify your email.",
			Category: validation.CategoryAuth,
		})
		return err
	}
	if err != nil {
		f.logger.Warn("sign in failed", zap.String("email", form.Email), zap.Error(err))
		f.notifier.Notify(f.authFailure("Sign in failed", err))
		return err
	}

	f.notifier.Notify(success("Welcome back!", "Successfully signed in to your account."))
	f.authenticated(ctx, sess)
	return nil
}

// Verify submits a verification code for the pending sign-up. A code that
// is not six digits is rejected without a request.
func (f *AuthFlow) Verify(ctx context.Context, code string) error {
	if !wellFormedCode(code) {
		f.notifier.Notify(invalid("Invalid OTP", "Please enter a 6-digit verification code."))
		return ErrMalformedCode
	}
	email := f.session.PendingEmail()
	if f.session.State() != StatePendingVerification || email == "" {
		return ErrNoPendingSignUp
	}
	if !f.acquire() {
		return ErrAuthInProgress
	}
	defer f.end()

	sess, err := f.client.VerifyCode(ctx, email, code)
	if err != nil {
		f.logger.Warn("verification failed", zap.String("email", email), zap.Error(err))
		f.notifier.Notify(f.authFailure("Verification failed", err))
		return err
	}

	f.notifier.Notify(success("Email verified successfully!", "Welcome to Smart Resume Builder!"))
	f.authenticated(ctx, sess)
	return nil
}

// Resend asks for a new verification code. While the cooldown runs the
// request is refused locally.
func (f *AuthFlow) Resend(ctx context.Context) error {
	if f.Cooldown() > 0 {
		return ErrResendCooldown
	}
	email := f.session.PendingEmail()
	if f.session.State() != StatePendingVerification || email == "" {
		return ErrNoPendingSignUp
	}
	if !f.acquire() {
		return ErrAuthInProgress
	}
	defer f.end()

	if err := f.client.ResendCode(ctx, email); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && errors.Is(err, client.ErrResendCooldown) && apiErr.RetryAfter > 0 {
			f.mu.Lock()
			f.cooldown = int((apiErr.RetryAfter + f.tickInterval - 1) / f.tickInterval)
			f.mu.Unlock()
		}
		f.logger.Warn("resend failed", zap.String("email", email), zap.Error(err))
		f.notifier.Notify(f.authFailure("Failed to resend code", err))
		return err
	}

	f.mu.Lock()
	f.cooldown = ResendCooldown
	f.mu.Unlock()
	f.notifier.Notify(success("Verification code sent", "A new code has been sent to your email."))
	return nil
}

// Back leaves the verification screen for the sign-up form.
func (f *AuthFlow) Back() {
	if f.session.State() == StatePendingVerification {
		f.session.clear()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = ViewSignUp
	f.cooldown = 0
}

// SignOut revokes the session. The local session is cleared even when the
// revocation request fails.
func (f *AuthFlow) SignOut(ctx context.Context) error {
	if !f.session.Authenticated() {
		return nil
	}
	token := f.session.Token()
	f.session.beginSignOut()

	err := f.client.SignOut(ctx, token)
	if err != nil {
		f.logger.Warn("sign out request failed", zap.Error(err))
	}

	f.session.clear()
	f.mu.Lock()
	f.view = ViewSignIn
	f.form = Form{}
	f.password = validation.ValidatePassword("")
	f.mu.Unlock()
	if f.onSignedOut != nil {
		f.onSignedOut()
	}
	return err
}

// Bootstrap resumes a session from a previously issued token. A rejected
// token leaves the flow unauthenticated without a notification.
func (f *AuthFlow) Bootstrap(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	account, err := f.client.CurrentAccount(ctx, token)
	if client.IsUnauthorized(err) {
		f.logger.Info("stored session is no longer valid")
		f.session.clear()
		return nil
	}
	if err != nil {
		f.logger.Warn("session check failed", zap.Error(err))
		f.notifier.Notify(failure("Could not restore session", validation.CategoryNetwork, err))
		return err
	}

	f.session.restore(token, account)
	if f.onAuthenticated != nil {
		f.onAuthenticated(ctx)
	}
	return nil
}

func (f *AuthFlow) authenticated(ctx context.Context, sess *auth.Session) {
	f.session.signIn(sess)
	f.mu.Lock()
	f.form.Password = ""
	f.form.ConfirmPassword = ""
	f.password = validation.ValidatePassword("")
	f.cooldown = 0
	f.mu.Unlock()
	if f.onAuthenticated != nil {
		f.onAuthenticated(ctx)
	}
}

// authFailure hides backend detail behind the category message; requests
// that never reached the API read as network errors.
func (f *AuthFlow) authFailure(title string, err error) Notification {
	n := failure(title, validation.CategoryAuth, err)
	if n.Category == validation.CategoryNetwork {
		n.Title = "An error occurred"
	}
	return n
}

// begin validates the form and marks the flow busy.
func (f *AuthFlow) begin(signUp bool) (Form, error) {
	f.mu.Lock()
	form := f.form
	check := f.password
	f.mu.Unlock()

	if n, ok := validateForm(form, check, signUp); !ok {
		f.notifier.Notify(n)
		return Form{}, ErrInvalidForm
	}
	if !f.acquire() {
		return Form{}, ErrAuthInProgress
	}
	return form, nil
}

func (f *AuthFlow) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	return true
}

func (f *AuthFlow) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
}

func validateForm(form Form, password validation.PasswordValidation, signUp bool) (Notification, bool) {
	if !validation.ValidateEmail(form.Email) {
		return invalid("Invalid email", "Please enter a valid email address."), false
	}
	if !signUp {
		return Notification{}, true
	}
	if !password.IsValid {
		return invalid("Password requirements not met", "Please ensure your password meets all requirements."), false
	}
	if form.Password != form.ConfirmPassword {
		return invalid("Passwords don't match", "Please ensure both password fields match."), false
	}
	if len([]rune(form.FullName)) < minNameLength {
		return invalid("Name required", "Please enter your full name (at least 2 characters)."), false
	}
	return Notification{}, true
}

func wellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
