package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/resume-builder/internal/logging"
)

// Mailer delivers one-time passcodes to an email address.
type Mailer interface {
	SendPasscode(ctx context.Context, email, code string) error
}

// LogMailer writes passcodes to the log instead of sending mail. It is the
// development transport.
type LogMailer struct {
	Logger *zap.Logger
}

// SendPasscode implements Mailer.
func (m LogMailer) SendPasscode(_ context.Context, email, code string) error {
	logger := m.Logger
	logging.OrNop(logger).Info("verification code issued", zap.String("email", email), zap.String("code", code))
	return nil
}
