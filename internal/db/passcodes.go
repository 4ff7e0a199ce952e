package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SavePasscode stores a new passcode for the account, replacing any previous
// one and resetting the attempt counter.
func (db *DB) SavePasscode(ctx context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO passcodes (user_id, code_hash, expires_at, attempts, sent_at)
		 VALUES ($1, $2, $3, 0, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET code_hash = $2, expires_at = $3, attempts = 0, sent_at = NOW()`,
		userID, codeHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save passcode: %w", err)
	}
	return nil
}

// GetPasscode returns the live passcode of the account
func (db *DB) GetPasscode(ctx context.Context, userID uuid.UUID) (*Passcode, error) {
	var p Passcode
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, code_hash, expires_at, attempts, sent_at
		 FROM passcodes WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.CodeHash, &p.ExpiresAt, &p.Attempts, &p.SentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get passcode: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get passcode: %w", err)
	}
	return &p, nil
}

// IncrementPasscodeAttempts records a failed verification and returns the new count
func (db *DB) IncrementPasscodeAttempts(ctx context.Context, userID uuid.UUID) (int, error) {
	var attempts int
	err := db.conn.QueryRowContext(ctx,
		`UPDATE passcodes SET attempts = attempts + 1
		 WHERE user_id = $1
		 RETURNING attempts`, userID,
	).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to record passcode attempt: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record passcode attempt: %w", err)
	}
	return attempts, nil
}

// DeletePasscode removes the passcode once it has been used
func (db *DB) DeletePasscode(ctx context.Context, userID uuid.UUID) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM passcodes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete passcode: %w", err)
	}
	return nil
}
