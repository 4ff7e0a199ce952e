package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RevokeToken records a session token id as signed out until it would have
// expired anyway.
func (db *DB) RevokeToken(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_id, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (token_id) DO NOTHING`,
		tokenID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked reports whether the token id has been signed out
func (db *DB) IsTokenRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	var revoked bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID,
	).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredRevocations deletes revocations whose tokens have expired
func (db *DB) PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge revocations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge revocations: %w", err)
	}
	return n, nil
}
