package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const userColumns = `id, email, full_name, password_hash, verified, created_at, updated_at`

// CreateUser inserts an unverified account. A taken email returns ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, email, fullName, passwordHash string) (*User, error) {
	row := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (email, full_name, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		email, fullName, passwordHash,
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser returns the account with the given id
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns the account registered with email
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// MarkVerified flags the account as having confirmed its email
func (db *DB) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return expectAffected(res, "failed to verify user")
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Verified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func expectAffected(res sql.Result, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return nil
}
