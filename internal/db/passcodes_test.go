package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavePasscode(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	expires := time.Now().Add(10 * time.Minute)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+passcodes.+ON\s+CONFLICT\s+\(user_id\)\s+DO\s+UPDATE`).
		WithArgs(id, "code-hash", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, db.SavePasscode(context.Background(), id, "code-hash", expires))
}

func TestGetPasscode(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`(?s)SELECT\s+user_id,\s*code_hash.+FROM\s+passcodes`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "code_hash", "expires_at", "attempts", "sent_at"}).
			AddRow(id.String(), "h", now.Add(time.Minute), 2, now))

	p, err := db.GetPasscode(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "h", p.CodeHash)
	assert.Equal(t, 2, p.Attempts)

	mock.ExpectQuery(`FROM\s+passcodes`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "code_hash", "expires_at", "attempts", "sent_at"}))
	_, err = db.GetPasscode(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIncrementPasscodeAttempts(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`(?s)UPDATE\s+passcodes\s+SET\s+attempts\s*=\s*attempts\s*\+\s*1.+RETURNING\s+attempts`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(3))

	n, err := db.IncrementPasscodeAttempts(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDeletePasscode(t *testing.T) {
	db, mock := newMockDB(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE\s+FROM\s+passcodes`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, db.DeletePasscode(context.Background(), id))
}

func TestRevocations(t *testing.T) {
	db, mock := newMockDB(t)
	tokenID := uuid.New()
	expires := time.Now().Add(time.Hour)

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+revoked_tokens.+DO\s+NOTHING`).
		WithArgs(tokenID, expires).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, db.RevokeToken(context.Background(), tokenID, expires))

	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs(tokenID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	revoked, err := db.IsTokenRevoked(context.Background(), tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	now := time.Now()
	mock.ExpectExec(`DELETE\s+FROM\s+revoked_tokens\s+WHERE\s+expires_at\s*<\s*\$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := db.PurgeExpiredRevocations(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}
