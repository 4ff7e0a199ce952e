package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is an account row
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Passcode is the single live one-time passcode of an account
type Passcode struct {
	UserID    uuid.UUID
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	SentAt    time.Time
}

// jsonColumn scans a JSONB column into dst. NULL leaves dst untouched.
type jsonColumn struct {
	dst any
}

func (c jsonColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, c.dst)
	case string:
		return json.Unmarshal([]byte(v), c.dst)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", src)
	}
}

// jsonValue encodes v for a JSONB parameter. A nil pointer encodes as NULL.
type jsonValue struct {
	v any
}

func (j jsonValue) Value() (driver.Value, error) {
	if j.v == nil {
		return nil, nil
	}
	data, err := json.Marshal(j.v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return data, nil
}
