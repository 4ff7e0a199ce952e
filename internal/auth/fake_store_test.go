package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
)

type fakeStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*db.User
	passcodes map[uuid.UUID]*db.Passcode
	revoked   map[uuid.UUID]time.Time
	now       func() time.Time
	failWith  error
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		users:     map[uuid.UUID]*db.User{},
		passcodes: map[uuid.UUID]*db.Passcode{},
		revoked:   map[uuid.UUID]time.Time{},
		now:       now,
	}
}

func (f *fakeStore) CreateUser(_ context.Context, email, fullName, passwordHash string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			return nil, db.ErrDuplicate
		}
	}
	u := &db.User{ID: uuid.New(), Email: email, FullName: fullName, PasswordHash: passwordHash, CreatedAt: f.now(), UpdatedAt: f.now()}
	f.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeStore) MarkVerified(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (f *fakeStore) SavePasscode(_ context.Context, userID uuid.UUID, codeHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passcodes[userID] = &db.Passcode{UserID: userID, CodeHash: codeHash, ExpiresAt: expiresAt, SentAt: f.now()}
	return nil
}

func (f *fakeStore) GetPasscode(_ context.Context, userID uuid.UUID) (*db.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.passcodes[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) IncrementPasscodeAttempts(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.passcodes[userID]
	if !ok {
		return 0, db.ErrNotFound
	}
	p.Attempts++
	return p.Attempts, nil
}

func (f *fakeStore) DeletePasscode(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.passcodes, userID)
	return nil
}

func (f *fakeStore) RevokeToken(_ context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = expiresAt
	return nil
}

func (f *fakeStore) IsTokenRevoked(_ context.Context, tokenID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[tokenID]
	return ok, nil
}

// captureMailer records the last code per email.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
}

func (m *captureMailer) SendPasscode(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	m.codes[email] = code
	m.sent++
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}
