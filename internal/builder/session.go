package builder

import (
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/auth"
)

// State is the authentication state of a builder session.
type State string

const (
	StateUnauthenticated     State = "unauthenticated"
	StatePendingVerification State = "pendingVerification"
	StateAuthenticated       State = "authenticated"
	StateSigningOut          State = "signingOut"
)

// Session holds the current account and bearer token. It is the single
// source of truth for who is signed in; the auth flow writes it and the
// resume hook reads it.
type Session struct {
	mu           sync.RWMutex
	state        State
	token        string
	account      *auth.Account
	expiresAt    time.Time
	pendingEmail string
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{state: StateUnauthenticated}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Account returns a copy of the signed-in account, or nil.
func (s *Session) Account() *auth.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	acc := *s.account
	return &acc
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// PendingEmail is the address awaiting a verification code.
func (s *Session) PendingEmail() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingEmail
}

// Authenticated reports whether the session carries a usable token.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateAuthenticated && s.token != ""
}

func (s *Session) signIn(sess *auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := sess.Account
	s.state = StateAuthenticated
	s.token = sess.Token
	s.account = &acc
	s.expiresAt = sess.ExpiresAt
	s.pendingEmail = ""
}

func (s *Session) restore(token string, acc *auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *acc
	s.state = StateAuthenticated
	s.token = token
	s.account = &copied
}

func (s *Session) awaitVerification(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StatePendingVerification
	s.pendingEmail = email
}

func (s *Session) beginSignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSigningOut
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.token = ""
	s.account = nil
	s.expiresAt = time.Time{}
	s.pendingEmail = ""
}
