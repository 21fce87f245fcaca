// Package auth logs users into the server and authenticates their
// requests via session tokens. Account registration and storage live
// in the accounts package; the scope here is sessions: issuing them,
// expiring them, and checking tokens per request.
package auth

import (
	"context"
	"time"

	"github.com/quavera/orpheus/accounts"
	"github.com/quavera/orpheus/internal/logutil"
)

type (
	// AuthCode is the outcome of a login attempt.
	AuthCode byte

	// Service glues the account store and the session table into
	// the surface the HTTP layer talks to.
	Service struct {
		store    *accounts.Store
		sessions *SessionTable

		// swapped out in tests to move the clock
		now func() time.Time
	}
)

const (
	AuthOK AuthCode = iota
	AuthInvalidPassword
	AuthUnknownAccount
)

func NewService(store *accounts.Store, sessions *SessionTable) *Service {
	return &Service{store: store, sessions: sessions, now: time.Now}
}

// Register creates a new account. Whether the caller is allowed to do
// that is the caller's problem: the HTTP layer checks for an admin
// session before getting here, the bootstrap cli does not need to.
func (s *Service) Register(username, password string, admin bool) error {
	return s.store.Register(username, password, admin)
}

// Login verifies the credentials and, on success, opens a session
// valid for SessionLifetime. A prior live session for the same
// username is superseded: re-login always works and invalidates the
// old token. The error is non-nil only for internal faults, never for
// bad credentials.
func (s *Service) Login(ctx context.Context, username, password string) (*AccountSession, AuthCode, error) {
	record, code := s.store.VerifyLogin(ctx, username, password)
	switch code {
	case accounts.LoginUnknownAccount:
		return nil, AuthUnknownAccount, nil
	case accounts.LoginInvalidPassword:
		return nil, AuthInvalidPassword, nil
	}
	token, err := NewToken()
	if err != nil {
		return nil, AuthOK, err
	}
	now := s.now()
	session := &AccountSession{
		Record:  record,
		Token:   token,
		Started: now,
		Expires: now.Add(SessionLifetime),
	}
	if !s.sessions.Register(session) {
		logger := logutil.GetOrDefault(ctx)
		logger.Debug().
			Str("username", username).
			Msg("Superseding live session on re-login")
		s.sessions.Supersede(session)
	}
	return session, AuthOK, nil
}

// Authenticate resolves the live session matching the username/token
// pair, or nil when there is none.
func (s *Service) Authenticate(username string, token Token) *AccountSession {
	return s.sessions.Authenticate(username, token)
}
