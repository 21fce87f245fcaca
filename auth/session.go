package auth

import (
	"context"
	"sync"
	"time"

	"github.com/quavera/orpheus/accounts"
	"github.com/quavera/orpheus/internal/logutil"
)

// SessionLifetime is how long a login stays valid.
const SessionLifetime = 6 * time.Hour

type (
	// AccountSession is one authenticated login. The record is
	// shared with the account store and must be treated as
	// read-only.
	AccountSession struct {
		Record  *accounts.Record
		Token   Token
		Started time.Time
		Expires time.Time
	}

	// SessionTable maps usernames to their current session. All
	// methods are safe for concurrent use; check-then-act
	// sequences hold the table mutex for their whole duration.
	SessionTable struct {
		mu       sync.Mutex
		sessions map[string]*AccountSession

		// swapped out in tests to move the clock
		now func() time.Time
	}
)

// ExpiredAt reports whether the session is expired at instant t. A
// session is expired from the exact expiry instant onwards.
func (s *AccountSession) ExpiredAt(t time.Time) bool {
	return !t.Before(s.Expires)
}

func NewSessionTable() *SessionTable {
	return &SessionTable{
		sessions: make(map[string]*AccountSession),
		now:      time.Now,
	}
}

// Register installs the session unless its username already has a
// live one, and reports whether it was installed. An expired leftover
// session does not block registration.
func (s *SessionTable) Register(session *AccountSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[session.Record.Username]
	if prev != nil && !prev.ExpiredAt(s.now()) {
		return false
	}
	s.sessions[session.Record.Username] = session
	return true
}

// Supersede installs the session, replacing any prior one for the
// same username, live or not.
func (s *SessionTable) Supersede(session *AccountSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Record.Username] = session
}

// Lookup returns the current session for username, expired or not,
// or nil.
func (s *SessionTable) Lookup(username string) *AccountSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[username]
}

// Authenticate returns the session for username iff token matches it
// and it has not expired. An expired session never authenticates,
// even with a matching token.
func (s *SessionTable) Authenticate(username string, token Token) *AccountSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[username]
	if session == nil || session.ExpiredAt(s.now()) {
		return nil
	}
	if !session.Token.Equal(token) {
		return nil
	}
	return session
}

// PruneExpired drops every expired session and returns how many were
// removed. Correctness does not depend on pruning (Authenticate checks
// expiry itself), it only keeps the table from accumulating dead
// entries.
func (s *SessionTable) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := s.now()
	var n int
	for name, session := range s.sessions {
		if session.ExpiredAt(deadline) {
			delete(s.sessions, name)
			n++
		}
	}
	return n
}

// RunPruner prunes expired sessions once per interval until ctx is
// cancelled.
func (s *SessionTable) RunPruner(ctx context.Context, interval time.Duration) {
	log := logutil.GetOrDefault(ctx)
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if n := s.PruneExpired(); n > 0 {
				log.Debug().Int("sessions", n).Msg("Pruned expired sessions")
			}
		}
	}
}
