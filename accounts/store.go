// Package accounts manages the storage and retrieval of user accounts
// to and from disk. The whole account table lives in memory and is
// periodically flushed to a single snapshot file.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/quavera/orpheus/internal/logutil"
)

type (
	// Record holds everything the server knows about one account.
	// Records never change after registration; the store and the
	// session table share them by pointer, read-only.
	Record struct {
		Username     string `json:"username"`
		PasswordHash string `json:"password_hash"`
		// can the user manage the server (i.e. create new accounts)?
		Admin bool `json:"is_admin"`
	}

	// LoginCode is the outcome of a credential check.
	LoginCode byte

	// Store is a mutex-guarded username to record map backed by a
	// snapshot file. All methods are safe for concurrent use.
	Store struct {
		path   string
		hasher Hasher

		mu      sync.RWMutex
		records map[string]*Record
		dirty   bool
	}
)

const (
	LoginOK LoginCode = iota
	LoginInvalidPassword
	LoginUnknownAccount
)

// Open loads the snapshot at path, creating an empty store (and the
// file itself) when there is nothing there yet. A file that exists but
// cannot be decoded is returned as a CorruptSnapshotError: the caller
// must treat that as fatal instead of starting with an empty table and
// masking data loss.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("unable to create data directory %v, cause %w", dir, err)
		}
	}
	s := &Store{path: path, records: make(map[string]*Record)}
	buf, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// probe the write path now so a bad data directory kills
		// the process at startup instead of at the first flush
		if err := s.Save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("unable to read account snapshot %v, cause %w", path, err)
	default:
		records, err := decodeSnapshot(path, buf)
		if err != nil {
			return nil, err
		}
		s.records = records
	}
	return s, nil
}

// Register hashes the password and inserts a new record. The
// uniqueness check and the insert are atomic with respect to other
// registrations: of two concurrent calls for the same username,
// exactly one wins and the other observes ErrAccountExists.
func (s *Store) Register(username, password string, admin bool) error {
	s.mu.RLock()
	_, taken := s.records[username]
	s.mu.RUnlock()
	if taken {
		return ErrAccountExists
	}
	// hashing is deliberately slow, keep it outside the lock
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	record := &Record{Username: username, PasswordHash: hash, Admin: admin}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.records[username]; taken {
		return ErrAccountExists
	}
	s.records[username] = record
	s.dirty = true
	return nil
}

// VerifyLogin checks the password against the stored record without
// mutating anything. A stored record that fails to parse is logged as
// an integrity fault and the login is denied; callers cannot tell the
// difference from a wrong password, operators can.
func (s *Store) VerifyLogin(ctx context.Context, username, password string) (*Record, LoginCode) {
	s.mu.RLock()
	record := s.records[username]
	s.mu.RUnlock()
	if record == nil {
		return nil, LoginUnknownAccount
	}
	ok, err := s.hasher.Verify(password, record.PasswordHash)
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(err).
			Str("username", username).
			Msg("Stored password record is unreadable")
		return nil, LoginInvalidPassword
	}
	if !ok {
		return nil, LoginInvalidPassword
	}
	return record, LoginOK
}

// Lookup returns the record for username, or nil.
func (s *Store) Lookup(username string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[username]
}

// Save writes the whole table to the snapshot file and clears the
// dirty flag. The table is marshalled under the lock but written to
// disk outside of it, via a temp file and a rename, so readers never
// block on disk and never observe a half-written snapshot. Safe to
// call concurrently and idempotent.
func (s *Store) Save() error {
	s.mu.Lock()
	buf, err := encodeSnapshot(s.records)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.dirty = false
	s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0600); err != nil {
		s.markDirty()
		return fmt.Errorf("unable to write account snapshot %v, cause %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.markDirty()
		return fmt.Errorf("unable to replace account snapshot %v, cause %w", s.path, err)
	}
	return nil
}

// IsDirty reports whether the in-memory table has diverged from the
// snapshot on disk.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

func (s *Store) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// Len returns the number of registered accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Usernames returns all registered usernames, sorted.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.records))
	for name := range s.records {
		out = append(out, name)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// RunSaver flushes the store once per interval whenever it is dirty,
// until ctx is cancelled, then flushes one final time. A failed flush
// is logged and retried on the next tick; the in-memory table stays
// authoritative throughout.
func (s *Store) RunSaver(ctx context.Context, interval time.Duration) {
	log := logutil.GetOrDefault(ctx).With().Str("snapshot.path", s.path).Logger()
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := s.Save(); err != nil {
				log.Error().Err(err).Msg("Final account flush failed")
			}
			return
		case <-tick.C:
			if !s.IsDirty() {
				continue
			}
			if err := s.Save(); err != nil {
				log.Error().Err(err).Msg("Unable to flush accounts, will retry")
			}
		}
	}
}
