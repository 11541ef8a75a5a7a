package sdk

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/pterm/pterm"
	"golang.org/x/oauth2"
)

// SessionStore owns the authenticated Session. Consumers read snapshots or
// derived getters; PersistUser is the only writer of the whole entity.
type SessionStore struct {
	storage Storage
	key     string
	clock   *TokenClock
	log     *pterm.Logger

	mu         sync.RWMutex
	session    Session
	generation uint64
}

// NewSessionStore builds a store over storage and restores any persisted session.
func NewSessionStore(storage Storage, optFns ...Option) *SessionStore {
	opts := NewOptions(optFns...)
	s := &SessionStore{
		storage: storage,
		key:     SessionKey(opts.KeyPrefix),
		clock:   NewTokenClock(opts.Clock),
		log:     opts.Logger,
	}
	s.session = s.Restore()
	return s
}

// Restore reads the persisted session. A missing, corrupt, or expired
// record yields the logged-out default.
func (s *SessionStore) Restore() Session {
	data, err := s.storage.Get(s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("failed to read persisted session", s.log.Args("key", s.key, "error", err))
		}
		return LoggedOutSession()
	}

	var persisted Session
	if err := json.Unmarshal(data, &persisted); err != nil {
		s.log.Warn("discarding corrupt persisted session", s.log.Args("key", s.key, "error", err))
		return LoggedOutSession()
	}

	if !persisted.Authenticated || persisted.Token == "" || s.clock.HasExpired(persisted.TokenExpirationTime) {
		return LoggedOutSession()
	}
	return persisted
}

// PersistUser replaces the session wholesale. A nil candidate logs out.
// Only authenticated sessions are written to durable storage; anything else
// removes the stored record.
func (s *SessionStore) PersistUser(candidate *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.persistLocked(candidate)
}

func (s *SessionStore) persistLocked(candidate *Session) {
	if candidate == nil {
		s.session = LoggedOutSession()
	} else {
		s.session = *candidate
	}

	if s.session.Authenticated {
		s.writeLocked()
		return
	}
	if err := s.storage.Remove(s.key); err != nil {
		s.log.Warn("failed to remove persisted session", s.log.Args("key", s.key, "error", err))
	}
}

func (s *SessionStore) writeLocked() {
	data, err := json.Marshal(s.session)
	if err != nil {
		s.log.Error("failed to encode session", s.log.Args("error", err))
		return
	}
	if err := s.storage.Set(s.key, data); err != nil {
		s.log.Warn("failed to persist session", s.log.Args("key", s.key, "error", err))
	}
}

// UpdateProfile changes identity fields without touching authentication state.
func (s *SessionStore) UpdateProfile(patch ProfilePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.ID = patch.ID
	s.session.Amka = patch.Amka
	s.session.Username = patch.Username
	if s.session.Authenticated {
		s.writeLocked()
	}
}

// commitRefresh swaps in a refreshed token when the session is still the
// one the refresh started from and is still logged in.
func (s *SessionStore) commitRefresh(generation uint64, token string, exp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || !s.isLoggedInLocked() {
		return false
	}
	next := s.session
	next.Token = token
	next.TokenExpirationTime = exp
	s.persistLocked(&next)
	return true
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Generation changes on every PersistUser; refresh commits keep it.
func (s *SessionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// IsLoggedIn reports an authenticated session whose token is not expired.
func (s *SessionStore) IsLoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoggedInLocked()
}

func (s *SessionStore) isLoggedInLocked() bool {
	return s.session.Authenticated && !s.clock.HasExpired(s.session.TokenExpirationTime)
}

// Token returns the bearer token of an authenticated session, or "".
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Authenticated {
		return ""
	}
	return s.session.Token
}

// Username returns the username of an authenticated session, or "".
func (s *SessionStore) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Authenticated {
		return ""
	}
	return s.session.Username
}

// Role returns the role of an authenticated session, or "".
func (s *SessionStore) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Authenticated {
		return ""
	}
	return s.session.Role
}

// TokenSource adapts the store to oauth2. Token fails with ErrNotLoggedIn
// when there is no authenticated session.
func (s *SessionStore) TokenSource() oauth2.TokenSource {
	return sessionTokenSource{store: s}
}

type sessionTokenSource struct {
	store *SessionStore
}

func (ts sessionTokenSource) Token() (*oauth2.Token, error) {
	s := ts.store.Snapshot()
	if !s.Authenticated || s.Token == "" {
		return nil, ErrNotLoggedIn
	}
	return &oauth2.Token{
		AccessToken: s.Token,
		TokenType:   "Bearer",
		Expiry:      unixTime(s.TokenExpirationTime),
	}, nil
}

func (s *SessionStore) snapshotWithGeneration() (Session, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.generation
}
