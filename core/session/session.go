// Package session holds the persisted credentials of the current user.
package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core"
)

// Persisted keys.
const (
	TokenKey    = "token"
	UserInfoKey = "userInfo"
)

// Backend is a persisted string key/value store.
type Backend interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store gives synchronous access to the auth token and the user profile.
// No validation of token shape or expiry is performed: expiry is only detected through a 401.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	logger  core.Logger
	onClear []func()
}

func NewStore(backend Backend, logger core.Logger) *Store {
	return &Store{backend: backend, logger: logger}
}

// OnClear registers fn to be called whenever the token is cleared.
func (s *Store) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Token returns the current token, or "" when there is none.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok, err := s.backend.Get(TokenKey)
	if err != nil {
		s.logger.Warn("reading session token", errors.Wrap(err, "session.Token"))
		return ""
	}
	if !ok {
		return ""
	}
	return tok
}

// SetToken persists `token`. An empty token clears it.
func (s *Store) SetToken(token string) error {
	if token == "" {
		return s.ClearToken()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.backend.Set(TokenKey, token), "persisting token")
}

// ClearToken removes the token and resets any state derived from it.
func (s *Store) ClearToken() error {
	s.mu.Lock()
	err := s.backend.Delete(TokenKey)
	hooks := make([]func(), len(s.onClear))
	copy(hooks, s.onClear)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return errors.Wrap(err, "clearing token")
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// UserInfo returns the profile of the current user, or nil when there is none.
func (s *Store) UserInfo() (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok, err := s.backend.Get(UserInfoKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading user info")
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var info core.Record
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, errors.Wrap(err, "decoding user info")
	}
	return info, nil
}

func (s *Store) SetUserInfo(info core.Record) error {
	if info == nil {
		return s.ClearUserInfo()
	}
	data, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "encoding user info")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.backend.Set(UserInfoKey, string(data)), "persisting user info")
}

func (s *Store) ClearUserInfo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return errors.Wrap(s.backend.Delete(UserInfoKey), "clearing user info")
}

// Logout clears the token and the user info.
func (s *Store) Logout() error {
	tokErr := s.ClearToken()
	if err := s.ClearUserInfo(); err != nil {
		return err
	}
	return tokErr
}
