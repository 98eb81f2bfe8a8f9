// Package session holds the credential and theme flag shared by every screen.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ploomesterm/internal/storage"
)

var ErrEmptyKey = errors.New("user key cannot be empty")

// Store persists the session between runs.
type Store interface {
	LoadUserKey() (string, error)
	SaveUserKey(key string) error
	ClearUserKey() error
	LoadDarkMode() (bool, error)
	SaveDarkMode(dark bool) error
}

type Session struct {
	mu       sync.RWMutex
	store    Store
	userKey  string
	darkMode bool
}

// Load reads the stored credential and theme. A nil store keeps everything in memory.
// A stored key that can no longer be decrypted, e.g. after the passphrase changed, is
// cleared and the session starts signed out.
func Load(store Store, logger *zap.Logger) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	key, err := store.LoadUserKey()
	if errors.Is(err, storage.ErrUnreadable) {
		logger.Warn("stored user key unreadable, signing out", zap.Error(err))
		if err := store.ClearUserKey(); err != nil {
			return nil, fmt.Errorf("failed to clear unreadable user key: %w", err)
		}
		key, err = "", nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user key: %w", err)
	}
	dark, err := store.LoadDarkMode()
	if err != nil {
		return nil, fmt.Errorf("failed to load theme: %w", err)
	}

	s.userKey = key
	s.darkMode = dark
	return s, nil
}

// WithKey returns an in-memory session already signed in.
func WithKey(key string) *Session {
	return &Session{userKey: key}
}

func (s *Session) UserKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userKey
}

func (s *Session) SignedIn() bool {
	return s.UserKey() != ""
}

func (s *Session) DarkMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.darkMode
}

// SignIn trims and persists the credential.
func (s *Session) SignIn(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveUserKey(key); err != nil {
			return fmt.Errorf("failed to save user key: %w", err)
		}
	}
	s.userKey = key
	return nil
}

// SignOut forgets the credential. The theme is kept.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userKey = ""
	if s.store != nil {
		if err := s.store.ClearUserKey(); err != nil {
			return fmt.Errorf("failed to clear user key: %w", err)
		}
	}
	return nil
}

func (s *Session) SetDarkMode(dark bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveDarkMode(dark); err != nil {
			return fmt.Errorf("failed to save theme: %w", err)
		}
	}
	s.darkMode = dark
	return nil
}

// ToggleDarkMode flips and persists the theme, returning the new value.
func (s *Session) ToggleDarkMode() (bool, error) {
	dark := !s.DarkMode()
	if err := s.SetDarkMode(dark); err != nil {
		return !dark, err
	}
	return dark, nil
}
