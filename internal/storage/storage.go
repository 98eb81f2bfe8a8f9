package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"ploomesterm/internal/config"
)

const sessionFile = "session.json"

// Storage persists the credential and the theme flag between runs.
type Storage struct {
	dataDir    string
	passphrase string
}

type sessionData struct {
	UserKey  *EncryptedData `json:"user_key,omitempty"`
	DarkMode bool           `json:"dark_mode"`
}

func NewStorage() (*Storage, error) {
	dataDir, err := config.HomeDir()
	if err != nil {
		return nil, err
	}

	passphrase := os.Getenv("PLTERM_PASSPHRASE")
	if passphrase == "" {
		passphrase = defaultPassphrase()
	}

	return New(dataDir, passphrase)
}

// New opens a store rooted at dataDir, creating the directory if needed.
func New(dataDir, passphrase string) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Storage{dataDir: dataDir, passphrase: passphrase}, nil
}

func (s *Storage) Dir() string {
	return s.dataDir
}

// LoadUserKey returns the stored credential, or an empty string when there is none.
func (s *Storage) LoadUserKey() (string, error) {
	data, err := s.loadSession()
	if err != nil {
		return "", err
	}
	if data.UserKey == nil {
		return "", nil
	}

	plaintext, err := Decrypt(data.UserKey, s.passphrase)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt user key: %w", err)
	}
	return string(plaintext), nil
}

func (s *Storage) SaveUserKey(key string) error {
	data, err := s.loadSession()
	if err != nil {
		return err
	}

	encrypted, err := Encrypt([]byte(key), s.passphrase)
	if err != nil {
		return fmt.Errorf("failed to encrypt user key: %w", err)
	}
	data.UserKey = encrypted

	return s.saveSession(data)
}

// ClearUserKey removes the credential and keeps the theme.
func (s *Storage) ClearUserKey() error {
	data, err := s.loadSession()
	if err != nil {
		return err
	}
	data.UserKey = nil

	return s.saveSession(data)
}

func (s *Storage) LoadDarkMode() (bool, error) {
	data, err := s.loadSession()
	if err != nil {
		return false, err
	}
	return data.DarkMode, nil
}

func (s *Storage) SaveDarkMode(dark bool) error {
	data, err := s.loadSession()
	if err != nil {
		return err
	}
	data.DarkMode = dark

	return s.saveSession(data)
}

func (s *Storage) loadSession() (*sessionData, error) {
	filePath := filepath.Join(s.dataDir, sessionFile)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return &sessionData{}, nil
	}

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &data, nil
}

func (s *Storage) saveSession(data *sessionData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	filePath := filepath.Join(s.dataDir, sessionFile)
	if err := os.WriteFile(filePath, raw, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

func defaultPassphrase() string {
	host, _ := os.Hostname()
	name := ""
	if current, err := user.Current(); err == nil {
		name = current.Username
	}
	return "plterm:" + host + ":" + name
}
