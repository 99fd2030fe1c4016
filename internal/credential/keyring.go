// Package credential stores mailbox passwords in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const ServiceName = "mailbox-mcp"

// ErrNotFound is returned when the keyring holds no entry for the account.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes account passwords keyed by username.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the platform keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailbox-mcp/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailbox-mcp-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return New(ring), nil
}

func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Password returns the stored password for username.
func (s *Store) Password(username string) (string, error) {
	item, err := s.ring.Get(username)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting password for %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting password for %q: %w", username, err)
	}
	return string(item.Data), nil
}

// SetPassword stores password for username.
func (s *Store) SetPassword(username, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:   username,
		Data:  []byte(password),
		Label: ServiceName + " " + username,
	})
	if err != nil {
		return fmt.Errorf("setting password for %q: %w", username, err)
	}
	return nil
}

// Delete removes the stored password for username.
func (s *Store) Delete(username string) error {
	err := s.ring.Remove(username)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting password for %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting password for %q: %w", username, err)
	}
	return nil
}
