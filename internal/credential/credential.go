// Package credential stores the backend session token in the system
// keyring so logins survive process restarts.
package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "studyflow"
	sessionKey  = "session_token"
)

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/studyflow/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("studyflow-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// SessionToken returns the saved session token, or "" when none is
// stored.
func SessionToken() string {
	ring, err := openKeyring()
	if err != nil {
		return ""
	}
	item, err := ring.Get(sessionKey)
	if err != nil {
		return ""
	}
	return string(item.Data)
}

// SaveSessionToken persists the session token.
func SaveSessionToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: sessionKey, Data: []byte(token)}); err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}
	return nil
}

// ClearSessionToken removes the saved token. Missing tokens are not an
// error.
func ClearSessionToken() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}
	if err := ring.Remove(sessionKey); err != nil && err != keyring.ErrKeyNotFound {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return nil
}
