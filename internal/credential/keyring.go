package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "gmail"

// openKeyring returns a configured keyring instance.
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
		FileDir:                  "~/.config/gmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("gmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Password retrieves the stored password for an account from the system
// keyring.
func Password(username string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(username)
	if err != nil {
		return "", fmt.Errorf("getting password for %q: %w", username, err)
	}

	return string(item.Data), nil
}

// SetPassword stores an account password in the system keyring.
func SetPassword(username, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  username,
		Data: []byte(password),
	})
	if err != nil {
		return fmt.Errorf("storing password for %q: %w", username, err)
	}

	return nil
}

// DeletePassword removes an account password from the system keyring.
func DeletePassword(username string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(username)
	if err != nil {
		return fmt.Errorf("deleting password for %q: %w", username, err)
	}

	return nil
}
