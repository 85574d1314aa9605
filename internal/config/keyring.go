package config

import (
	"errors"

	"github.com/zalando/go-keyring"
)

// keyringService is the service name passwords are filed under in the
// OS keyring.
const keyringService = "sqldesk"

// SetPassword stores a connection profile's password in the OS
// keyring.
func SetPassword(profileName, password string) error {
	return keyring.Set(keyringService, profileName, password)
}

// GetPassword looks up a profile's password. A missing entry returns
// an empty password, not an error.
func GetPassword(profileName string) (string, error) {
	pw, err := keyring.Get(keyringService, profileName)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return pw, err
}

// DeletePassword removes a profile's password. Missing entries are
// ignored.
func DeletePassword(profileName string) error {
	err := keyring.Delete(keyringService, profileName)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
