// Package credentials keeps the diary service password in the OS keyring.
package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name.
const Service = "bitacora"

var (
	// ErrNotFound is returned when no password is stored for the server.
	ErrNotFound = errors.New("password not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available.
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetPassword returns the password stored for baseURL.
func GetPassword(baseURL string) (string, error) {
	pw, err := keyring.Get(Service, baseURL)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return pw, nil
}

// SetPassword stores the password for baseURL.
func SetPassword(baseURL, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(Service, baseURL, password); err != nil {
		return fmt.Errorf("storing password in keyring: %w", err)
	}
	return nil
}

// DeletePassword removes the password for baseURL.
func DeletePassword(baseURL string) error {
	if err := keyring.Delete(Service, baseURL); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting password from keyring: %w", err)
	}
	return nil
}

// LookupPassword returns the stored password, or "" when there is none or
// the keyring cannot be reached.
func LookupPassword(baseURL string) string {
	pw, err := GetPassword(baseURL)
	if err != nil {
		return ""
	}
	return pw
}
