package securestore

import (
	"context"
	"errors"

	"github.com/zalando/go-keyring"
)

// Keyring is a Storage backed by the OS credential manager (macOS Keychain,
// Windows Credential Manager, Secret Service on Linux). Encryption at rest
// and per-application isolation are the OS's responsibility.
type Keyring struct{}

func NewKeyring() *Keyring { return &Keyring{} }

func (k *Keyring) Get(ctx context.Context, service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (k *Keyring) Set(ctx context.Context, service, key, value string) error {
	return keyring.Set(service, key, value)
}

func (k *Keyring) Remove(ctx context.Context, service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
