package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99designs/keyring"

	"github.com/initBasti/plenty-cli/internal/api"
)

const keyringPrefix = "token:"

// KeyringStore keeps the token next to the profiles in the OS keyring.
type KeyringStore struct {
	open func() (keyring.Keyring, error)
	key  string
	now  func() time.Time
}

// NewKeyringStore opens the keyring lazily on every access.
func NewKeyringStore(open func() (keyring.Keyring, error), key string) *KeyringStore {
	return &KeyringStore{open: open, key: keyringPrefix + key, now: time.Now}
}

// LoadToken implements api.TokenStore.
func (s *KeyringStore) LoadToken(context.Context) (*api.Token, error) {
	ring, err := s.open()
	if err != nil {
		return nil, err
	}
	item, err := ring.Get(s.key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading token from keyring: %w", err)
	}
	return decodeToken(item.Data, s.now())
}

// StoreToken implements api.TokenStore.
func (s *KeyringStore) StoreToken(_ context.Context, token api.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}
	ring, err := s.open()
	if err != nil {
		return err
	}
	if err := ring.Set(keyring.Item{Key: s.key, Data: data, Label: "plenty-cli token"}); err != nil {
		return fmt.Errorf("storing token in keyring: %w", err)
	}
	return nil
}

// ClearToken removes the token.
func (s *KeyringStore) ClearToken(context.Context) error {
	ring, err := s.open()
	if err != nil {
		return err
	}
	if err := ring.Remove(s.key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("clearing token in keyring: %w", err)
	}
	return nil
}
