// Package tokenstore persists the bearer token between runs so each
// invocation does not log in again. Backends: OS keyring, Redis and a file
// per system and user.
package tokenstore

import (
	"context"
	"crypto/sha1" //nolint:gosec // key derivation only
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
)

// Store is an api.TokenStore that can also forget its token.
type Store interface {
	api.TokenStore
	ClearToken(ctx context.Context) error
}

// Key identifies the token of one user on one system.
func Key(baseURL, username string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	hash := sha1.Sum([]byte(baseURL + "\x00" + username)) //nolint:gosec // not a security boundary
	return hex.EncodeToString(hash[:6])
}

// Open returns the store selected in the settings, or nil for the "none"
// backend. The returned closer releases backend connections.
func Open(cfg config.TokenStoreConfig, baseURL, username string) (Store, io.Closer, error) {
	key := Key(baseURL, username)
	switch cfg.Backend {
	case "", config.TokenStoreKeyring:
		return NewKeyringStore(config.OpenKeyring, key), nopCloser{}, nil
	case config.TokenStoreRedis:
		s, err := NewRedisStore(cfg.RedisURL, cfg.KeyPrefix+key, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.TokenStoreFile:
		return NewFileStore(cfg.Dir, key), nopCloser{}, nil
	case config.TokenStoreNone:
		return nil, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func encodeToken(t api.Token) ([]byte, error) {
	return json.Marshal(t)
}

// decodeToken returns nil for tokens that are expired at now.
func decodeToken(data []byte, now time.Time) (*api.Token, error) {
	var t api.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding stored token: %w", err)
	}
	if t.Value == "" || !now.Before(t.ExpiresAt) {
		return nil, nil
	}
	return &t, nil
}
