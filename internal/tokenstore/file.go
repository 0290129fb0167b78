package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/initBasti/plenty-cli/internal/api"
)

// FileStore keeps the token in a 0600 JSON file named after the key.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore stores the token as <dir>/token_<key>.json.
func NewFileStore(dir, key string) *FileStore {
	return &FileStore{path: filepath.Join(dir, "token_"+key+".json"), now: time.Now}
}

// Path returns the token file location.
func (s *FileStore) Path() string {
	return s.path
}

// LoadToken implements api.TokenStore. A missing or unreadable file is a miss.
func (s *FileStore) LoadToken(context.Context) (*api.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	return decodeToken(data, s.now())
}

// StoreToken implements api.TokenStore.
func (s *FileStore) StoreToken(_ context.Context, token api.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	// Write temp then rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// ClearToken removes the token file.
func (s *FileStore) ClearToken(context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// ClearAll removes every token file from dir. Other files are left alone.
func ClearAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isTokenFilename(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func isTokenFilename(name string) bool {
	// Expected: "token_<12hex>.json"
	if filepath.Ext(name) != ".json" || !strings.HasPrefix(name, "token_") {
		return false
	}
	key := strings.TrimSuffix(strings.TrimPrefix(name, "token_"), ".json")
	return len(key) == 12 && isHex(key)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
