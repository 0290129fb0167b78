// Package config stores PlentyMarkets login profiles in the OS keyring and
// loads the optional YAML settings file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
	"golang.org/x/term"
)

const (
	serviceName = "plenty-cli"

	envKeyringBackend  = "PLENTY_KEYRING_BACKEND"
	envKeyringPassword = "PLENTY_KEYRING_PASSWORD"
	envCredentialsDir  = "PLENTY_CREDENTIALS_DIR"
)

// backend selects which keyring implementations may be used.
type backend int

const (
	backendAuto backend = iota
	backendFile
	backendSystem
)

func backendFromEnv() backend {
	switch strings.ToLower(firstNonBlankEnv(envKeyringBackend)) {
	case "file":
		return backendFile
	case "system", "os", "native":
		return backendSystem
	}
	return backendAuto
}

var openKeyring = keyring.Open

var userConfigDir = os.UserConfigDir

var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// SetOpenKeyring swaps the keyring opener and returns a func restoring it.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	prev := openKeyring
	openKeyring = fn
	return func() { openKeyring = prev }
}

// OpenKeyring opens the keyring holding profiles and, optionally, tokens.
func OpenKeyring() (keyring.Keyring, error) {
	ring, err := openKeyring(keyringConfig(backendFromEnv(), runtime.GOOS, os.Getenv("DBUS_SESSION_BUS_ADDRESS")))
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

// keyringConfig builds the keyring settings. Outside system mode the
// encrypted file backend is always configured as fallback; it becomes the
// only backend when requested or on Linux without a session bus.
func keyringConfig(mode backend, goos, dbusAddr string) keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}
	if mode == backendSystem {
		return cfg
	}
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringPassphrase
	if mode == backendFile || (goos == "linux" && strings.TrimSpace(dbusAddr) == "") {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func keyringFileDir() string {
	if dir := firstNonBlankEnv(envCredentialsDir); dir != "" {
		return filepath.Join(dir, "keyring")
	}
	return filepath.Join(configDir(), "keyring")
}

func keyringPassphrase(prompt string) (string, error) {
	if pass := firstNonBlankEnv(envKeyringPassword); pass != "" {
		return pass, nil
	}
	if !stdinIsTerminal() {
		return "", fmt.Errorf("the file keyring needs %s when stdin is not a terminal", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

// configDir is the per-user directory of the tool.
func configDir() string {
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func firstNonBlankEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
