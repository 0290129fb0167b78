package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	EnvBaseURL      = "PLENTY_BASE_URL"
	EnvUsername     = "PLENTY_USERNAME"
	EnvPassword     = "PLENTY_PASSWORD"
	EnvPasswordFile = "PLENTY_PASSWORD_FILE"
	EnvProfile      = "PLENTY_PROFILE"
)

// ProfileName returns the profile to use: the explicit name, PLENTY_PROFILE,
// then the stored current profile.
func ProfileName(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := firstNonBlankEnv(EnvProfile); p != "" {
		return p
	}
	if p, err := CurrentProfile(); err == nil && p != "" {
		return p
	}
	return defaultProfile
}

// LoadAccount loads the profile and applies PLENTY_* environment overrides.
// A fully env-configured account does not need the keyring.
func LoadAccount(profile string) (Account, error) {
	account, err := LoadProfile(profile)
	if err != nil && !envConfigured() {
		return Account{}, err
	}
	applyEnv(&account)
	if account.BaseURL == "" || account.Username == "" {
		return Account{}, ErrNotConfigured
	}
	return account, nil
}

func envConfigured() bool {
	return firstNonBlankEnv(EnvBaseURL) != "" && firstNonBlankEnv(EnvUsername) != ""
}

func applyEnv(account *Account) {
	if v := firstNonBlankEnv(EnvBaseURL); v != "" {
		account.BaseURL = strings.TrimSuffix(v, "/")
	}
	if v := firstNonBlankEnv(EnvUsername); v != "" {
		account.Username = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok && v != "" {
		account.Password = v
	}
	if v := firstNonBlankEnv(EnvPasswordFile); v != "" {
		account.PasswordFile = v
	}
}

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	Profile string
	Account Account
}

// ResolveClientConfig resolves the account for a command. The base URL
// override (from --base-url) wins over the profile, the environment and the
// settings file default.
func ResolveClientConfig(profile, baseURLOverride, settingsBaseURL string) (ClientConfig, error) {
	name := ProfileName(profile)
	account, err := LoadProfile(name)
	if err != nil && !envConfigured() {
		if baseURLOverride == "" || firstNonBlankEnv(EnvUsername) == "" {
			return ClientConfig{}, err
		}
	}
	if account.BaseURL == "" {
		account.BaseURL = strings.TrimSuffix(strings.TrimSpace(settingsBaseURL), "/")
	}
	applyEnv(&account)
	if baseURLOverride != "" {
		account.BaseURL = strings.TrimSuffix(strings.TrimSpace(baseURLOverride), "/")
	}

	if account.BaseURL == "" {
		return ClientConfig{}, fmt.Errorf("base URL not configured (set %s, run 'plenty auth login', or pass --base-url)", EnvBaseURL)
	}
	if account.Username == "" {
		return ClientConfig{}, fmt.Errorf("username not configured (set %s or run 'plenty auth login')", EnvUsername)
	}
	return ClientConfig{Profile: name, Account: account}, nil
}
