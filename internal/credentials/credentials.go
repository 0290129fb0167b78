// Package credentials supplies the login of the active profile to the API
// session: stored password, OpenPGP password file or an interactive prompt.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/openpgp" //nolint:staticcheck // GnuPG 1 key rings

	"github.com/initBasti/plenty-cli/internal/api"
	"github.com/initBasti/plenty-cli/internal/config"
)

const (
	minPasswordLength = 2
	maxPromptAttempts = 3
)

// Provider resolves credentials for one profile. It implements
// api.CredentialProvider and api.CredentialInvalidator.
type Provider struct {
	Profile string
	Account config.Account

	// Prompter asks for missing secrets. Nil disables prompting.
	Prompter Prompter
	// KeyRing loads the secret keys for the password file. Defaults to
	// config.LoadSecretKeyRing("").
	KeyRing func() (openpgp.EntityList, error)
	// Invalidate discards the stored password. Defaults to
	// config.ClearPassword.
	Invalidate func(profile string) error

	mu       sync.Mutex
	password string
}

var (
	_ api.CredentialProvider    = (*Provider)(nil)
	_ api.CredentialInvalidator = (*Provider)(nil)
)

// ErrNoPassword is returned when no password source is available.
var ErrNoPassword = errors.New("no password available (store one with 'plenty auth login', set PLENTY_PASSWORD or PLENTY_PASSWORD_FILE)")

// Credentials implements api.CredentialProvider.
func (p *Provider) Credentials(ctx context.Context) (api.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Account.Username == "" {
		return api.Credentials{}, &api.AuthenticationError{Reason: "username not configured"}
	}
	if p.password == "" {
		password, err := p.resolvePassword(ctx)
		if err != nil {
			return api.Credentials{}, err
		}
		p.password = password
	}
	return api.Credentials{Username: p.Account.Username, Password: p.password}, nil
}

func (p *Provider) resolvePassword(ctx context.Context) (string, error) {
	if p.Account.Password != "" {
		return p.Account.Password, nil
	}
	if p.Account.PasswordFile != "" {
		return p.decryptPasswordFile()
	}
	if p.Prompter == nil {
		return "", ErrNoPassword
	}
	slog.DebugContext(ctx, "prompting for password", "profile", p.Profile, "username", p.Account.Username)
	return PromptPassword(p.Prompter, fmt.Sprintf("Password for %s: ", p.Account.Username))
}

func (p *Provider) decryptPasswordFile() (string, error) {
	loadKeys := p.KeyRing
	if loadKeys == nil {
		loadKeys = func() (openpgp.EntityList, error) { return config.LoadSecretKeyRing("") }
	}
	keys, err := loadKeys()
	if err != nil {
		return "", err
	}

	opts := config.PasswordFileOptions{}
	if keys != nil {
		opts.KeyRing = keys
	}
	if p.Prompter != nil {
		opts.Passphrase = func() ([]byte, error) {
			pass, err := p.Prompter.Password(fmt.Sprintf("Passphrase for %s: ", p.Account.PasswordFile))
			return []byte(pass), err
		}
	}
	return config.ReadPasswordFile(p.Account.PasswordFile, opts)
}

// InvalidateCredentials implements api.CredentialInvalidator. The cached
// password is dropped and the stored one removed from the profile, so the
// next run asks again.
func (p *Provider) InvalidateCredentials(ctx context.Context) error {
	p.mu.Lock()
	p.password = ""
	stored := p.Account.Password != ""
	p.Account.Password = ""
	p.mu.Unlock()

	if !stored {
		return nil
	}
	invalidate := p.Invalidate
	if invalidate == nil {
		invalidate = config.ClearPassword
	}
	if err := invalidate(p.Profile); err != nil && !errors.Is(err, config.ErrNotConfigured) {
		return fmt.Errorf("clearing stored password: %w", err)
	}
	slog.WarnContext(ctx, "stored password rejected and removed", "profile", p.Profile)
	return nil
}

// PromptPassword asks until a password of at least two characters is
// entered, up to three times.
func PromptPassword(pr Prompter, prompt string) (string, error) {
	for attempt := 0; attempt < maxPromptAttempts; attempt++ {
		password, err := pr.Password(prompt)
		if err != nil {
			return "", err
		}
		if len(strings.TrimSpace(password)) >= minPasswordLength {
			return password, nil
		}
	}
	return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
}
