package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/openpgp"                  //nolint:staticcheck // GnuPG 1 key rings and password files
	"golang.org/x/crypto/openpgp/armor"            //nolint:staticcheck
	pgperrors "golang.org/x/crypto/openpgp/errors" //nolint:staticcheck
	"golang.org/x/crypto/openpgp/packet"           //nolint:staticcheck
)

// EnvSecretKeyRing points at the OpenPGP secret key ring used to decrypt the
// password file. GnuPG 2.1 and later keep keys in a private-keys-v1.d store
// that cannot be read here, so this should name an RSA key exported with
// "gpg --export-secret-keys --armor <key id>". ECC keys (the gpg default
// since 2.3) are not supported. The legacy ~/.gnupg/secring.gpg of GnuPG 1
// is tried when unset.
const EnvSecretKeyRing = "PLENTY_GPG_KEYRING"

var (
	// ErrPassphrase is returned when the passphrase does not unlock the file.
	ErrPassphrase = errors.New("openpgp: wrong passphrase")
	// ErrNoSecretKey is returned when no loaded key can decrypt the file.
	ErrNoSecretKey = errors.New("no secret key for the password file; export an RSA key with " +
		"'gpg --export-secret-keys --armor <key id>' and point " + EnvSecretKeyRing + " at it")
)

// PasswordFileOptions controls decryption of the password file.
type PasswordFileOptions struct {
	// KeyRing holds the private keys for public-key encrypted files. It may
	// be nil for symmetrically encrypted files.
	KeyRing openpgp.KeyRing
	// Passphrase is asked for once, for a symmetric file or a locked key.
	Passphrase func() ([]byte, error)
}

// ReadPasswordFile decrypts an OpenPGP encrypted password file, armored or
// binary, and returns its content without line breaks.
func ReadPasswordFile(path string, opts PasswordFileOptions) (string, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // user supplied password file
	if err != nil {
		return "", fmt.Errorf("reading password file: %w", err)
	}

	var body io.Reader = bytes.NewReader(raw)
	if block, err := armor.Decode(bytes.NewReader(raw)); err == nil {
		body = block.Body
	}

	keyRing := opts.KeyRing
	if keyRing == nil {
		keyRing = openpgp.EntityList{}
	}

	md, err := openpgp.ReadMessage(body, keyRing, passphrasePrompt(opts.Passphrase), &packet.Config{})
	if err != nil {
		switch {
		case errors.Is(err, ErrPassphrase):
			return "", ErrPassphrase
		case errors.Is(err, pgperrors.ErrKeyIncorrect):
			return "", ErrNoSecretKey
		}
		return "", fmt.Errorf("decrypting password file: %w", err)
	}
	plain, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return "", fmt.Errorf("decrypting password file: %w", err)
	}

	password := strings.ReplaceAll(string(plain), "\r", "")
	password = strings.ReplaceAll(password, "\n", "")
	if password == "" {
		return "", fmt.Errorf("password file %s is empty", path)
	}
	return password, nil
}

// passphrasePrompt asks once. ReadMessage calls the prompt again after a
// failed attempt, which is reported as ErrPassphrase.
func passphrasePrompt(ask func() ([]byte, error)) openpgp.PromptFunction {
	var tried bool
	return func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if ask == nil {
			return nil, errors.New("openpgp: passphrase required")
		}
		if tried {
			return nil, ErrPassphrase
		}
		tried = true

		pass, err := ask()
		if err != nil {
			return nil, err
		}
		if symmetric {
			return pass, nil
		}
		for _, k := range keys {
			if k.PrivateKey != nil && k.PrivateKey.Encrypted {
				_ = k.PrivateKey.Decrypt(pass)
			}
		}
		return nil, nil
	}
}

// LoadSecretKeyRing reads an armored or binary secret key ring. An empty
// path uses PLENTY_GPG_KEYRING, then the GnuPG 1 ~/.gnupg/secring.gpg; nil
// is returned when none exists.
func LoadSecretKeyRing(path string) (openpgp.EntityList, error) {
	explicit := path != ""
	if path == "" {
		path = firstNonBlankEnv(EnvSecretKeyRing)
		explicit = path != ""
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(home, ".gnupg", "secring.gpg")
	}

	raw, err := os.ReadFile(path) //nolint:gosec // user supplied key ring
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading key ring: %w", err)
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("-----BEGIN")) {
		list, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parsing key ring: %w", err)
		}
		return list, nil
	}
	list, err := openpgp.ReadKeyRing(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing key ring: %w", err)
	}
	return list, nil
}
