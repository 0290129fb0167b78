package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/99designs/keyring"
)

const (
	defaultProfile = "default"

	profileKeyPrefix = "profile/"
	indexKey         = "profiles"
	activeKey        = "active_profile"
)

// Account holds the login of one PlentyMarkets system.
type Account struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	// PasswordFile is an OpenPGP encrypted file holding the password. It is
	// used when Password is empty.
	PasswordFile string `json:"password_file,omitempty"`
}

// ErrNotConfigured is returned when the requested profile does not exist.
var ErrNotConfigured = errors.New("plenty not configured - run 'plenty auth login' first")

func profileKey(name string) string {
	if name == "" {
		name = defaultProfile
	}
	return profileKeyPrefix + name
}

// vault reads and writes JSON values in the keyring.
type vault struct {
	ring keyring.Keyring
}

func openVault() (*vault, error) {
	ring, err := OpenKeyring()
	if err != nil {
		return nil, err
	}
	return &vault{ring: ring}, nil
}

// get decodes the item at key into v. It reports false when the key is absent.
func (v *vault) get(key string, out any) (bool, error) {
	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s from keyring: %w", key, err)
	}
	if err := json.Unmarshal(item.Data, out); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (v *vault) put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := v.ring.Set(keyring.Item{Key: key, Label: serviceName + " " + key, Data: data}); err != nil {
		return fmt.Errorf("writing %s to keyring: %w", key, err)
	}
	return nil
}

func (v *vault) remove(key string) error {
	if err := v.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing %s from keyring: %w", key, err)
	}
	return nil
}

func (v *vault) profiles() ([]string, error) {
	var names []string
	if _, err := v.get(indexKey, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// addName appends name to names unless it is blank or already present.
func addName(names []string, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" || slices.Contains(names, name) {
		return names
	}
	return append(names, name)
}

// SaveProfile stores the account under a named profile and makes it current.
func SaveProfile(profile string, account Account) error {
	if profile == "" {
		profile = defaultProfile
	}
	account.BaseURL = strings.TrimSuffix(strings.TrimSpace(account.BaseURL), "/")

	v, err := openVault()
	if err != nil {
		return err
	}
	if err := v.put(profileKey(profile), account); err != nil {
		return err
	}
	names, err := v.profiles()
	if err != nil {
		return err
	}
	if err := v.put(indexKey, addName(names, profile)); err != nil {
		return err
	}
	return v.put(activeKey, profile)
}

// LoadProfile returns the account of a named profile, or ErrNotConfigured.
func LoadProfile(profile string) (Account, error) {
	v, err := openVault()
	if err != nil {
		return Account{}, err
	}
	var account Account
	found, err := v.get(profileKey(profile), &account)
	if err != nil {
		return Account{}, err
	}
	if !found {
		return Account{}, ErrNotConfigured
	}
	return account, nil
}

// ClearPassword drops the stored password of a profile and keeps the rest.
// Used after the remote system rejected the credentials.
func ClearPassword(profile string) error {
	account, err := LoadProfile(profile)
	if err != nil || account.Password == "" {
		return err
	}
	account.Password = ""
	return SaveProfile(profile, account)
}

// DeleteProfile removes a profile. When it was current, the first remaining
// profile (or default) becomes current.
func DeleteProfile(profile string) error {
	if profile == "" {
		profile = defaultProfile
	}
	v, err := openVault()
	if err != nil {
		return err
	}
	if err := v.remove(profileKey(profile)); err != nil {
		return err
	}
	names, err := v.profiles()
	if err != nil {
		return err
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == profile })
	if err := v.put(indexKey, names); err != nil {
		return err
	}

	var active string
	if _, err := v.get(activeKey, &active); err != nil || active != profile {
		return nil
	}
	next := defaultProfile
	if len(names) > 0 {
		next = names[0]
	}
	return v.put(activeKey, next)
}

// ListProfiles returns the stored profile names in creation order.
func ListProfiles() ([]string, error) {
	v, err := openVault()
	if err != nil {
		return nil, err
	}
	names, err := v.profiles()
	if names == nil && err == nil {
		names = []string{}
	}
	return names, err
}

// CurrentProfile returns the active profile name.
func CurrentProfile() (string, error) {
	v, err := openVault()
	if err != nil {
		return "", err
	}
	active := defaultProfile
	if _, err := v.get(activeKey, &active); err != nil {
		return "", err
	}
	return active, nil
}

// SetCurrentProfile makes profile the active one.
func SetCurrentProfile(profile string) error {
	if profile == "" {
		profile = defaultProfile
	}
	v, err := openVault()
	if err != nil {
		return err
	}
	return v.put(activeKey, profile)
}
