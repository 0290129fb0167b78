package validation

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Input length limits.
const (
	MaxUsernameLength = 255
	MaxNameLength     = 255
	MaxURLLength      = 2048
	MinPasswordLength = 2
)

// ValidateUsername checks the login name of a back end user.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if n := utf8.RuneCountInString(username); n > MaxUsernameLength {
		return fmt.Errorf("username exceeds maximum length of %d characters (got %d)", MaxUsernameLength, n)
	}
	if strings.IndexFunc(username, unicode.IsControl) >= 0 {
		return fmt.Errorf("username contains control characters")
	}
	return nil
}

// ValidatePassword checks the minimum password length the login accepts.
func ValidatePassword(password string) error {
	if len(strings.TrimSpace(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateProfileName checks a profile name. Profile names are keyring
// keys, so they stay short and free of separators.
func ValidateProfileName(name string) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return fmt.Errorf("profile name exceeds maximum length of %d characters (got %d)", MaxNameLength, n)
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		return fmt.Errorf("profile name contains invalid character '%c'", r)
	}
	return nil
}

// ParsePositiveInt parses a positive integer ID. A leading '#' is ignored.
func ParsePositiveInt(s string, fieldName string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id64, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", fieldName, s)
	}
	if id64 <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", fieldName, s)
	}
	return int(id64), nil
}
