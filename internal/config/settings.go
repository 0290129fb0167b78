package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvSettingsFile points at the YAML settings file.
const EnvSettingsFile = "PLENTY_CONFIG"

const (
	TokenStoreKeyring = "keyring"
	TokenStoreRedis   = "redis"
	TokenStoreFile    = "file"
	TokenStoreNone    = "none"
)

// Settings is the optional YAML settings file.
type Settings struct {
	BaseURL    string           `yaml:"base_url"`
	Timeout    time.Duration    `yaml:"timeout"`
	MaxPages   int              `yaml:"max_pages"`
	PageSize   int              `yaml:"page_size"`
	Timezone   string           `yaml:"timezone"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	TokenStore TokenStoreConfig `yaml:"token_store"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RateLimitConfig throttles outgoing requests. Zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// TokenStoreConfig selects where the bearer token is cached between runs.
type TokenStoreConfig struct {
	Backend   string        `yaml:"backend"`
	RedisURL  string        `yaml:"redis_url"`
	KeyPrefix string        `yaml:"key_prefix"`
	Dir       string        `yaml:"dir"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultTokenDir is the directory of the file token store.
func DefaultTokenDir() string {
	if dir, err := os.UserCacheDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName, "tokens")
	}
	return filepath.Join(configDir(), "tokens")
}

// DefaultSettingsPath is the settings file used when none is given.
func DefaultSettingsPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// LoadSettings reads the settings file at path, expanding environment
// variables. An empty path uses PLENTY_CONFIG or the default location; a
// missing default file yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	explicit := true
	if path == "" {
		path = firstNonBlankEnv(EnvSettingsFile)
	}
	if path == "" {
		path = DefaultSettingsPath()
		explicit = false
	}

	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			s := &Settings{}
			s.applyDefaults()
			return s, nil
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML settings, applies defaults and validates them.
func ParseSettings(data []byte) (*Settings, error) {
	expanded := os.ExpandEnv(string(data))

	var s Settings
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}

	s.applyDefaults()
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return &s, nil
}

func (s *Settings) applyDefaults() {
	s.BaseURL = strings.TrimSuffix(strings.TrimSpace(s.BaseURL), "/")
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxPages == 0 {
		s.MaxPages = 1000
	}
	if s.PageSize == 0 {
		s.PageSize = 50
	}
	if s.RateLimit.PerSecond > 0 && s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 1
	}
	if s.TokenStore.Backend == "" {
		s.TokenStore.Backend = TokenStoreKeyring
	}
	if s.TokenStore.KeyPrefix == "" {
		s.TokenStore.KeyPrefix = "plenty:token:"
	}
	if s.TokenStore.Dir == "" {
		s.TokenStore.Dir = DefaultTokenDir()
	}
	if s.TokenStore.Timeout == 0 {
		s.TokenStore.Timeout = 2 * time.Second
	}
	if s.Logging.Level == "" {
		s.Logging.Level = "warn"
	}
	if s.Logging.Format == "" {
		s.Logging.Format = "text"
	}
}

func (s *Settings) validate() error {
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if s.MaxPages < 0 {
		return errors.New("max_pages must not be negative")
	}
	if s.PageSize < 1 || s.PageSize > 250 {
		return fmt.Errorf("page_size must be between 1 and 250, got %d", s.PageSize)
	}
	if s.RateLimit.PerSecond < 0 {
		return errors.New("rate_limit.per_second must not be negative")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("timezone %q: %w", s.Timezone, err)
		}
	}
	switch s.TokenStore.Backend {
	case TokenStoreKeyring, TokenStoreFile, TokenStoreNone:
	case TokenStoreRedis:
		if s.TokenStore.RedisURL == "" {
			return errors.New("token_store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("token_store.backend must be one of keyring, redis, file, none; got %q", s.TokenStore.Backend)
	}
	switch strings.ToLower(s.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json; got %q", s.Logging.Format)
	}
	return nil
}

// Location returns the configured time zone, falling back to local time.
func (s *Settings) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
