// Package config resolves process settings from flags, TOURGUIDE_* environment
// variables and an optional dotenv file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/tourguide/pkg/assets"
	"github.com/aretw0/tourguide/pkg/persistence/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "TOURGUIDE"

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// State backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Settings are the resolved process settings.
type Settings struct {
	Config        string        `mapstructure:"config"`
	Path          string        `mapstructure:"path"`
	Visitor       string        `mapstructure:"visitor"`
	Backend       string        `mapstructure:"backend"`
	StateDir      string        `mapstructure:"state-dir"`
	RedisAddr     string        `mapstructure:"redis-addr"`
	RedisPassword string        `mapstructure:"redis-password"`
	RedisDB       int           `mapstructure:"redis-db"`
	RedisPrefix   string        `mapstructure:"redis-prefix"`
	AssetTimeout  time.Duration `mapstructure:"asset-timeout"`
	CSSURLs       []string      `mapstructure:"css"`
	JSURLs        []string      `mapstructure:"js"`
	SkipAssets    bool          `mapstructure:"skip-assets"`
	ReportURL     string        `mapstructure:"report-url"`
	LogLevel      string        `mapstructure:"log-level"`
	LogFormat     string        `mapstructure:"log-format"`
	Addr          string        `mapstructure:"addr"`

	// EncryptionKey is a base64 AES-256 key; records are stored encrypted when set.
	EncryptionKey          string   `mapstructure:"encryption-key"`
	EncryptionFallbackKeys []string `mapstructure:"encryption-fallback-keys"`
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("config", "driver.config.json")
	v.SetDefault("path", "/")
	v.SetDefault("visitor", "")
	v.SetDefault("backend", BackendFile)
	v.SetDefault("state-dir", ".tourguide/state")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-password", "")
	v.SetDefault("redis-db", 0)
	v.SetDefault("redis-prefix", "tourguide:")
	v.SetDefault("asset-timeout", 3*time.Second)
	v.SetDefault("css", assets.DefaultStylesheetMirrors)
	v.SetDefault("js", assets.DefaultScriptMirrors)
	v.SetDefault("skip-assets", false)
	v.SetDefault("report-url", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetDefault("addr", ":8080")
	v.SetDefault("encryption-key", "")
	v.SetDefault("encryption-fallback-keys", []string{})
	return v
}

// BindFlags makes explicitly set flags override environment and defaults.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	return v.BindPFlags(flags)
}

// LoadEnvFile loads dotenv variables without overriding the environment.
// A missing default file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultEnvFile {
			return nil
		}
		return fmt.Errorf("env file: %w", err)
	}
	return godotenv.Load(path)
}

// Load decodes and validates the settings.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	// Environment lists arrive as one comma-separated string.
	s.CSSURLs = splitList(s.CSSURLs)
	s.JSURLs = splitList(s.JSURLs)
	s.EncryptionFallbackKeys = splitList(s.EncryptionFallbackKeys)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	var errs []error
	switch s.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want memory, file or redis)", s.Backend))
	}
	if s.AssetTimeout <= 0 {
		errs = append(errs, fmt.Errorf("asset timeout must be positive, got %s", s.AssetTimeout))
	}
	if s.Backend == BackendRedis && s.RedisAddr == "" {
		errs = append(errs, errors.New("redis backend requires an address"))
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", s.LogFormat))
	}
	if _, err := s.Encryption(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Encryption returns the record encryption keys, or nil when encryption is off.
func (s *Settings) Encryption() (*middleware.EncryptionConfig, error) {
	if s.EncryptionKey == "" {
		if len(s.EncryptionFallbackKeys) > 0 {
			return nil, errors.New("encryption fallback keys require an encryption key")
		}
		return nil, nil
	}
	active, err := middleware.ParseKey(s.EncryptionKey)
	if err != nil {
		return nil, err
	}
	cfg := &middleware.EncryptionConfig{ActiveKey: active}
	for _, encoded := range s.EncryptionFallbackKeys {
		k, err := middleware.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("fallback %w", err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, k)
	}
	return cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
