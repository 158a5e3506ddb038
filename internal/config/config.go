// Package config loads the microcred CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvConfigPath   = "MICROCRED_CONFIG"
	EnvLogLevel     = "MICROCRED_LOG_LEVEL"
	EnvLogEnv       = "MICROCRED_LOG_ENV"
	EnvTrustDir     = "MICROCRED_TRUST_PATH"
	EnvKeyFile      = "MICROCRED_ISSUER_KEY"
	EnvIdentityFile = "MICROCRED_ISSUER_IDENTITY"
	EnvDefaultTTL   = "MICROCRED_DEFAULT_TTL"
)

type Config struct {
	Log struct {
		// dev | prod
		Env   string `yaml:"env"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Trust struct {
		Dir string `yaml:"dir"`
	} `yaml:"trust"`

	Issuer struct {
		KeyFile      string `yaml:"key_file"`
		IdentityFile string `yaml:"identity_file"`
	} `yaml:"issuer"`

	Credential struct {
		// Empty or "0" issues credentials without expiry.
		DefaultTTL string `yaml:"default_ttl"`
	} `yaml:"credential"`
}

// HomeDir is the directory holding the default config, trust store and
// issuer files.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".microcred"
	}
	return filepath.Join(home, ".microcred")
}

// DefaultPath returns the config file path: $MICROCRED_CONFIG or
// ~/.microcred/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(HomeDir(), "config.yaml")
}

// LoadDotEnv loads .env files from the working directory. Variables already
// set in the environment win. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads the YAML file at path, applies environment overrides and fills
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	c.applyEnv()
	c.applyDefaults()

	if _, err := c.TTL(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.Log.Level, EnvLogLevel)
	override(&c.Log.Env, EnvLogEnv)
	override(&c.Trust.Dir, EnvTrustDir)
	override(&c.Issuer.KeyFile, EnvKeyFile)
	override(&c.Issuer.IdentityFile, EnvIdentityFile)
	override(&c.Credential.DefaultTTL, EnvDefaultTTL)
}

func (c *Config) applyDefaults() {
	home := HomeDir()
	if c.Log.Env == "" {
		c.Log.Env = "dev"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Trust.Dir == "" {
		c.Trust.Dir = filepath.Join(home, "trust")
	}
	if c.Issuer.KeyFile == "" {
		c.Issuer.KeyFile = filepath.Join(home, "issuer.jwk")
	}
	if c.Issuer.IdentityFile == "" {
		c.Issuer.IdentityFile = filepath.Join(home, "issuer.json")
	}
}

// TTL parses credential.default_ttl. Zero means no expiry.
func (c *Config) TTL() (time.Duration, error) {
	if c.Credential.DefaultTTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Credential.DefaultTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid credential.default_ttl %q: %w", c.Credential.DefaultTTL, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid credential.default_ttl %q: must not be negative", c.Credential.DefaultTTL)
	}
	return d, nil
}
