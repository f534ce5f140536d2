// Package config holds runtime settings for the sessionctl CLI.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings.
//
// Fields:
//   - APIBaseURL: base URL of the auth backend (no trailing slash needed).
//   - RequestTimeout: bound on every auth HTTP call.
//   - LogoutTimeout: tighter bound on the best-effort logout call.
//   - UseKeyring: store credentials in the OS keychain; when false, the
//     encrypted SQLite fallback at StorePath is used.
//   - LegacyCredentialsPath: plaintext credentials file from older releases,
//     scrubbed on startup.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	LogoutTimeout  time.Duration

	UseKeyring bool
	StorePath  string
	SecretPath string

	LegacyCredentialsPath string
}

// LoadDefaults populates c with sensible defaults. Paths land under the
// user's config directory (falling back to the working directory).
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.LogoutTimeout = 3 * time.Second
	c.UseKeyring = true

	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	dir := filepath.Join(base, "sessionctl")
	c.StorePath = filepath.Join(dir, "credentials.db")
	c.SecretPath = filepath.Join(dir, "storage.key")
	c.LegacyCredentialsPath = filepath.Join(dir, "auth.json")
}

// Load constructs a Config: defaults first, then an optional JSON overlay.
// Flag overrides are applied by the CLI layer on top of the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
