package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// duration lets JSON specify intervals either as strings like "3s" or as
// integer nanoseconds.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration value %q", string(data))
	}
}

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Absent fields
// leave the defaults in place.
type jsonConfig struct {
	APIBaseURL            *string   `json:"api_base_url"`
	RequestTimeout        *duration `json:"request_timeout"`
	LogoutTimeout         *duration `json:"logout_timeout"`
	UseKeyring            *bool     `json:"use_keyring"`
	StorePath             *string   `json:"store_path"`
	SecretPath            *string   `json:"secret_path"`
	LegacyCredentialsPath *string   `json:"legacy_credentials_path"`
}

// parseJSON overlays cfg with values from the JSON file at path. An empty
// path skips the overlay; a missing file is an error (the user asked for it).
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if jc.APIBaseURL != nil {
		cfg.APIBaseURL = *jc.APIBaseURL
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogoutTimeout != nil {
		cfg.LogoutTimeout = jc.LogoutTimeout.Duration
	}
	if jc.UseKeyring != nil {
		cfg.UseKeyring = *jc.UseKeyring
	}
	if jc.StorePath != nil {
		cfg.StorePath = *jc.StorePath
	}
	if jc.SecretPath != nil {
		cfg.SecretPath = *jc.SecretPath
	}
	if jc.LegacyCredentialsPath != nil {
		cfg.LegacyCredentialsPath = *jc.LegacyCredentialsPath
	}

	if cfg.APIBaseURL == "" {
		return errors.New("api_base_url must not be empty")
	}
	return nil
}
