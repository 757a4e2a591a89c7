// Package config loads the tracker configuration and resolves the remote
// backend's credentials and destination.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Compiled-in fallbacks, used when neither the config file nor the
// environment provides a value.
const (
	DefaultHorizon        = "2025-12-31"
	DefaultWorksheet      = "DailyMetrics"
	fallbackSpreadsheetID = "1qZx7mJ3kPv9dTnYcW4eRbHsL8gFu2aK5oViD6NtXwCE"
)

// Config is the full tracker configuration.
type Config struct {
	Horizon   string       `toml:"horizon"`
	DataDir   string       `toml:"data_dir"`
	BackupDir string       `toml:"backup_dir"`
	Sheets    SheetsConfig `toml:"sheets"`
}

// SheetsConfig configures the Google Sheets backend. ServiceAccountJSON is
// the raw service account key; ServiceAccountFile a path to one.
type SheetsConfig struct {
	SpreadsheetID      string `toml:"spreadsheet_id"`
	Worksheet          string `toml:"worksheet"`
	ServiceAccountJSON string `toml:"service_account_json"`
	ServiceAccountFile string `toml:"service_account_file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Horizon:   DefaultHorizon,
		DataDir:   "data",
		BackupDir: "backups",
		Sheets: SheetsConfig{
			Worksheet: DefaultWorksheet,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Horizon == "" {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.Sheets.Worksheet == "" {
		cfg.Sheets.Worksheet = DefaultWorksheet
	}
	return cfg, nil
}

// provider is one step of a resolution chain: a value and whether it was
// found. Providers are tried in order; the first hit wins.
type provider func() (string, bool)

func firstOf(providers ...provider) (string, bool) {
	for _, p := range providers {
		if v, ok := p(); ok {
			return v, true
		}
	}
	return "", false
}

func fromEnv(key string) provider {
	return func() (string, bool) {
		v := os.Getenv(key)
		return v, v != ""
	}
}

func literal(v string) provider {
	return func() (string, bool) { return v, v != "" }
}

func fromFile(path string) provider {
	return func() (string, bool) {
		if path == "" {
			return "", false
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", false
		}
		return string(data), true
	}
}

// ResolveCredentials returns the service account key JSON, trying the config
// file's inline key, the config file's key path, then the environment
// (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE).
func (c *Config) ResolveCredentials() ([]byte, bool) {
	raw, ok := firstOf(
		literal(c.Sheets.ServiceAccountJSON),
		fromFile(c.Sheets.ServiceAccountFile),
		fromEnv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		func() (string, bool) {
			return fromFile(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))()
		},
	)
	if !ok {
		return nil, false
	}
	return []byte(raw), true
}

// ResolveSpreadsheetID returns the destination spreadsheet: config file,
// then HABITS_SPREADSHEET_ID, then the compiled-in fallback.
func (c *Config) ResolveSpreadsheetID() (string, bool) {
	return firstOf(
		literal(c.Sheets.SpreadsheetID),
		fromEnv("HABITS_SPREADSHEET_ID"),
		literal(fallbackSpreadsheetID),
	)
}

// RemoteEnabled reports whether the Sheets backend should be used: both a
// credential set and a destination must resolve. The decision is made once
// at startup; there is no mixing of backends within one run.
func (c *Config) RemoteEnabled() bool {
	if _, ok := c.ResolveCredentials(); !ok {
		return false
	}
	_, ok := c.ResolveSpreadsheetID()
	return ok
}
