// Package config loads the runtime configuration shared by carddavctl and
// carddavd.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables (CARDDAV_*), also read from a .env file in the
//     working directory.
//  4. Command-line flags.
package config

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/carddav"
	"github.com/dmitrijs2005/carddavsync/internal/cryptox"
	"github.com/dmitrijs2005/carddavsync/internal/rowstore"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" and its DSN.
//   - TablePrefix: prefix of all tables.
//   - PasswordScheme / PasswordSecret: how account passwords are stored.
//   - PresetsFile: YAML file with admin presets; empty disables presets.
//   - RefreshInterval: pause between two refresh passes of the daemon.
//   - HealthAddr: bind address of the daemon's gRPC health endpoint.
//   - LogLevel / LogFormat: slog level and "text" or "json".
//   - UserID: principal the CLI acts for.
//   - KeyringDir / KeyringPassphrase: file keyring holding session secrets.
//   - HTTPTimeout: timeout of a single CardDAV request.
type Config struct {
	DatabaseDriver    string        `env:"CARDDAV_DB_DRIVER"`
	DatabaseDSN       string        `env:"CARDDAV_DB_DSN"`
	TablePrefix       string        `env:"CARDDAV_TABLE_PREFIX"`
	PasswordScheme    string        `env:"CARDDAV_PASSWORD_SCHEME"`
	PasswordSecret    string        `env:"CARDDAV_PASSWORD_SECRET"`
	PresetsFile       string        `env:"CARDDAV_PRESETS_FILE"`
	RefreshInterval   time.Duration `env:"CARDDAV_REFRESH_INTERVAL"`
	HealthAddr        string        `env:"CARDDAV_HEALTH_ADDR"`
	LogLevel          string        `env:"CARDDAV_LOG_LEVEL"`
	LogFormat         string        `env:"CARDDAV_LOG_FORMAT"`
	UserID            string        `env:"CARDDAV_USER"`
	KeyringDir        string        `env:"CARDDAV_KEYRING_DIR"`
	KeyringPassphrase string        `env:"CARDDAV_KEYRING_PASSPHRASE"`
	HTTPTimeout       time.Duration `env:"CARDDAV_HTTP_TIMEOUT"`
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = rowstore.DriverSQLite
	c.DatabaseDSN = "file:carddav.db?_pragma=busy_timeout(5000)"
	c.TablePrefix = rowstore.DefaultPrefix
	c.PasswordScheme = cryptox.SchemeEncrypted
	c.PasswordSecret = "change-me"
	c.PresetsFile = ""
	c.RefreshInterval = 5 * time.Minute
	c.HealthAddr = ":50052"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.UserID = ""
	c.KeyringDir = ".carddav-keyring"
	c.KeyringPassphrase = ""
	c.HTTPTimeout = carddav.DefaultTimeout
}

// LoadConfig builds a Config from defaults, the JSON file, the environment
// and flags, in that order.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	if c.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	return nil
}
