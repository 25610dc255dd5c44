package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/carddavsync/internal/flagx"
	"github.com/dmitrijs2005/carddavsync/internal/timex"
)

// JsonConfig is the layout of the JSON configuration file. Durations are
// given as strings ("5m") or integer nanoseconds. Absent keys keep their
// current value.
type JsonConfig struct {
	DatabaseDriver  *string         `json:"database_driver"`
	DatabaseDSN     *string         `json:"database_dsn"`
	TablePrefix     *string         `json:"table_prefix"`
	PasswordScheme  *string         `json:"password_scheme"`
	PasswordSecret  *string         `json:"password_secret"`
	PresetsFile     *string         `json:"presets_file"`
	RefreshInterval *timex.Duration `json:"refresh_interval"`
	HealthAddr      *string         `json:"health_addr"`
	LogLevel        *string         `json:"log_level"`
	LogFormat       *string         `json:"log_format"`
	UserID          *string         `json:"user_id"`
	KeyringDir      *string         `json:"keyring_dir"`
	HTTPTimeout     *timex.Duration `json:"http_timeout"`
}

// parseJson loads the file named by -c or -config, if any, into config. An
// unreadable or invalid file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.TablePrefix, c.TablePrefix)
	setString(&config.PasswordScheme, c.PasswordScheme)
	setString(&config.PasswordSecret, c.PasswordSecret)
	setString(&config.PresetsFile, c.PresetsFile)
	setString(&config.HealthAddr, c.HealthAddr)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.UserID, c.UserID)
	setString(&config.KeyringDir, c.KeyringDir)
	if c.RefreshInterval != nil {
		config.RefreshInterval = c.RefreshInterval.Duration
	}
	if c.HTTPTimeout != nil {
		config.HTTPTimeout = c.HTTPTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
