package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/carddavsync/internal/flagx"
)

var flagNames = []string{"-b", "-d", "-x", "-s", "-k", "-p", "-i", "-a", "-l", "-f", "-u", "-r", "-t"}

// ValueFlags lists every flag that takes a value, including -c/-config, so
// callers can tell the remaining positional arguments apart.
func ValueFlags() []string {
	return append([]string{"-c", "-config"}, flagNames...)
}

// parseFlags overlays the command-line flags.
//
//	-b string   database driver (sqlite, pgx)
//	-d string   database DSN
//	-x string   table prefix
//	-s string   password scheme (plain, base64, encrypted)
//	-k string   password encryption secret
//	-p string   presets file
//	-i int      refresh interval, seconds
//	-a string   health endpoint address
//	-l string   log level
//	-f string   log format (text, json)
//	-u string   user id
//	-r string   keyring directory
//	-t int      CardDAV request timeout, seconds
//
// Only these flags are looked at; other arguments are left to the caller.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDriver, "b", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.TablePrefix, "x", config.TablePrefix, "table prefix")
	fs.StringVar(&config.PasswordScheme, "s", config.PasswordScheme, "password scheme")
	fs.StringVar(&config.PasswordSecret, "k", config.PasswordSecret, "password encryption secret")
	fs.StringVar(&config.PresetsFile, "p", config.PresetsFile, "presets file")
	refresh := fs.Int("i", int(config.RefreshInterval.Seconds()), "refresh interval (in seconds)")
	fs.StringVar(&config.HealthAddr, "a", config.HealthAddr, "health endpoint address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.UserID, "u", config.UserID, "user id")
	fs.StringVar(&config.KeyringDir, "r", config.KeyringDir, "keyring directory")
	timeout := fs.Int("t", int(config.HTTPTimeout.Seconds()), "CardDAV request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RefreshInterval = time.Duration(*refresh) * time.Second
	config.HTTPTimeout = time.Duration(*timeout) * time.Second
}
