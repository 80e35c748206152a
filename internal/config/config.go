// Package config resolves GreenStash settings from viper, the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Viper keys.
const (
	KeyDatabasePath = "database.path"
	KeyCurrency     = "display.currency"
	KeyDateFormat   = "display.date_format"
	KeyTheme        = "tui.theme"
	KeyLogLevel     = "logging.level"
	KeyLogFormat    = "logging.format"
	KeyAutoBackup   = "backup.auto"
)

// Default values.
const (
	DefaultCurrency   = "$"
	DefaultDateFormat = "Jan 2, 2006"
	DefaultTheme      = "default"
)

// Settings are the resolved application settings.
type Settings struct {
	DatabasePath string
	Currency     string
	DateFormat   string
	Theme        string
	AutoBackup   bool
}

// Dir returns the GreenStash configuration directory, honoring XDG_CONFIG_HOME.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "greenstash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "greenstash"), nil
}

// DefaultDatabasePath returns the database location used when none is configured.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "greenstash", "greenstash.db")
	}
	return ResolvePath("~/.local/share/greenstash/greenstash.db", "")
}

// ResolvePath expands environment variables and a leading ~ in path, then
// joins relative results onto base. SQLite's in-memory and URI names are
// returned unchanged.
func ResolvePath(path, base string) string {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}

	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		path = filepath.Join(home, path[1:])
	}

	if base != "" && !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	return path
}

// resolveInDir resolves path against the configuration directory.
func resolveInDir(path string) string {
	dir, err := Dir()
	if err != nil {
		return ResolvePath(path, "")
	}
	return ResolvePath(path, dir)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyCurrency, DefaultCurrency)
	v.SetDefault(KeyDateFormat, DefaultDateFormat)
	v.SetDefault(KeyTheme, DefaultTheme)
	v.SetDefault(KeyAutoBackup, true)
}

// Load resolves settings from v. A relative database path is taken as
// relative to the configuration directory.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		DatabasePath: resolveInDir(v.GetString(KeyDatabasePath)),
		Currency:     v.GetString(KeyCurrency),
		DateFormat:   v.GetString(KeyDateFormat),
		Theme:        strings.ToLower(v.GetString(KeyTheme)),
		AutoBackup:   v.GetBool(KeyAutoBackup),
	}

	if s.DatabasePath == "" {
		return nil, fmt.Errorf("%s must not be empty", KeyDatabasePath)
	}
	if s.DateFormat == "" {
		s.DateFormat = DefaultDateFormat
	}
	if s.Theme == "" {
		s.Theme = DefaultTheme
	}

	return s, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file in dir. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
