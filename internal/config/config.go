// Package config loads groundwork settings from defaults, an optional YAML
// file, GROUNDWORK_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/groundwork/internal/scheduler"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GROUNDWORK_DB_PATH.
const EnvPrefix = "GROUNDWORK"

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all runtime configuration.
type Config struct {
	DBPath    string `mapstructure:"db_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogCalls  bool   `mapstructure:"log_calls"`
	MaxPasses int    `mapstructure:"max_passes"`
	Color     string `mapstructure:"color"`
	// Project is the project code commands use when --project is absent.
	Project string `mapstructure:"project"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	dbPath := filepath.Join(".groundwork", "groundwork.db")
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, dbPath)
	}
	return Config{
		DBPath:    dbPath,
		LogLevel:  "info",
		LogCalls:  false,
		MaxPasses: scheduler.DefaultMaxPasses,
		Color:     ColorAuto,
	}
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"db":        "db_path",
	"log-level": "log_level",
	"color":     "color",
	"project":   "project",
}

// Load resolves the configuration. configFile, when empty, falls back to
// $GROUNDWORK_CONFIG and then to .groundwork.yaml in the working or home
// directory; a missing default file is not an error. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_calls", def.LogCalls)
	v.SetDefault("max_passes", def.MaxPasses)
	v.SetDefault("color", def.Color)
	v.SetDefault("project", def.Project)

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := configFile != ""
	if explicit {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".groundwork")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.MaxPasses < 1 {
		return fmt.Errorf("max_passes must be at least 1, got %d", c.MaxPasses)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("color must be auto, always or never, got %q", c.Color)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: unknown level %q (want debug, info, warn or error)", c.LogLevel)
	}
	return level, nil
}
