package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Config holds every configurable value of the tool.
type Config struct {
	// Persistence
	DBPath string `mapstructure:"db_path"` // path to the SQLite file, e.g. "./students.db"

	// Logging
	LogLevel string `mapstructure:"log_level"` // debug|info|warn|error

	// Import
	ImportWorkers int `mapstructure:"import_workers"` // validation goroutines used by import
}

// EnvPrefix is prepended to every environment variable, e.g. STUDENTS_DB_PATH.
const EnvPrefix = "STUDENTS"

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		DBPath:        "./students.db",
		LogLevel:      "info",
		ImportWorkers: 4,
	}
}

// Load reads configuration from (in decreasing priority):
//  1. command-line flags (applied later in main, not part of this pkg)
//  2. environment variables (STUDENTS_DB_PATH, STUDENTS_LOG_LEVEL, ...)
//  3. a yaml file: file when non-empty (it must exist), otherwise
//     ./configs/config.yaml or $XDG_CONFIG_HOME/studentdb/config.yaml if present.
func Load(file string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("import_workers", def.ImportWorkers)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "studentdb"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
			// no file, defaults and env only
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path must not be empty")
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	if c.ImportWorkers < 1 {
		return fmt.Errorf("config: import_workers must be at least 1, got %d", c.ImportWorkers)
	}
	return nil
}
