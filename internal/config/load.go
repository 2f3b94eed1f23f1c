package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix shared by every environment variable Load reads.
const EnvPrefix = "PGACCESS"

// configKeys lists every key Load knows about. Keys without a default must
// be bound explicitly, otherwise viper ignores their environment variables
// during Unmarshal.
var configKeys = []string{
	"database.name",
	"database.host",
	"database.user",
	"database.password",
	"database.port",
	"database.ssl_mode",
	"database.connect_timeout",
	"log.level",
	"log.file",
	"log.max_size_mb",
	"log.max_backups",
	"log.max_age_days",
	"log.compress",
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// The file is pgaccess.yaml in the working directory, or the path named by
// PGACCESS_CONFIG; only an explicitly named file is required to exist.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load(nil)
}

// LoadWithOverride is like Load, but explicit replaces the configured
// database settings when it is complete (see DatabaseConfig.WithFallback).
// Validation runs on the settings that will actually be used, so a complete
// explicit set needs no database section in the file or environment.
func LoadWithOverride(explicit DatabaseConfig) (*Config, error) {
	return load(func(cfg *Config) {
		cfg.Database = explicit.WithFallback(cfg.Database)
	})
}

func load(adjust func(*Config)) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "prefer")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pgaccess")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if adjust != nil {
		adjust(&cfg)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
