package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Log      LogConfig      `mapstructure:"log"      validate:"required"`
}

// DatabaseConfig contains the settings used to open the database connection.
// The session character set is not configurable; connections always use UTF8.
type DatabaseConfig struct {
	Name     string `mapstructure:"name"     validate:"required"`
	Host     string `mapstructure:"host"     validate:"required"`
	User     string `mapstructure:"user"     validate:"required"`
	Password string `mapstructure:"password"`
	Port     int    `mapstructure:"port"     validate:"required,gt=0,lt=65536"`
	// SSLMode is passed through to the driver (libpq semantics).
	SSLMode        string        `mapstructure:"ssl_mode"        validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gte=0"`
}

// LogConfig contains logging settings. File is optional; when set, logs are
// also written to a size-rotated file.
type LogConfig struct {
	Level      string `mapstructure:"level"        validate:"required,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups"  validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// Complete reports whether the settings identify a database on their own.
// The password may legitimately be empty (trust or peer authentication).
func (c DatabaseConfig) Complete() bool {
	return c.Name != "" && c.Host != "" && c.User != "" && c.Port != 0
}

// WithFallback returns c when it is complete and defaults otherwise.
// Settings are never merged field by field: a partially specified
// configuration is replaced by the defaults as a whole.
func (c DatabaseConfig) WithFallback(defaults DatabaseConfig) DatabaseConfig {
	if c.Complete() {
		return c
	}
	return defaults
}
