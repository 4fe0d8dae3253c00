package config

import "fmt"

// LogConfig represents the [log] section
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
	// File enables rotated file output in addition to stderr
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
}

// Validate performs validation on the log configuration
func (l *LogConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains_slice(validLevels, l.Level) {
		return fmt.Errorf("invalid log level: %s (valid options: debug, info, warn, error)", l.Level)
	}
	if !contains_slice([]string{"json", "console"}, l.Format) {
		return fmt.Errorf("invalid log format: %s (valid options: json, console)", l.Format)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must be non-negative")
	}
	return nil
}

// IsFileEnabled returns true if logs are also written to a file
func (l *LogConfig) IsFileEnabled() bool {
	return l.File != ""
}
