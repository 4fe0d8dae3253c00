package config

import (
	"path/filepath"
)

// Config represents the complete mplxd configuration
type Config struct {
	Database  DatabaseConfig  `toml:"database" mapstructure:"database"`
	History   HistoryConfig   `toml:"history" mapstructure:"history"`
	Rent      RentConfig      `toml:"rent" mapstructure:"rent"`
	Fees      FeesConfig      `toml:"fees" mapstructure:"fees"`
	Scheduler SchedulerConfig `toml:"scheduler" mapstructure:"scheduler"`
	Log       LogConfig       `toml:"log" mapstructure:"log"`

	// GenesisFile is a JSON list of accounts written into an empty store.
	// If empty, the store starts empty.
	GenesisFile string `toml:"genesis_file" mapstructure:"genesis_file"`

	// SkipSignatureVerification disables ed25519 checks (standalone testing)
	SkipSignatureVerification bool `toml:"skip_signature_verification" mapstructure:"skip_signature_verification"`

	configPath string `toml:"-" mapstructure:"-"`
}

// RentConfig represents the [rent] section
type RentConfig struct {
	LamportsPerByteYear uint64  `toml:"lamports_per_byte_year" mapstructure:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `toml:"exemption_threshold" mapstructure:"exemption_threshold"`
}

// FeesConfig represents the [fees] section
type FeesConfig struct {
	LamportsPerSignature uint64 `toml:"lamports_per_signature" mapstructure:"lamports_per_signature"`
}

// SchedulerConfig represents the [scheduler] section
type SchedulerConfig struct {
	// MaxParallel of 0 uses GOMAXPROCS
	MaxParallel int `toml:"max_parallel" mapstructure:"max_parallel"`
}

// DefaultConfigPath is used when no --conf flag is given
const DefaultConfigPath = "mplxd.toml"

// GetConfigPath returns the path the configuration was loaded from, or ""
// when only defaults and environment were used
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ResolvePath makes a relative path relative to the configuration file
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.configPath == "" {
		return path
	}
	return filepath.Join(filepath.Dir(c.configPath), path)
}
