package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
)

// DatabaseConfig represents the [database] section
// Configures the persistent account store
type DatabaseConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend"`
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression"`
	// CacheSize is the number of decoded accounts kept in memory
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// HistoryConfig represents the [history] section
// Configures the relational transaction history
type HistoryConfig struct {
	Driver       string        `toml:"driver" mapstructure:"driver"`
	DSN          string        `toml:"dsn" mapstructure:"dsn"`
	MaxOpenConns int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	Timeout      time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// Validate performs validation on the database configuration
func (d *DatabaseConfig) Validate() error {
	if !contains_slice([]string{"pebble", "leveldb", "memory"}, d.Backend) {
		return fmt.Errorf("invalid database backend: %s (valid options: pebble, leveldb, memory)", d.Backend)
	}
	if d.Backend != "memory" && d.Path == "" {
		return fmt.Errorf("database path is required for backend %s", d.Backend)
	}
	if !compression.IsAvailable(d.Compression) {
		return fmt.Errorf("invalid database compression: %s (valid options: %s)", d.Compression, strings.Join(compression.Available(), ", "))
	}
	if d.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", d.CacheSize)
	}
	return nil
}

// Enabled reports whether transactions are recorded
func (h *HistoryConfig) Enabled() bool {
	return h.Driver != "none" && h.Driver != ""
}

// Validate performs validation on the history configuration
func (h *HistoryConfig) Validate() error {
	if !h.Enabled() {
		return nil
	}
	if !contains_slice([]string{relationaldb.DriverSQLite, relationaldb.DriverPostgres}, h.Driver) {
		return fmt.Errorf("invalid history driver: %s (valid options: sqlite, postgres, none)", h.Driver)
	}
	if h.DSN == "" {
		return fmt.Errorf("history dsn is required for driver %s", h.Driver)
	}
	if h.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", h.MaxOpenConns)
	}
	if h.Driver == relationaldb.DriverSQLite && h.MaxOpenConns > 1 {
		return fmt.Errorf("sqlite allows a single connection, got max_open_conns %d", h.MaxOpenConns)
	}
	return nil
}

// RelationalConfig converts the section into a repository configuration
func (h *HistoryConfig) RelationalConfig() *relationaldb.Config {
	var rc *relationaldb.Config
	if h.Driver == relationaldb.DriverPostgres {
		rc = relationaldb.PostgresConfig(h.DSN)
	} else {
		rc = relationaldb.SQLiteConfig(h.DSN)
	}
	if h.MaxOpenConns > 0 {
		rc.MaxOpenConns = h.MaxOpenConns
		if rc.MaxIdleConns > rc.MaxOpenConns {
			rc.MaxIdleConns = rc.MaxOpenConns
		}
	}
	if h.Timeout > 0 {
		rc.DefaultTimeout = h.Timeout
	}
	return rc
}
