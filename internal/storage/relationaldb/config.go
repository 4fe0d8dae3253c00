package relationaldb

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Supported drivers. The names match the database/sql driver registrations
// of modernc.org/sqlite and github.com/lib/pq.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains database configuration settings
type Config struct {
	Driver string `json:"driver" yaml:"driver"`

	// DSN is a postgres URL or key/value string, or a sqlite file path
	DSN string `json:"dsn" yaml:"dsn"`

	// Connection pool settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`

	// Transaction settings
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout"`

	// Retry settings
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`
	RetryDelay    time.Duration `json:"retry_delay" yaml:"retry_delay"`
	RetryMaxDelay time.Duration `json:"retry_max_delay" yaml:"retry_max_delay"`

	// EnableWALMode switches sqlite to write-ahead logging
	EnableWALMode bool `json:"enable_wal_mode" yaml:"enable_wal_mode"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          DriverSQLite,
		DSN:             "history.db",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  time.Second * 30,
		MaxRetries:      3,
		RetryDelay:      time.Millisecond * 100,
		RetryMaxDelay:   time.Second * 5,
		EnableWALMode:   true,
	}
}

// PostgresConfig creates a PostgreSQL-specific configuration
func PostgresConfig(dsn string) *Config {
	config := NewConfig()
	config.Driver = DriverPostgres
	config.DSN = dsn
	config.MaxOpenConns = 25
	config.MaxIdleConns = 5
	return config
}

// SQLiteConfig creates a SQLite-specific configuration. ":memory:" opens a
// private in-memory database.
func SQLiteConfig(dbPath string) *Config {
	config := NewConfig()
	config.DSN = dbPath
	config.MaxOpenConns = 1 // SQLite allows a single writer
	config.MaxIdleConns = 1
	return config
}

// Validate checks the configuration for common errors
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}
	if c.DSN == "" {
		return ErrMissingDSN
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns < 0 {
		return ErrInvalidMaxIdleConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}

	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.ConnMaxLifetime < 0 {
		return ErrInvalidConnMaxLifetime
	}

	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if c.RetryMaxDelay < c.RetryDelay {
		return ErrInvalidRetryMaxDelay
	}
	return nil
}

// BuildConnectionString builds the driver connection string from the config
func (c *Config) BuildConnectionString() (string, error) {
	switch c.Driver {
	case DriverPostgres:
		return c.DSN, nil
	case DriverSQLite:
		return c.buildSQLiteConnectionString(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidDriver, c.Driver)
	}
}

// buildSQLiteConnectionString appends modernc pragma parameters to the path
func (c *Config) buildSQLiteConnectionString() string {
	if c.DSN == ":memory:" || strings.Contains(c.DSN, "?") {
		return c.DSN
	}

	params := url.Values{}
	pragmas := []string{"busy_timeout(5000)", "synchronous(NORMAL)"}
	if c.EnableWALMode {
		pragmas = append(pragmas, "journal_mode(WAL)")
	}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}
	return "file:" + c.DSN + "?" + params.Encode()
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// WithRetrySettings returns a new config with the specified retry settings
func (c *Config) WithRetrySettings(maxRetries int, delay, maxDelay time.Duration) *Config {
	clone := c.Clone()
	clone.MaxRetries = maxRetries
	clone.RetryDelay = delay
	clone.RetryMaxDelay = maxDelay
	return clone
}

var passwordPattern = regexp.MustCompile(`password=\S+`)

// String returns a string representation of the config with any password
// redacted
func (c *Config) String() string {
	dsn := c.DSN
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		dsn = u.Redacted()
	} else {
		dsn = passwordPattern.ReplaceAllString(dsn, "password=xxxxx")
	}
	return fmt.Sprintf("Config{Driver: %s, DSN: %s}", c.Driver, dsn)
}
