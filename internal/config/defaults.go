package config

import "github.com/spf13/viper"

// setDefaults sets every default value
func setDefaults(v *viper.Viper) {
	// Account store
	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data/accounts")
	v.SetDefault("database.compression", "lz4")
	v.SetDefault("database.cache_size", 4096)

	// Transaction history
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")
	v.SetDefault("history.max_open_conns", 1)
	v.SetDefault("history.timeout", "30s")

	// Rent and fees (mainnet values)
	v.SetDefault("rent.lamports_per_byte_year", 3480)
	v.SetDefault("rent.exemption_threshold", 2.0)
	v.SetDefault("fees.lamports_per_signature", 5000)

	// 0 means GOMAXPROCS
	v.SetDefault("scheduler.max_parallel", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)

	v.SetDefault("genesis_file", "")
	v.SetDefault("skip_signature_verification", false)
}
