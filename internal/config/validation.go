package config

import (
	"fmt"
)

// ValidateConfig performs validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := config.History.Validate(); err != nil {
		return fmt.Errorf("history validation failed: %w", err)
	}
	if err := validateRent(&config.Rent); err != nil {
		return fmt.Errorf("rent validation failed: %w", err)
	}
	if config.Scheduler.MaxParallel < 0 {
		return fmt.Errorf("scheduler validation failed: max_parallel must be non-negative, got %d", config.Scheduler.MaxParallel)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}

	// Cross-validation checks
	if config.Database.Backend == "memory" && config.History.Enabled() && config.History.DSN != ":memory:" {
		return fmt.Errorf("memory database backend requires history driver none or dsn :memory:")
	}
	return nil
}

func validateRent(r *RentConfig) error {
	if r.LamportsPerByteYear == 0 {
		return fmt.Errorf("lamports_per_byte_year must be positive")
	}
	if r.ExemptionThreshold <= 0 {
		return fmt.Errorf("exemption_threshold must be positive, got %v", r.ExemptionThreshold)
	}
	return nil
}

// contains_slice checks if a slice contains a specific string
func contains_slice(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
