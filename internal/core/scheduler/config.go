package scheduler

import (
	"runtime"

	"go.uber.org/zap"
)

// Config holds configuration for the scheduler.
type Config struct {
	// MaxParallel bounds the transactions applied at once within a wave.
	// Zero means GOMAXPROCS.
	MaxParallel int

	// Logger receives wave summaries. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns a configuration using every available CPU.
func DefaultConfig() Config {
	return Config{MaxParallel: runtime.GOMAXPROCS(0)}
}

func (c Config) parallelism() int {
	if c.MaxParallel <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.MaxParallel
}
