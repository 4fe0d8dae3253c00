package relationaldb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory builds a RepositoryManager for one driver
type Factory func(config *Config) (RepositoryManager, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterDriver makes a repository implementation available to NewFromConfig.
// Implementations call it from init.
func RegisterDriver(driver string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, dup := factories[driver]; dup {
		panic("relationaldb: driver registered twice: " + driver)
	}
	factories[driver] = factory
}

// Drivers returns the registered driver names
func Drivers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFromConfig validates config and builds the repository manager of its driver
func NewFromConfig(config *Config) (RepositoryManager, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("new_from_config", "invalid configuration", err)
	}
	factoriesMu.RLock()
	factory, ok := factories[config.Driver]
	factoriesMu.RUnlock()
	if !ok {
		return nil, NewConfigurationError("new_from_config",
			fmt.Sprintf("driver %q is not linked in", config.Driver), ErrInvalidDriver)
	}
	return factory(config)
}

// Manager provides lifecycle management and utilities for database operations
type Manager struct {
	repoManager RepositoryManager
	config      *Config
	logger      *zap.Logger

	healthCheckInterval time.Duration
	healthCancel        context.CancelFunc
	healthWg            sync.WaitGroup

	mu        sync.RWMutex
	connected bool
}

// ManagerOption defines functional options for Manager
type ManagerOption func(*Manager)

// WithLogger sets the logger for the manager
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHealthCheckInterval sets the health check interval. Zero disables the
// background checker.
func WithHealthCheckInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.healthCheckInterval = interval
	}
}

// NewManager creates a new database manager
func NewManager(repoManager RepositoryManager, config *Config, options ...ManagerOption) *Manager {
	manager := &Manager{
		repoManager:         repoManager,
		config:              config,
		logger:              zap.NewNop(),
		healthCheckInterval: time.Minute,
	}
	for _, option := range options {
		option(manager)
	}
	manager.logger = manager.logger.Named("history")
	return manager
}

// Open opens the database connection and starts background services
func (m *Manager) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return nil
	}

	if err := m.repoManager.Open(ctx); err != nil {
		m.logger.Error("failed to open database connection", zap.Error(err))
		return WrapError(err, "open_database")
	}

	if err := m.repoManager.System().Ping(ctx); err != nil {
		m.logger.Error("database health check failed", zap.Error(err))
		_ = m.repoManager.Close(ctx)
		return WrapError(err, "initial_health_check")
	}

	m.connected = true
	m.startHealthChecker()

	m.logger.Info("database opened", zap.Stringer("config", m.config))
	return nil
}

// Close closes the database connection and stops background services
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.mu.Unlock()

	m.stopHealthChecker()

	if err := m.repoManager.Close(ctx); err != nil {
		m.logger.Error("failed to close database connection", zap.Error(err))
		return WrapError(err, "close_database")
	}
	m.logger.Info("database closed")
	return nil
}

// IsConnected returns whether the database is connected
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// HealthCheck performs a manual health check
func (m *Manager) HealthCheck(ctx context.Context) error {
	if !m.IsConnected() {
		return ErrDatabaseClosed
	}
	if err := m.repoManager.System().Ping(ctx); err != nil {
		return WrapError(err, "health_check")
	}
	return nil
}

// ExecuteWithRetry executes a function, retrying retryable errors with a
// linearly growing delay capped at RetryMaxDelay
func (m *Manager) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * m.config.RetryDelay
			if delay > m.config.RetryMaxDelay {
				delay = m.config.RetryMaxDelay
			}
			m.logger.Debug("retrying operation",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.NamedError("last_error", lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}

	m.logger.Warn("operation failed", zap.Error(lastErr))
	return WrapError(lastErr, "execute_with_retry")
}

// ExecuteInTransaction executes a function within a transaction with retry logic
func (m *Manager) ExecuteInTransaction(ctx context.Context, operation func(TransactionContext) error) error {
	return m.ExecuteWithRetry(ctx, func() error {
		return m.repoManager.WithTransaction(ctx, operation)
	})
}

// Transactions returns the transaction repository
func (m *Manager) Transactions() TransactionRepository {
	return m.repoManager.Transaction()
}

func (m *Manager) startHealthChecker() {
	if m.healthCheckInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.healthCancel = cancel

	m.healthWg.Add(1)
	go func() {
		defer m.healthWg.Done()

		ticker := time.NewTicker(m.healthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checkCtx, cancel := context.WithTimeout(ctx, time.Second*10)
				if err := m.HealthCheck(checkCtx); err != nil {
					m.logger.Error("background health check failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}

func (m *Manager) stopHealthChecker() {
	if m.healthCancel != nil {
		m.healthCancel()
		m.healthWg.Wait()
		m.healthCancel = nil
	}
}
