package relationaldb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb/postgres"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDriversRegistered(t *testing.T) {
	assert.Equal(t, []string{"postgres", "sqlite"}, relationaldb.Drivers())

	_, err := relationaldb.NewFromConfig(&relationaldb.Config{Driver: "mysql", DSN: "x"})
	assert.True(t, errors.Is(err, relationaldb.ErrInvalidDriver))
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	config := relationaldb.SQLiteConfig(":memory:")
	repo, err := relationaldb.NewFromConfig(config)
	require.NoError(t, err)

	m := relationaldb.NewManager(repo, config,
		relationaldb.WithLogger(zaptest.NewLogger(t)),
		relationaldb.WithHealthCheckInterval(0),
	)
	assert.ErrorIs(t, m.HealthCheck(ctx), relationaldb.ErrDatabaseClosed)

	require.NoError(t, m.Open(ctx))
	assert.True(t, m.IsConnected())
	require.NoError(t, m.HealthCheck(ctx))

	count, err := m.Transactions().GetTransactionCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, m.Close(ctx))
	assert.False(t, m.IsConnected())
	require.NoError(t, m.Close(ctx))
}

func TestExecuteWithRetry(t *testing.T) {
	ctx := context.Background()
	config := relationaldb.SQLiteConfig(":memory:").WithRetrySettings(2, time.Millisecond, 2*time.Millisecond)
	m := relationaldb.NewManager(nil, config)

	t.Run("retryable errors are retried", func(t *testing.T) {
		calls := 0
		err := m.ExecuteWithRetry(ctx, func() error {
			calls++
			if calls < 3 {
				return relationaldb.NewConnectionError("op", "refused", nil)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors stop at once", func(t *testing.T) {
		calls := 0
		err := m.ExecuteWithRetry(ctx, func() error {
			calls++
			return relationaldb.NewSchemaError("op", "bad schema", nil)
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
