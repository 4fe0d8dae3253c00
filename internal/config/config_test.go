package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	mainConfigContent := `
genesis_file = "genesis.json"

[database]
backend = "leveldb"
path = "/tmp/test/accounts"
compression = "none"

[history]
driver = "postgres"
dsn = "postgres://mplx@localhost/mplx"
max_open_conns = 4

[fees]
lamports_per_signature = 10000

[scheduler]
max_parallel = 2

[log]
level = "debug"
format = "json"
`
	mainConfigPath := filepath.Join(tempDir, "mplxd.toml")
	require.NoError(t, os.WriteFile(mainConfigPath, []byte(mainConfigContent), 0644))

	config, err := LoadConfig(mainConfigPath)
	require.NoError(t, err)

	assert.Equal(t, "leveldb", config.Database.Backend)
	assert.Equal(t, "/tmp/test/accounts", config.Database.Path)
	assert.Equal(t, "none", config.Database.Compression)
	assert.Equal(t, 4096, config.Database.CacheSize)

	assert.Equal(t, "postgres", config.History.Driver)
	assert.Equal(t, 4, config.History.MaxOpenConns)
	assert.Equal(t, 30*time.Second, config.History.Timeout)

	assert.Equal(t, uint64(10000), config.Fees.LamportsPerSignature)
	assert.Equal(t, uint64(3480), config.Rent.LamportsPerByteYear)
	assert.Equal(t, 2.0, config.Rent.ExemptionThreshold)
	assert.Equal(t, 2, config.Scheduler.MaxParallel)
	assert.Equal(t, "debug", config.Log.Level)

	assert.Equal(t, mainConfigPath, config.GetConfigPath())
	assert.Equal(t, filepath.Join(tempDir, "genesis.json"), config.ResolvePath(config.GenesisFile))
	assert.Equal(t, "/abs/genesis.json", config.ResolvePath("/abs/genesis.json"))

	rc := config.History.RelationalConfig()
	assert.Equal(t, "postgres", rc.Driver)
	assert.Equal(t, 4, rc.MaxOpenConns)
	assert.LessOrEqual(t, rc.MaxIdleConns, 4)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "pebble", config.Database.Backend)
	assert.Equal(t, "lz4", config.Database.Compression)
	assert.Equal(t, "sqlite", config.History.Driver)
	assert.True(t, config.History.Enabled())
	assert.Equal(t, uint64(5000), config.Fees.LamportsPerSignature)
	assert.Equal(t, 0, config.Scheduler.MaxParallel)
	assert.Equal(t, "info", config.Log.Level)
	assert.False(t, config.Log.IsFileEnabled())
	assert.Empty(t, config.GetConfigPath())
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("MPLX_DATABASE_BACKEND", "memory")
	t.Setenv("MPLX_HISTORY_DRIVER", "none")
	t.Setenv("MPLX_FEES_LAMPORTS_PER_SIGNATURE", "7")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "memory", config.Database.Backend)
	assert.False(t, config.History.Enabled())
	assert.Equal(t, uint64(7), config.Fees.LamportsPerSignature)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestConfigValidationErrors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:  DatabaseConfig{Backend: "pebble", Path: "/tmp/a", Compression: "lz4"},
			History:   HistoryConfig{Driver: "sqlite", DSN: "/tmp/h.db", MaxOpenConns: 1},
			Rent:      RentConfig{LamportsPerByteYear: 3480, ExemptionThreshold: 2},
			Fees:      FeesConfig{LamportsPerSignature: 5000},
			Scheduler: SchedulerConfig{MaxParallel: 4},
			Log:       LogConfig{Level: "info", Format: "console"},
		}
	}
	require.NoError(t, ValidateConfig(valid()))

	tests := []struct {
		name   string
		mutate func(c *Config)
		msg    string
	}{
		{"backend", func(c *Config) { c.Database.Backend = "nudb" }, "invalid database backend"},
		{"path", func(c *Config) { c.Database.Path = "" }, "database path is required"},
		{"compression", func(c *Config) { c.Database.Compression = "zstd" }, "invalid database compression"},
		{"history driver", func(c *Config) { c.History.Driver = "mysql" }, "invalid history driver"},
		{"history dsn", func(c *Config) { c.History.DSN = "" }, "history dsn is required"},
		{"sqlite pool", func(c *Config) { c.History.MaxOpenConns = 4 }, "single connection"},
		{"rent", func(c *Config) { c.Rent.ExemptionThreshold = 0 }, "exemption_threshold"},
		{"scheduler", func(c *Config) { c.Scheduler.MaxParallel = -1 }, "max_parallel"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "invalid log level"},
		{"memory with history", func(c *Config) { c.Database.Backend = "memory" }, "memory database backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := ValidateConfig(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestGenesisJSON(t *testing.T) {
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	path := filepath.Join(t.TempDir(), "genesis.json")
	content := `{
		"total_lamports": 3000,
		"accounts": [
			{"pubkey": "` + a.String() + `", "lamports": 1000},
			{"pubkey": "` + b.String() + `", "lamports": 2000, "owner": "` + solana.TokenProgramID.String() + `", "data": "AQID"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	genesis, err := LoadGenesisJSON(path)
	require.NoError(t, err)
	require.NoError(t, genesis.Validate())

	accounts, err := genesis.ParseAccounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, a, accounts[0].Key)
	assert.Equal(t, solana.SystemProgramID, accounts[0].Account.Owner)
	assert.Equal(t, solana.TokenProgramID, accounts[1].Account.Owner)
	assert.Equal(t, []byte{1, 2, 3}, accounts[1].Account.Data)

	genesis.TotalLamports = 1
	assert.Error(t, genesis.Validate())

	genesis.TotalLamports = 0
	genesis.Accounts = append(genesis.Accounts, genesis.Accounts[0])
	assert.ErrorContains(t, genesis.Validate(), "duplicate")
}

func TestSaveExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.toml")
	require.NoError(t, SaveExampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", config.History.Driver)
	assert.Equal(t, 8, config.Scheduler.MaxParallel)
	assert.True(t, config.Log.IsFileEnabled())
}
