package postgres

import (
	"database/sql"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
)

func init() {
	relationaldb.RegisterDriver(relationaldb.DriverPostgres, func(config *relationaldb.Config) (relationaldb.RepositoryManager, error) {
		return NewRepositoryManager(config)
	})
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		signature BYTEA PRIMARY KEY,
		seq BIGINT NOT NULL,
		fee_payer BYTEA NOT NULL,
		result VARCHAR(64) NOT NULL,
		code INTEGER NOT NULL,
		applied BOOLEAN NOT NULL,
		fee BIGINT NOT NULL,
		raw_txn BYTEA NOT NULL,
		txn_meta BYTEA,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS account_transactions (
		account BYTEA NOT NULL,
		signature BYTEA NOT NULL,
		seq BIGINT NOT NULL,
		PRIMARY KEY (account, signature)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_seq ON transactions(seq)`,
	`CREATE INDEX IF NOT EXISTS idx_account_transactions_account_seq ON account_transactions(account, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_account_transactions_signature ON account_transactions(signature)`,
}

var dialect = relationaldb.Dialect{
	Driver: relationaldb.DriverPostgres,
	Schema: schema,
	Repository: func(db *sql.DB) relationaldb.TransactionRepository {
		return NewTransactionRepository(db)
	},
	TxRepository: func(tx *sql.Tx) relationaldb.TransactionRepository {
		return NewTransactionRepositoryWithTx(tx)
	},
}

// NewRepositoryManager returns an unopened PostgreSQL history store.
func NewRepositoryManager(config *relationaldb.Config) (*relationaldb.SQLStore, error) {
	return relationaldb.NewSQLStore(dialect, config)
}
