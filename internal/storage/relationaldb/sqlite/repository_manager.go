// Package sqlite stores transaction history in an embedded sqlite file
// through the pure Go modernc driver.
package sqlite

import (
	"database/sql"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	relationaldb.RegisterDriver(relationaldb.DriverSQLite, func(config *relationaldb.Config) (relationaldb.RepositoryManager, error) {
		return NewRepositoryManager(config)
	})
}

// Signatures, keys and raw payloads are BLOBs; created_at is unix nanos.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		signature BLOB PRIMARY KEY,
		seq INTEGER NOT NULL,
		fee_payer BLOB NOT NULL,
		result TEXT NOT NULL,
		code INTEGER NOT NULL,
		applied INTEGER NOT NULL,
		fee INTEGER NOT NULL,
		raw_txn BLOB NOT NULL,
		txn_meta BLOB,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS account_transactions (
		account BLOB NOT NULL,
		signature BLOB NOT NULL,
		seq INTEGER NOT NULL,
		PRIMARY KEY (account, signature)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_seq ON transactions(seq)`,
	`CREATE INDEX IF NOT EXISTS idx_account_transactions_account_seq ON account_transactions(account, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_account_transactions_signature ON account_transactions(signature)`,
}

var dialect = relationaldb.Dialect{
	Driver: relationaldb.DriverSQLite,
	Schema: schema,
	Repository: func(db *sql.DB) relationaldb.TransactionRepository {
		return NewTransactionRepository(db)
	},
	TxRepository: func(tx *sql.Tx) relationaldb.TransactionRepository {
		return NewTransactionRepositoryWithTx(tx)
	},
}

// NewRepositoryManager returns an unopened sqlite history store.
func NewRepositoryManager(config *relationaldb.Config) (*relationaldb.SQLStore, error) {
	return relationaldb.NewSQLStore(dialect, config)
}
