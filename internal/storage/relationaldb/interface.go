package relationaldb

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// TransactionRecord is one transaction as recorded after the engine ran it.
// Rejected transactions are not recorded; fee-only failures are.
type TransactionRecord struct {
	Signature solana.Signature
	// Sequence is the position in the node's application order
	Sequence uint64
	FeePayer solana.PublicKey
	Result   string
	Code     int32
	Applied  bool
	Fee      uint64
	// RawTxn is the signed transaction as JSON
	RawTxn []byte
	// TxnMeta is the engine metadata as JSON
	TxnMeta []byte
	// Accounts lists every account the transaction locked
	Accounts  []solana.PublicKey
	CreatedAt time.Time
}

// AccountTxOptions selects a page of one account's transactions
type AccountTxOptions struct {
	Account solana.PublicKey
	Limit   int
	// Marker resumes after the sequence returned by a previous page
	Marker *uint64
	// Forward lists oldest first
	Forward bool
}

// AccountTxResult is one page of account transactions
type AccountTxResult struct {
	Transactions []TransactionRecord
	// Marker is set when more transactions remain
	Marker *uint64
}

// TransactionRepository stores applied transactions and the account index
type TransactionRepository interface {
	SaveTransaction(ctx context.Context, record *TransactionRecord) error
	GetTransaction(ctx context.Context, sig solana.Signature) (*TransactionRecord, error)
	GetAccountTransactions(ctx context.Context, options AccountTxOptions) (*AccountTxResult, error)
	GetTransactionCount(ctx context.Context) (int64, error)
	GetMaxSequence(ctx context.Context) (uint64, error)
	DeleteTransactionsBeforeSequence(ctx context.Context, seq uint64) error
}

// SystemRepository handles system-level database operations
type SystemRepository interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (TransactionContext, error)
}

// TransactionContext represents a database transaction with repository access
type TransactionContext interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Transaction() TransactionRepository
}

// RepositoryManager provides access to all repositories and transaction management
type RepositoryManager interface {
	Transaction() TransactionRepository
	System() SystemRepository

	Open(ctx context.Context) error
	Close(ctx context.Context) error

	WithTransaction(ctx context.Context, fn func(TransactionContext) error) error
}

// DefaultAccountTxLimit is used when AccountTxOptions.Limit is zero
const DefaultAccountTxLimit = 200

// MaxAccountTxLimit bounds one page of account transactions
const MaxAccountTxLimit = 1000

// NormalizeLimit applies the default and rejects out-of-range limits
func (o AccountTxOptions) NormalizeLimit() (int, error) {
	switch {
	case o.Limit == 0:
		return DefaultAccountTxLimit, nil
	case o.Limit < 0 || o.Limit > MaxAccountTxLimit:
		return 0, ErrInvalidLimit
	default:
		return o.Limit, nil
	}
}
