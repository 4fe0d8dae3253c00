package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
)

// executor is satisfied by both *sql.DB and *sql.Tx
type executor interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const transactionColumns = `t.signature, t.seq, t.fee_payer, t.result, t.code, t.applied, t.fee, t.raw_txn, t.txn_meta, t.created_at`

// TransactionRepository implements the TransactionRepository interface for SQLite
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx // Optional transaction context
}

// NewTransactionRepository creates a new SQLite transaction repository
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// NewTransactionRepositoryWithTx creates a new SQLite transaction repository within a transaction
func NewTransactionRepositoryWithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{tx: tx}
}

// getExecutor returns the appropriate executor (db or tx)
func (r *TransactionRepository) getExecutor() executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// SaveTransaction upserts the record and its account index rows atomically.
func (r *TransactionRepository) SaveTransaction(ctx context.Context, record *relationaldb.TransactionRecord) error {
	if r.tx != nil {
		return saveTransaction(ctx, r.tx, record)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return relationaldb.NewTransactionError("save_transaction", "failed to begin transaction", err)
	}
	if err := saveTransaction(ctx, tx, record); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return relationaldb.NewTransactionError("save_transaction", "failed to commit transaction", err)
	}
	return nil
}

func saveTransaction(ctx context.Context, ex executor, record *relationaldb.TransactionRecord) error {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO transactions (signature, seq, fee_payer, result, code, applied, fee, raw_txn, txn_meta, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT (signature) DO UPDATE SET
			  seq = EXCLUDED.seq,
			  result = EXCLUDED.result,
			  code = EXCLUDED.code,
			  applied = EXCLUDED.applied,
			  fee = EXCLUDED.fee,
			  raw_txn = EXCLUDED.raw_txn,
			  txn_meta = EXCLUDED.txn_meta`

	_, err := ex.ExecContext(ctx, query,
		record.Signature[:], int64(record.Sequence), record.FeePayer[:], record.Result,
		record.Code, record.Applied, int64(record.Fee), record.RawTxn, record.TxnMeta, createdAt.UnixNano())
	if err != nil {
		return relationaldb.NewQueryError("save_transaction", "failed to save transaction", err)
	}

	accountQuery := `INSERT INTO account_transactions (account, signature, seq)
					 VALUES (?, ?, ?)
					 ON CONFLICT (account, signature) DO UPDATE SET seq = EXCLUDED.seq`
	for _, account := range record.Accounts {
		if _, err := ex.ExecContext(ctx, accountQuery, account[:], record.Signature[:], int64(record.Sequence)); err != nil {
			return relationaldb.NewQueryError("save_transaction", "failed to save account transaction", err)
		}
	}
	return nil
}

func (r *TransactionRepository) GetTransaction(ctx context.Context, sig solana.Signature) (*relationaldb.TransactionRecord, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.signature = ?`

	record, err := scanTransaction(r.getExecutor().QueryRowContext(ctx, query, sig[:]))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, relationaldb.ErrTransactionNotFound
	}
	if err != nil {
		return nil, relationaldb.NewQueryError("get_transaction", "failed to query transaction", err)
	}

	rows, err := r.getExecutor().QueryContext(ctx,
		`SELECT account FROM account_transactions WHERE signature = ? ORDER BY account`, sig[:])
	if err != nil {
		return nil, relationaldb.NewQueryError("get_transaction", "failed to query transaction accounts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, relationaldb.NewQueryError("get_transaction", "failed to scan account", err)
		}
		record.Accounts = append(record.Accounts, solana.PublicKeyFromBytes(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("get_transaction", "error iterating rows", err)
	}
	return record, nil
}

// GetAccountTransactions pages through one account's transactions by
// sequence. Records in a page carry no Accounts list.
func (r *TransactionRepository) GetAccountTransactions(ctx context.Context, options relationaldb.AccountTxOptions) (*relationaldb.AccountTxResult, error) {
	limit, err := options.NormalizeLimit()
	if err != nil {
		return nil, err
	}

	var query string
	var marker int64
	if options.Forward {
		marker = -1
		query = `SELECT ` + transactionColumns + `
				 FROM account_transactions a JOIN transactions t ON t.signature = a.signature
				 WHERE a.account = ? AND a.seq > ?
				 ORDER BY a.seq ASC LIMIT ?`
	} else {
		marker = math.MaxInt64
		query = `SELECT ` + transactionColumns + `
				 FROM account_transactions a JOIN transactions t ON t.signature = a.signature
				 WHERE a.account = ? AND a.seq < ?
				 ORDER BY a.seq DESC LIMIT ?`
	}
	if options.Marker != nil {
		marker = int64(*options.Marker)
	}

	rows, err := r.getExecutor().QueryContext(ctx, query, options.Account[:], marker, limit+1)
	if err != nil {
		return nil, relationaldb.NewQueryError("get_account_transactions", "failed to query account transactions", err)
	}
	defer rows.Close()

	result := &relationaldb.AccountTxResult{}
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, relationaldb.NewQueryError("get_account_transactions", "failed to scan row", err)
		}
		if len(result.Transactions) == limit {
			last := result.Transactions[limit-1].Sequence
			result.Marker = &last
			break
		}
		result.Transactions = append(result.Transactions, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, relationaldb.NewQueryError("get_account_transactions", "error iterating rows", err)
	}
	return result, nil
}

func (r *TransactionRepository) GetTransactionCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.getExecutor().QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	if err != nil {
		return 0, relationaldb.NewQueryError("get_transaction_count", "failed to count transactions", err)
	}
	return count, nil
}

func (r *TransactionRepository) GetMaxSequence(ctx context.Context) (uint64, error) {
	var seq int64
	err := r.getExecutor().QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM transactions").Scan(&seq)
	if err != nil {
		return 0, relationaldb.NewQueryError("get_max_sequence", "failed to query max sequence", err)
	}
	return uint64(seq), nil
}

func (r *TransactionRepository) DeleteTransactionsBeforeSequence(ctx context.Context, seq uint64) error {
	if _, err := r.getExecutor().ExecContext(ctx, "DELETE FROM account_transactions WHERE seq < ?", int64(seq)); err != nil {
		return relationaldb.NewQueryError("delete_transactions_before_sequence", "failed to delete account transactions", err)
	}
	if _, err := r.getExecutor().ExecContext(ctx, "DELETE FROM transactions WHERE seq < ?", int64(seq)); err != nil {
		return relationaldb.NewQueryError("delete_transactions_before_sequence", "failed to delete transactions", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row scanner) (*relationaldb.TransactionRecord, error) {
	var (
		record        relationaldb.TransactionRecord
		sig, feePayer []byte
		seq, fee      int64
		meta          []byte
		createdAt     int64
	)
	if err := row.Scan(&sig, &seq, &feePayer, &record.Result, &record.Code, &record.Applied,
		&fee, &record.RawTxn, &meta, &createdAt); err != nil {
		return nil, err
	}
	if len(sig) != len(record.Signature) {
		return nil, relationaldb.ErrInvalidSignature
	}
	copy(record.Signature[:], sig)
	record.FeePayer = solana.PublicKeyFromBytes(feePayer)
	record.Sequence = uint64(seq)
	record.Fee = uint64(fee)
	record.TxnMeta = meta
	record.CreatedAt = time.Unix(0, createdAt)
	return &record, nil
}
