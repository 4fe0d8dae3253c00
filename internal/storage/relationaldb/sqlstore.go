package relationaldb

import (
	"context"
	"database/sql"
)

// Dialect is what a database/sql driver package supplies to SQLStore.
type Dialect struct {
	// Driver is the name the driver registered with database/sql.
	Driver string
	// Schema statements run on every open and must be idempotent.
	Schema []string
	// Repository binds the transaction queries to a pool or a transaction.
	Repository   func(db *sql.DB) TransactionRepository
	TxRepository func(tx *sql.Tx) TransactionRepository
}

// SQLStore is the RepositoryManager of the database/sql drivers. It also
// serves as their SystemRepository.
type SQLStore struct {
	dialect Dialect
	config  *Config
	db      *sql.DB
	repo    TransactionRepository
}

// NewSQLStore validates config. The connection is made by Open.
func NewSQLStore(dialect Dialect, config *Config) (*SQLStore, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigurationError("new_repository_manager", "invalid configuration", err)
	}
	return &SQLStore{dialect: dialect, config: config}, nil
}

func (s *SQLStore) Open(ctx context.Context) error {
	connStr, err := s.config.BuildConnectionString()
	if err != nil {
		return NewConfigurationError("open", "failed to build connection string", err)
	}
	db, err := sql.Open(s.dialect.Driver, connStr)
	if err != nil {
		return NewConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(s.config.MaxOpenConns)
	db.SetMaxIdleConns(s.config.MaxIdleConns)
	db.SetConnMaxLifetime(s.config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return NewConnectionError("open", "failed to ping database", err)
	}

	for _, stmt := range s.dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return NewSchemaError("init_schema", "failed to execute schema query", err)
		}
	}

	s.db = db
	s.repo = s.dialect.Repository(db)
	return nil
}

func (s *SQLStore) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db, s.repo = nil, nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

func (s *SQLStore) Transaction() TransactionRepository { return s.repo }

func (s *SQLStore) System() SystemRepository { return s }

func (s *SQLStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDatabaseClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return NewConnectionError("ping", "failed to ping database", err)
	}
	return nil
}

func (s *SQLStore) Begin(ctx context.Context) (TransactionContext, error) {
	if s.db == nil {
		return nil, ErrDatabaseClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, NewTransactionError("begin", "failed to begin transaction", err)
	}
	return &sqlTx{tx: tx, repo: s.dialect.TxRepository(tx)}, nil
}

// WithTransaction commits when fn succeeds and rolls back otherwise,
// including when fn panics.
func (s *SQLStore) WithTransaction(ctx context.Context, fn func(TransactionContext) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		// fn's error wins over a rollback failure
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type sqlTx struct {
	tx   *sql.Tx
	repo TransactionRepository
}

func (t *sqlTx) Commit(context.Context) error {
	if t.tx == nil {
		return ErrTransactionClosed
	}
	err := t.tx.Commit()
	t.tx = nil
	if err != nil {
		return NewTransactionError("commit", "failed to commit transaction", err)
	}
	return nil
}

// Rollback after Commit is a no-op.
func (t *sqlTx) Rollback(context.Context) error {
	if t.tx == nil {
		return nil
	}
	err := t.tx.Rollback()
	t.tx = nil
	if err != nil {
		return NewTransactionError("rollback", "failed to rollback transaction", err)
	}
	return nil
}

func (t *sqlTx) Transaction() TransactionRepository { return t.repo }
