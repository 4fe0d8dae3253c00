// Package node wires configuration, storage, the transaction engine and
// the history database into one runnable unit.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/config"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/state"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/scheduler"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
	"go.uber.org/zap"

	// Programs
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/auctionhouse"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/bubblegum"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"

	// Storage backends
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database/leveldb"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database/memory"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database/pebble"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb/postgres"
	_ "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb/sqlite"
)

// Common errors
var (
	ErrNotStarted     = errors.New("node is not started")
	ErrAlreadyStarted = errors.New("node is already started")
	ErrNoHistory      = errors.New("transaction history is disabled")
)

// Node owns the account store, the engine and the optional history store
type Node struct {
	mu sync.Mutex

	config *config.Config
	log    *zap.Logger

	db        *database.Manager
	store     *state.Store
	engine    *tx.Engine
	scheduler *scheduler.Scheduler

	// history is nil when the history driver is none
	history *relationaldb.Manager
}

// New creates a node from cfg. Nothing is opened until Start.
func New(cfg *config.Config, logger *zap.Logger) *Node {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Node{
		config: cfg,
		log:    logger.Named("node"),
		db:     database.NewManager(cfg.Database.Backend, cfg.Database.Path),
	}
}

// Start opens storage, seeds genesis into an empty store and connects
// the history database.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.store != nil {
		return ErrAlreadyStarted
	}

	db, err := n.db.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", n.config.Database.Backend, err)
	}
	store, err := state.New(db, state.Config{
		CacheSize:   n.config.Database.CacheSize,
		Compression: n.config.Database.Compression,
	})
	if err != nil {
		n.db.Close()
		return fmt.Errorf("failed to create account store: %w", err)
	}

	if err := n.seedGenesis(store); err != nil {
		n.db.Close()
		return err
	}

	if n.config.History.Enabled() {
		history, err := n.openHistory(ctx)
		if err != nil {
			n.db.Close()
			return err
		}
		n.history = history
	}

	n.store = store
	n.engine = tx.NewEngine(store, tx.EngineConfig{
		LamportsPerSignature: n.config.Fees.LamportsPerSignature,
		Rent: tx.Rent{
			LamportsPerByteYear: n.config.Rent.LamportsPerByteYear,
			ExemptionThreshold:  n.config.Rent.ExemptionThreshold,
		},
		SkipSignatureVerification: n.config.SkipSignatureVerification,
		Logger:                    n.log,
	})
	n.scheduler = scheduler.New(n.engine, scheduler.Config{
		MaxParallel: n.config.Scheduler.MaxParallel,
		Logger:      n.log,
	})

	n.log.Info("node started",
		zap.String("backend", n.db.Backend()),
		zap.Int("accounts", store.Len()),
		zap.Bool("history", n.history != nil),
	)
	return nil
}

func (n *Node) openHistory(ctx context.Context) (*relationaldb.Manager, error) {
	rc := n.config.History.RelationalConfig()
	repo, err := relationaldb.NewFromConfig(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to create history store: %w", err)
	}
	history := relationaldb.NewManager(repo, rc, relationaldb.WithLogger(n.log))
	if err := history.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open history store: %w", err)
	}
	return history, nil
}

// Close releases the history and account databases
func (n *Node) Close(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	if n.history != nil {
		if err := n.history.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		n.history = nil
	}
	if err := n.db.Close(); err != nil {
		errs = append(errs, err)
	}
	n.store = nil
	n.engine = nil
	n.scheduler = nil
	return errors.Join(errs...)
}

// Store returns the account store, or nil before Start
func (n *Node) Store() *state.Store {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.store
}

// Account reads one account. A nil account means it does not exist.
func (n *Node) Account(key solana.PublicKey) (*ledger.Account, error) {
	store := n.Store()
	if store == nil {
		return nil, ErrNotStarted
	}
	return store.Read(key)
}
