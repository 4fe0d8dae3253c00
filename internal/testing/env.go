package testing

import (
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/state"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/database/memory"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestEnv manages an in-memory ledger for transaction testing.
// It provides a simplified interface for creating accounts, funding them,
// submitting transactions, and verifying results.
type TestEnv struct {
	t      *testing.T
	store  *state.Store
	engine *tx.Engine

	// fixtures counts generated keypairs so their names stay unique
	fixtures int
}

// NewTestEnv creates a test environment with the default fee and rent
// parameters.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	return NewTestEnvWithConfig(t, tx.DefaultEngineConfig())
}

// NewTestEnvWithConfig creates a test environment with a custom engine
// configuration. A nil logger logs warnings to the test output.
func NewTestEnvWithConfig(t *testing.T, cfg tx.EngineConfig) *TestEnv {
	t.Helper()

	store, err := state.New(memory.NewDB(), state.Config{})
	if err != nil {
		t.Fatalf("Failed to create account store: %v", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	}
	return &TestEnv{
		t:      t,
		store:  store,
		engine: tx.NewEngine(store, cfg),
	}
}

// Store returns the account store.
func (e *TestEnv) Store() *state.Store { return e.store }

// Engine returns the transaction engine.
func (e *TestEnv) Engine() *tx.Engine { return e.engine }

// Rent returns the rent parameters in force.
func (e *TestEnv) Rent() tx.Rent { return e.engine.Config().Rent }

// Fee returns the fee for a transaction with the given number of signers.
func (e *TestEnv) Fee(signers int) uint64 {
	return e.engine.Config().LamportsPerSignature * uint64(signers)
}

// NewKeypair returns a fresh deterministic account named prefix-N.
func (e *TestEnv) NewKeypair(prefix string) *Account {
	e.fixtures++
	return NewAccount(fmt.Sprintf("%s-%d", prefix, e.fixtures))
}

// Fund gives each account DefaultFunding lamports.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, a := range accounts {
		e.FundAmount(a.PublicKey(), DefaultFunding)
	}
}

// FundAmount adds lamports to key, creating a system account if needed.
func (e *TestEnv) FundAmount(key solana.PublicKey, lamports uint64) {
	e.t.Helper()
	acct := e.Account(key)
	if acct == nil {
		acct = &ledger.Account{Owner: solana.SystemProgramID}
	}
	acct.Lamports += lamports
	e.SetAccount(key, acct)
}

// SetAccount writes an account directly, bypassing the engine.
func (e *TestEnv) SetAccount(key solana.PublicKey, acct *ledger.Account) {
	e.t.Helper()
	if err := e.store.SetAccount(key, acct); err != nil {
		e.t.Fatalf("Failed to set account %s: %v", key, err)
	}
}

// Submit signs a transaction with payer as fee payer and sole signer and
// applies it.
func (e *TestEnv) Submit(payer *Account, ixs ...tx.Instruction) tx.ApplyResult {
	e.t.Helper()
	return e.SubmitSigned([]*Account{payer}, ixs...)
}

// SubmitSigned signs a transaction with every signer and applies it. The
// first signer pays the fee.
func (e *TestEnv) SubmitSigned(signers []*Account, ixs ...tx.Instruction) tx.ApplyResult {
	e.t.Helper()
	return e.engine.Apply(e.Sign(signers, ixs...))
}

// Sign builds a transaction paid by the first signer and signed by all of
// them, without applying it.
func (e *TestEnv) Sign(signers []*Account, ixs ...tx.Instruction) *tx.Transaction {
	e.t.Helper()
	if len(signers) == 0 {
		e.t.Fatal("Sign needs at least one signer")
	}
	txn := tx.NewTransaction(signers[0].PublicKey(), ixs...)
	keys := make([]solana.PrivateKey, len(signers))
	for i, s := range signers {
		keys[i] = s.Key
	}
	if err := txn.Sign(keys...); err != nil {
		e.t.Fatalf("Failed to sign transaction: %v", err)
	}
	return txn
}

// MustSubmit submits and fails the test unless the transaction succeeds.
func (e *TestEnv) MustSubmit(signers []*Account, ixs ...tx.Instruction) tx.ApplyResult {
	e.t.Helper()
	result := e.SubmitSigned(signers, ixs...)
	if result.Result != tx.TesSUCCESS {
		e.t.Fatalf("Expected tesSUCCESS, got %s: %s", result.Result, FormatLogs(result))
	}
	return result
}

// Account returns the account under key, or nil when absent.
func (e *TestEnv) Account(key solana.PublicKey) *ledger.Account {
	e.t.Helper()
	acct, err := e.store.Read(key)
	if err != nil {
		e.t.Fatalf("Failed to read account %s: %v", key, err)
	}
	return acct
}

// Balance returns the lamports held by key.
func (e *TestEnv) Balance(key solana.PublicKey) uint64 {
	e.t.Helper()
	acct := e.Account(key)
	if acct == nil {
		return 0
	}
	return acct.Lamports
}

// TokenAccount decodes the token account under key, or returns nil.
func (e *TestEnv) TokenAccount(key solana.PublicKey) *token.Account {
	e.t.Helper()
	a, err := token.ReadAccount(e.store, key)
	if err != nil {
		e.t.Fatalf("Failed to decode token account %s: %v", key, err)
	}
	return a
}

// TokenBalance returns the amount held by a token account, zero when absent.
func (e *TestEnv) TokenBalance(key solana.PublicKey) uint64 {
	e.t.Helper()
	a := e.TokenAccount(key)
	if a == nil {
		return 0
	}
	return a.Amount
}

// Mint decodes the mint under key, or returns nil.
func (e *TestEnv) Mint(key solana.PublicKey) *token.Mint {
	e.t.Helper()
	m, err := token.ReadMint(e.store, key)
	if err != nil {
		e.t.Fatalf("Failed to decode mint %s: %v", key, err)
	}
	return m
}

// Metadata decodes the metadata record of mint, or returns nil.
func (e *TestEnv) Metadata(mint solana.PublicKey) *tokenmetadata.Metadata {
	e.t.Helper()
	md, err := tokenmetadata.Read(e.store, keylet.Metadata(mint).Key)
	if err != nil {
		e.t.Fatalf("Failed to decode metadata of %s: %v", mint, err)
	}
	return md
}
