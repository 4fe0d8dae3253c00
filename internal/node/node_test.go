package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/config"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const genesisLamports = 10_000_000_000

func writeConfig(t *testing.T, dir string, payer solana.PublicKey) *config.Config {
	t.Helper()
	genesis := fmt.Sprintf(`{"accounts":[{"pubkey":%q,"lamports":%d}]}`, payer.String(), genesisLamports)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genesis.json"), []byte(genesis), 0644))

	toml := fmt.Sprintf(`
genesis_file = "genesis.json"

[database]
backend = "pebble"
path = %q

[history]
driver = "sqlite"
dsn = %q
`, filepath.Join(dir, "accounts"), filepath.Join(dir, "history.db"))
	path := filepath.Join(dir, "mplxd.toml")
	require.NoError(t, os.WriteFile(path, []byte(toml), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	return cfg
}

func startNode(t *testing.T, cfg *config.Config) *Node {
	t.Helper()
	n := New(cfg, zaptest.NewLogger(t))
	require.NoError(t, n.Start(context.Background()))
	return n
}

func transfer(t *testing.T, from solana.PrivateKey, to solana.PublicKey, lamports uint64) *tx.Transaction {
	t.Helper()
	txn := tx.NewTransaction(from.PublicKey(), &system.Transfer{From: from.PublicKey(), To: to, Lamports: lamports})
	require.NoError(t, txn.Sign(from))
	return txn
}

func TestNodeApplyAndHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	recipient := solana.NewWallet().PublicKey()

	cfg := writeConfig(t, dir, payer.PublicKey())
	n := startNode(t, cfg)

	acct, err := n.Account(payer.PublicKey())
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, uint64(genesisLamports), acct.Lamports)

	good := transfer(t, payer, recipient, 1_000_000)
	unsigned := tx.NewTransaction(payer.PublicKey(), &system.Transfer{From: payer.PublicKey(), To: recipient, Lamports: 1})

	results, err := n.Apply(ctx, []*tx.Transaction{good, unsigned})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.True(t, results[0].Applied, results[0].Logs)
	assert.Nil(t, results[1].Metadata)

	rec, err := n.Transaction(ctx, good.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.Sequence)
	assert.Equal(t, "tesSUCCESS", rec.Result)
	assert.Equal(t, payer.PublicKey(), rec.FeePayer)
	assert.Contains(t, rec.Accounts, recipient)
	assert.Contains(t, string(rec.TxnMeta), "affected_nodes")

	decoded, err := ParseTransactions(rec.RawTxn)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, good.ID(), decoded[0].ID())

	page, err := n.AccountTransactions(ctx, relationaldb.AccountTxOptions{Account: recipient})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Nil(t, page.Marker)

	require.NoError(t, n.Close(ctx))

	// Reopening keeps state and does not replay genesis
	n = startNode(t, cfg)
	defer n.Close(ctx)

	acct, err = n.Account(recipient)
	require.NoError(t, err)
	require.NotNil(t, acct)
	assert.Equal(t, uint64(1_000_000), acct.Lamports)

	second := transfer(t, payer, recipient, 2_000_000)
	results, err = n.Apply(ctx, []*tx.Transaction{second})
	require.NoError(t, err)
	require.True(t, results[0].Applied, results[0].Logs)

	rec, err = n.Transaction(ctx, second.ID())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.Sequence)

	page, err = n.AccountTransactions(ctx, relationaldb.AccountTxOptions{Account: recipient, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, second.ID(), page.Transactions[0].Signature)
	require.NotNil(t, page.Marker)
}

func TestNodeWithoutHistory(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Database.Backend = "memory"
	cfg.History.Driver = "none"

	n := New(cfg, nil)
	_, err = n.Apply(ctx, nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, n.Start(ctx))
	defer n.Close(ctx)
	assert.ErrorIs(t, n.Start(ctx), ErrAlreadyStarted)

	_, err = n.Transaction(ctx, solana.Signature{})
	assert.True(t, errors.Is(err, ErrNoHistory))

	acct, err := n.Account(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Nil(t, acct)
}

func TestParseTransactions(t *testing.T) {
	payer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	a := transfer(t, payer, solana.NewWallet().PublicKey(), 10)
	b := transfer(t, payer, solana.NewWallet().PublicKey(), 20)

	dir := t.TempDir()
	single, err := a.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), single, 0644))

	list, err := json.Marshal([]*tx.Transaction{a, b})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "list.json"), list, 0644))

	txns, err := LoadTransactions(filepath.Join(dir, "a.json"), filepath.Join(dir, "list.json"))
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, a.ID(), txns[0].ID())
	assert.Equal(t, a.ID(), txns[1].ID())
	assert.Equal(t, b.ID(), txns[2].ID())

	_, err = ParseTransactions([]byte("  "))
	assert.Error(t, err)
	_, err = LoadTransactions(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
