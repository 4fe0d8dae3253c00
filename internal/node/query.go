package node

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
)

func (n *Node) historyRepo() (relationaldb.TransactionRepository, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.store == nil {
		return nil, ErrNotStarted
	}
	if n.history == nil {
		return nil, ErrNoHistory
	}
	return n.history.Transactions(), nil
}

// Transaction looks up a recorded transaction by signature
func (n *Node) Transaction(ctx context.Context, sig solana.Signature) (*relationaldb.TransactionRecord, error) {
	repo, err := n.historyRepo()
	if err != nil {
		return nil, err
	}
	return repo.GetTransaction(ctx, sig)
}

// AccountTransactions pages through the transactions that locked an account
func (n *Node) AccountTransactions(ctx context.Context, opts relationaldb.AccountTxOptions) (*relationaldb.AccountTxResult, error) {
	repo, err := n.historyRepo()
	if err != nil {
		return nil, err
	}
	return repo.GetAccountTransactions(ctx, opts)
}
