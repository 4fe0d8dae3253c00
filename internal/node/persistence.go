package node

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
)

// record writes one history row per charged transaction inside a single
// database transaction. Rejected transactions left no trace on the
// ledger and are skipped.
func (n *Node) record(ctx context.Context, txns []*tx.Transaction, results []tx.ApplyResult) error {
	records := make([]*relationaldb.TransactionRecord, 0, len(results))
	now := time.Now()
	for i, res := range results {
		if res.Metadata == nil {
			continue
		}
		rec, err := newRecord(txns[i], res, now)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}

	return n.history.ExecuteWithRetry(ctx, func() error {
		return n.history.ExecuteInTransaction(ctx, func(txCtx relationaldb.TransactionContext) error {
			repo := txCtx.Transaction()
			seq, err := repo.GetMaxSequence(ctx)
			if err != nil {
				return err
			}
			for _, rec := range records {
				seq++
				rec.Sequence = seq
				if err := repo.SaveTransaction(ctx, rec); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

func newRecord(t *tx.Transaction, res tx.ApplyResult, now time.Time) (*relationaldb.TransactionRecord, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	meta, err := json.Marshal(res.Metadata)
	if err != nil {
		return nil, err
	}

	locks := t.AccountLocks()
	accounts := make([]solana.PublicKey, 0, len(locks))
	for key := range locks {
		accounts = append(accounts, key)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].String() < accounts[j].String()
	})

	return &relationaldb.TransactionRecord{
		Signature: t.ID(),
		FeePayer:  t.FeePayer,
		Result:    res.Result.String(),
		Code:      int32(res.Result),
		Applied:   res.Applied,
		Fee:       res.Fee,
		RawTxn:    raw,
		TxnMeta:   meta,
		Accounts:  accounts,
		CreatedAt: now,
	}, nil
}
