package node

import (
	"context"
	"fmt"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"go.uber.org/zap"
)

// Apply runs txns through the scheduler and records every transaction
// that got past preclaim in the history store. Results are in submission
// order.
func (n *Node) Apply(ctx context.Context, txns []*tx.Transaction) ([]tx.ApplyResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.scheduler == nil {
		return nil, ErrNotStarted
	}

	results, err := n.scheduler.Run(ctx, txns)
	if err != nil {
		return results, err
	}

	if n.history != nil {
		if err := n.record(ctx, txns, results); err != nil {
			return results, fmt.Errorf("failed to record history: %w", err)
		}
	}

	var applied, failed, rejected int
	for _, res := range results {
		switch {
		case res.Applied:
			applied++
		case res.Metadata != nil:
			failed++
		default:
			rejected++
		}
	}
	n.log.Info("batch applied",
		zap.Int("transactions", len(txns)),
		zap.Int("applied", applied),
		zap.Int("failed", failed),
		zap.Int("rejected", rejected),
	)
	return results, nil
}
