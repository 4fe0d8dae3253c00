// Package scheduler applies batches of transactions concurrently. A batch
// is split into waves: no two transactions in a wave touch the same account
// unless both only read it, and a transaction never runs before an earlier
// transaction it conflicts with.
package scheduler

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Applier applies a single transaction. *tx.Engine satisfies it.
type Applier interface {
	Apply(t *tx.Transaction) tx.ApplyResult
}

// Scheduler runs batches through an Applier
type Scheduler struct {
	applier Applier
	config  Config
	log     *zap.Logger
}

// New creates a scheduler
func New(applier Applier, config Config) *Scheduler {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		applier: applier,
		config:  config,
		log:     log.Named("scheduler"),
	}
}

// lockState tracks the latest wave that read or wrote one account
type lockState struct {
	lastRead  int
	lastWrite int
}

// Waves partitions txns into ordered waves of indices into txns. Each
// transaction is placed in the first wave after every earlier transaction
// it conflicts with: a write conflicts with any earlier access, a read only
// with an earlier write.
func Waves(txns []*tx.Transaction) [][]int {
	locks := make(map[solana.PublicKey]*lockState)
	var waves [][]int

	for i, t := range txns {
		accounts := t.AccountLocks()
		wave := 0
		for key, writable := range accounts {
			st, ok := locks[key]
			if !ok {
				continue
			}
			after := st.lastWrite
			if writable && st.lastRead > after {
				after = st.lastRead
			}
			if after+1 > wave {
				wave = after + 1
			}
		}

		for key, writable := range accounts {
			st, ok := locks[key]
			if !ok {
				st = &lockState{lastRead: -1, lastWrite: -1}
				locks[key] = st
			}
			if writable {
				st.lastWrite = wave
			} else if wave > st.lastRead {
				st.lastRead = wave
			}
		}

		for len(waves) <= wave {
			waves = append(waves, nil)
		}
		waves[wave] = append(waves[wave], i)
	}
	return waves
}

// Run applies txns and returns one result per transaction in submission
// order. Cancelling ctx stops the batch between transactions; the results
// of transactions that never ran are left zero and ctx's error is returned.
func (s *Scheduler) Run(ctx context.Context, txns []*tx.Transaction) ([]tx.ApplyResult, error) {
	results := make([]tx.ApplyResult, len(txns))
	waves := Waves(txns)
	start := time.Now()

	for n, wave := range waves {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.config.parallelism())

		for _, idx := range wave {
			idx := idx
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[idx] = s.applier.Apply(txns[idx])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Warn("batch interrupted", zap.Int("wave", n), zap.Error(err))
			return results, err
		}
		s.log.Debug("wave applied", zap.Int("wave", n), zap.Int("transactions", len(wave)))
	}

	s.log.Info("batch applied",
		zap.Int("transactions", len(txns)),
		zap.Int("waves", len(waves)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
