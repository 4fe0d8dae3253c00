package node

import (
	"fmt"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/config"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/state"
	"go.uber.org/zap"
)

// seedGenesis writes the genesis accounts into an empty store. A store
// that already holds accounts is left untouched.
func (n *Node) seedGenesis(store *state.Store) error {
	if n.config.GenesisFile == "" {
		return nil
	}
	if store.Len() > 0 {
		n.log.Debug("store not empty, skipping genesis")
		return nil
	}

	path := n.config.ResolvePath(n.config.GenesisFile)
	genesis, err := config.LoadGenesisJSON(path)
	if err != nil {
		return err
	}
	if err := genesis.Validate(); err != nil {
		return fmt.Errorf("invalid genesis %s: %w", path, err)
	}
	accounts, err := genesis.ParseAccounts()
	if err != nil {
		return err
	}

	changes := make([]ledger.Change, 0, len(accounts))
	for _, acc := range accounts {
		changes = append(changes, ledger.Change{
			Key:     acc.Key,
			Action:  ledger.ActionInsert,
			Account: acc.Account,
		})
	}
	if err := store.ApplyBatch(changes); err != nil {
		return fmt.Errorf("failed to write genesis accounts: %w", err)
	}

	n.log.Info("genesis loaded", zap.String("file", path), zap.Int("accounts", len(accounts)))
	return nil
}
