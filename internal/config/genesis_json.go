package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/bits"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
)

// GenesisJSON represents the JSON genesis file format
type GenesisJSON struct {
	// TotalLamports, when set, must equal the sum of account balances
	TotalLamports uint64               `json:"total_lamports,omitempty"`
	Accounts      []GenesisAccountJSON `json:"accounts"`
}

// GenesisAccountJSON is one account of the genesis state
type GenesisAccountJSON struct {
	PublicKey  string `json:"pubkey"`
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner,omitempty"`
	Executable bool   `json:"executable,omitempty"`
	// Data is base64 encoded
	Data string `json:"data,omitempty"`
}

// GenesisAccount is a parsed genesis account
type GenesisAccount struct {
	Key     solana.PublicKey
	Account *ledger.Account
}

// LoadGenesisJSON loads and parses a genesis JSON file
func LoadGenesisJSON(path string) (*GenesisJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	var genesis GenesisJSON
	if err := json.Unmarshal(data, &genesis); err != nil {
		return nil, fmt.Errorf("failed to parse genesis JSON: %w", err)
	}
	return &genesis, nil
}

// ParseAccounts decodes every account entry. Owner defaults to the system
// program.
func (g *GenesisJSON) ParseAccounts() ([]GenesisAccount, error) {
	accounts := make([]GenesisAccount, 0, len(g.Accounts))
	seen := make(map[solana.PublicKey]bool, len(g.Accounts))

	for i, entry := range g.Accounts {
		key, err := solana.PublicKeyFromBase58(entry.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("account %d: invalid pubkey %q: %w", i, entry.PublicKey, err)
		}
		if seen[key] {
			return nil, fmt.Errorf("account %d: duplicate pubkey %s", i, key)
		}
		seen[key] = true

		owner := solana.SystemProgramID
		if entry.Owner != "" {
			if owner, err = solana.PublicKeyFromBase58(entry.Owner); err != nil {
				return nil, fmt.Errorf("account %s: invalid owner: %w", key, err)
			}
		}

		var data []byte
		if entry.Data != "" {
			if data, err = base64.StdEncoding.DecodeString(entry.Data); err != nil {
				return nil, fmt.Errorf("account %s: invalid data: %w", key, err)
			}
		}

		accounts = append(accounts, GenesisAccount{
			Key: key,
			Account: &ledger.Account{
				Lamports:   entry.Lamports,
				Owner:      owner,
				Executable: entry.Executable,
				Data:       data,
			},
		})
	}
	return accounts, nil
}

// Validate validates the genesis state
func (g *GenesisJSON) Validate() error {
	accounts, err := g.ParseAccounts()
	if err != nil {
		return err
	}

	var total uint64
	for _, acc := range accounts {
		if acc.Account.Lamports == 0 {
			return fmt.Errorf("account %s has no lamports", acc.Key)
		}
		var carry uint64
		total, carry = bits.Add64(total, acc.Account.Lamports, 0)
		if carry != 0 {
			return fmt.Errorf("genesis lamports overflow")
		}
	}

	if g.TotalLamports != 0 && total != g.TotalLamports {
		return fmt.Errorf("account balances (%d) don't match total_lamports (%d)", total, g.TotalLamports)
	}
	return nil
}
