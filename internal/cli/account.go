package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/auctionhouse"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/bubblegum"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/token"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/node"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account <pubkey>",
	Short: "Print an account and decode known layouts",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccount,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

type accountOutput struct {
	Pubkey     solana.PublicKey `json:"pubkey"`
	Lamports   uint64           `json:"lamports"`
	Owner      solana.PublicKey `json:"owner"`
	Program    string           `json:"program,omitempty"`
	Executable bool             `json:"executable"`
	DataLen    int              `json:"data_len"`
	Kind       string           `json:"kind,omitempty"`
	Decoded    any              `json:"decoded,omitempty"`
}

func runAccount(cmd *cobra.Command, args []string) error {
	key, err := solana.PublicKeyFromBase58(args[0])
	if err != nil {
		return fmt.Errorf("invalid pubkey %q: %w", args[0], err)
	}

	var acct *ledger.Account
	err = withNode(cmd.Context(), func(n *node.Node) error {
		acct, err = n.Account(key)
		return err
	})
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("account %s not found", key)
	}

	out := accountOutput{
		Pubkey:     key,
		Lamports:   acct.Lamports,
		Owner:      acct.Owner,
		Program:    tx.ProgramName(acct.Owner),
		Executable: acct.Executable,
		DataLen:    len(acct.Data),
	}
	out.Kind, out.Decoded = decodeAccount(acct)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// decodeAccount names and decodes the layout of acct when its owner is a
// known program. Unknown data yields an empty kind.
func decodeAccount(acct *ledger.Account) (string, any) {
	data := acct.Data
	if len(data) == 0 {
		return "", nil
	}

	switch acct.Owner {
	case solana.TokenProgramID:
		switch len(data) {
		case token.MintSize:
			if m, err := token.UnpackMint(data); err == nil {
				return "mint", m
			}
		case token.AccountSize:
			if a, err := token.UnpackAccount(data); err == nil {
				return "token_account", a
			}
		}
	case tokenmetadata.ProgramID:
		if m, err := tokenmetadata.Unpack(data); err == nil {
			return "metadata", m
		}
	case compression.ProgramID:
		if t, err := compression.UnpackTree(data); err == nil {
			return "merkle_tree", t
		}
	case auctionhouse.ProgramID:
		if h, err := auctionhouse.UnpackAuctionHouse(data); err == nil {
			return "auction_house", h
		}
		if a, err := auctionhouse.UnpackAuctioneer(data); err == nil {
			return "auctioneer", a
		}
		if len(data) == 1 {
			return "trade_state", auctionhouse.ParseTradeState(data)
		}
	case bubblegum.ProgramID:
		if c, err := bubblegum.UnpackTreeConfig(data); err == nil {
			return "tree_config", c
		}
		if r, err := bubblegum.UnpackMintRequest(data); err == nil {
			return "mint_request", r
		}
		if v, err := bubblegum.UnpackVoucher(data); err == nil {
			return "voucher", v
		}
	}
	return "", nil
}
