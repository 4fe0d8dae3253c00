package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/node"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/storage/relationaldb"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyMarker  uint64
	historyForward bool
)

var historyCmd = &cobra.Command{
	Use:   "history <pubkey|signature>",
	Short: "Query recorded transactions",
	Long: `History prints one recorded transaction when given a signature, or a
page of the transactions that locked an account when given a pubkey.

Example:
    mplxd history 5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW
    mplxd history BPFLoader1111111111111111111111111111111111 --limit 20 --marker 120`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "page size (default 200)")
	historyCmd.Flags().Uint64Var(&historyMarker, "marker", 0, "resume after this sequence")
	historyCmd.Flags().BoolVar(&historyForward, "forward", false, "oldest first")
}

type historyEntry struct {
	Signature solana.Signature   `json:"signature"`
	Sequence  uint64             `json:"sequence"`
	FeePayer  solana.PublicKey   `json:"fee_payer"`
	Result    string             `json:"result"`
	Applied   bool               `json:"applied"`
	Fee       uint64             `json:"fee"`
	Accounts  []solana.PublicKey `json:"accounts,omitempty"`
	Tx        json.RawMessage    `json:"tx,omitempty"`
	Meta      json.RawMessage    `json:"meta,omitempty"`
}

func newHistoryEntry(rec *relationaldb.TransactionRecord, full bool) historyEntry {
	e := historyEntry{
		Signature: rec.Signature,
		Sequence:  rec.Sequence,
		FeePayer:  rec.FeePayer,
		Result:    rec.Result,
		Applied:   rec.Applied,
		Fee:       rec.Fee,
	}
	if full {
		e.Accounts = rec.Accounts
		e.Tx = rec.RawTxn
		e.Meta = rec.TxnMeta
	}
	return e
}

func runHistory(cmd *cobra.Command, args []string) error {
	var out any
	err := withNode(cmd.Context(), func(n *node.Node) error {
		if sig, err := solana.SignatureFromBase58(args[0]); err == nil {
			rec, err := n.Transaction(cmd.Context(), sig)
			if err != nil {
				return err
			}
			out = newHistoryEntry(rec, true)
			return nil
		}

		key, err := solana.PublicKeyFromBase58(args[0])
		if err != nil {
			return fmt.Errorf("%q is neither a signature nor a pubkey", args[0])
		}
		opts := relationaldb.AccountTxOptions{
			Account: key,
			Limit:   historyLimit,
			Forward: historyForward,
		}
		if cmd.Flags().Changed("marker") {
			opts.Marker = &historyMarker
		}
		page, err := n.AccountTransactions(cmd.Context(), opts)
		if err != nil {
			return err
		}
		entries := make([]historyEntry, len(page.Transactions))
		for i := range page.Transactions {
			entries[i] = newHistoryEntry(&page.Transactions[i], false)
		}
		out = struct {
			Account      solana.PublicKey `json:"account"`
			Transactions []historyEntry   `json:"transactions"`
			Marker       *uint64          `json:"marker,omitempty"`
		}{key, entries, page.Marker}
		return nil
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
