package cli

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/node"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	signerFiles []string
	showLogs    bool
)

var applyCmd = &cobra.Command{
	Use:   "apply <tx.json>...",
	Short: "Sign and apply transaction files",
	Long: `Apply reads transactions from JSON files, signs them with the given
solana-keygen keypairs and applies them through the scheduler. Transactions
that do not conflict run concurrently; results are printed in file order.

Example:
    mplxd apply sell.json buy.json --signer seller.json --signer buyer.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringArrayVarP(&signerFiles, "signer", "s", nil, "solana-keygen keypair file (repeatable)")
	applyCmd.Flags().BoolVar(&showLogs, "logs", false, "include program logs in the output")
}

// applyOutput is the printed result of one transaction
type applyOutput struct {
	Signature string   `json:"signature"`
	Result    string   `json:"result"`
	Applied   bool     `json:"applied"`
	Fee       uint64   `json:"fee"`
	Message   string   `json:"message,omitempty"`
	Logs      []string `json:"logs,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	txns, err := node.LoadTransactions(args...)
	if err != nil {
		return err
	}
	keys, err := loadSigners(signerFiles)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		for i, t := range txns {
			if err := signDeclared(t, keys); err != nil {
				return fmt.Errorf("transaction %d: %w", i, err)
			}
		}
	}

	var results []tx.ApplyResult
	err = withNode(cmd.Context(), func(n *node.Node) error {
		results, err = n.Apply(cmd.Context(), txns)
		return err
	})
	if err != nil {
		return err
	}

	out := make([]applyOutput, len(results))
	for i, res := range results {
		out[i] = applyOutput{
			Signature: txns[i].ID().String(),
			Result:    res.Result.String(),
			Applied:   res.Applied,
			Fee:       res.Fee,
		}
		if !res.Applied {
			out[i].Message = res.Message
		}
		if showLogs {
			out[i].Logs = res.Logs
		}
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadSigners reads keypair files concurrently
func loadSigners(paths []string) ([]solana.PrivateKey, error) {
	keys := make([]solana.PrivateKey, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
			if err != nil {
				return fmt.Errorf("failed to load signer %s: %w", path, err)
			}
			keys[i] = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return keys, nil
}

// signDeclared signs t with every key the transaction declares
func signDeclared(t *tx.Transaction, keys []solana.PrivateKey) error {
	locks := t.AccountLocks()
	var signers []solana.PrivateKey
	for _, key := range keys {
		if _, ok := locks[key.PublicKey()]; ok {
			signers = append(signers, key)
		}
	}
	if len(signers) == 0 {
		return nil
	}
	return t.Sign(signers...)
}
