package cli

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	"github.com/spf13/cobra"
)

var (
	leavesFile string
	leafIndex  uint32
	treeDepth  uint32
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Off-chain merkle tree tools",
}

var treeProofCmd = &cobra.Command{
	Use:   "proof",
	Short: "Build a proof for one leaf",
	Long: `Proof rebuilds a merkle tree from a file of hex-encoded leaves (one per
line, in append order) and prints the root and the proof of one leaf. The
output matches the arguments of replace_leaf and verify_leaf.

Example:
    mplxd tree proof --leaves leaves.txt --index 3 --depth 14`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runTreeProof,
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.AddCommand(treeProofCmd)

	treeProofCmd.Flags().StringVar(&leavesFile, "leaves", "", "file of hex leaves, one per line")
	treeProofCmd.Flags().Uint32Var(&leafIndex, "index", 0, "leaf index")
	treeProofCmd.Flags().Uint32Var(&treeDepth, "depth", 14, "tree depth")
	_ = treeProofCmd.MarkFlagRequired("leaves")
}

type proofOutput struct {
	Root  merkle.Hash   `json:"root"`
	Leaf  merkle.Hash   `json:"leaf"`
	Index uint32        `json:"index"`
	Proof []merkle.Hash `json:"proof"`
}

func runTreeProof(cmd *cobra.Command, args []string) error {
	leaves, err := readLeaves(leavesFile)
	if err != nil {
		return err
	}
	tree, err := merkle.NewTree(treeDepth)
	if err != nil {
		return err
	}
	for i, leaf := range leaves {
		if _, err := tree.Append(leaf); err != nil {
			return fmt.Errorf("leaf %d: %w", i, err)
		}
	}

	leaf, err := tree.Leaf(leafIndex)
	if err != nil {
		return err
	}
	proof, err := tree.Proof(leafIndex)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(proofOutput{
		Root:  tree.Root(),
		Leaf:  leaf,
		Index: leafIndex,
		Proof: proof,
	})
}

func readLeaves(path string) ([]merkle.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var leaves []merkle.Hash
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(text, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		leaf, err := merkle.HashFromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		leaves = append(leaves, leaf)
	}
	return leaves, scanner.Err()
}
