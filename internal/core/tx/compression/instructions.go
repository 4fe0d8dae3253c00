package compression

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/merkle"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
)

// InitEmptyMerkleTree initializes a tree account already allocated to the
// compression program with TreeAccountSize(MaxDepth) bytes.
type InitEmptyMerkleTree struct {
	Tree          solana.PublicKey `json:"tree"`
	Authority     solana.PublicKey `json:"authority"`
	MaxDepth      uint32           `json:"max_depth"`
	MaxBufferSize uint32           `json:"max_buffer_size"`
}

func (i *InitEmptyMerkleTree) ProgramID() solana.PublicKey { return ProgramID }
func (i *InitEmptyMerkleTree) Name() string                { return "init_empty_merkle_tree" }

func (i *InitEmptyMerkleTree) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(i.Tree), tx.ReadOnly(i.Authority)}
}

func (i *InitEmptyMerkleTree) Validate() error {
	if i.Tree.IsZero() || i.Authority.IsZero() {
		return errors.New("tree and authority are required")
	}
	return nil
}

func (i *InitEmptyMerkleTree) Apply(ctx *tx.ApplyContext) tx.Result {
	if i.MaxDepth < MinDepth || i.MaxDepth > MaxDepth {
		return ResultInvalidDepth
	}
	if i.MaxBufferSize < MinBufferSize || i.MaxBufferSize > MaxBufferSize {
		return ResultInvalidBufferSize
	}
	if r := ctx.RequireSigner(i.Authority); r != tx.TesSUCCESS {
		return r
	}

	acct, r := ctx.Account(i.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if acct == nil {
		return ResultNotInitialized
	}
	if !acct.Owner.Equals(ProgramID) {
		return ResultIncorrectOwner
	}
	if len(acct.Data) != TreeAccountSize(i.MaxDepth) {
		return ResultInvalidAccountSize
	}
	for _, b := range acct.Data {
		if b != 0 {
			return ResultAlreadyInitialized
		}
	}
	return store(ctx, i.Tree, acct, NewTreeAccount(i.MaxDepth, i.MaxBufferSize, i.Authority))
}

// InvokeInitEmptyMerkleTree initializes a tree through a cross-program call.
func InvokeInitEmptyMerkleTree(ctx *tx.ApplyContext, tree, authority solana.PublicKey, depth, bufferSize uint32, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(ProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&InitEmptyMerkleTree{
		Tree:          tree,
		Authority:     authority,
		MaxDepth:      depth,
		MaxBufferSize: bufferSize,
	}).Apply(cpi)
}

// Append adds Leaf at the next free index.
type Append struct {
	Tree      solana.PublicKey `json:"tree"`
	Authority solana.PublicKey `json:"authority"`
	Leaf      merkle.Hash      `json:"leaf"`
}

func (a *Append) ProgramID() solana.PublicKey { return ProgramID }
func (a *Append) Name() string                { return "append" }

func (a *Append) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(a.Tree), tx.ReadOnly(a.Authority)}
}

func (a *Append) Validate() error {
	if a.Tree.IsZero() || a.Authority.IsZero() {
		return errors.New("tree and authority are required")
	}
	return nil
}

func (a *Append) Apply(ctx *tx.ApplyContext) tx.Result {
	t, acct, r := authorize(ctx, a.Tree, a.Authority)
	if r != tx.TesSUCCESS {
		return r
	}
	if err := t.Append(a.Leaf); err != nil {
		return treeError(err)
	}
	return store(ctx, a.Tree, acct, t)
}

// InvokeAppend appends a leaf through a cross-program call.
func InvokeAppend(ctx *tx.ApplyContext, tree, authority solana.PublicKey, leaf merkle.Hash, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(ProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return (&Append{Tree: tree, Authority: authority, Leaf: leaf}).Apply(cpi)
}

// ReplaceLeaf swaps PreviousLeaf at Index for NewLeaf. Proof must
// authenticate PreviousLeaf under Root, and Root must be the current root.
type ReplaceLeaf struct {
	Tree         solana.PublicKey `json:"tree"`
	Authority    solana.PublicKey `json:"authority"`
	Root         merkle.Hash      `json:"root"`
	PreviousLeaf merkle.Hash      `json:"previous_leaf"`
	NewLeaf      merkle.Hash      `json:"new_leaf"`
	Index        uint32           `json:"index"`
	Proof        []merkle.Hash    `json:"proof"`
}

func (rl *ReplaceLeaf) ProgramID() solana.PublicKey { return ProgramID }
func (rl *ReplaceLeaf) Name() string                { return "replace_leaf" }

func (rl *ReplaceLeaf) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.Writable(rl.Tree), tx.ReadOnly(rl.Authority)}
}

func (rl *ReplaceLeaf) Validate() error {
	if rl.Tree.IsZero() || rl.Authority.IsZero() {
		return errors.New("tree and authority are required")
	}
	if len(rl.Proof) > MaxDepth {
		return errors.New("proof is longer than the deepest tree")
	}
	return nil
}

func (rl *ReplaceLeaf) Apply(ctx *tx.ApplyContext) tx.Result {
	t, acct, r := authorize(ctx, rl.Tree, rl.Authority)
	if r != tx.TesSUCCESS {
		return r
	}
	if err := t.Replace(verifier, rl.Root, rl.PreviousLeaf, rl.NewLeaf, rl.Index, rl.Proof); err != nil {
		ctx.Logf("replace leaf %d: %v", rl.Index, err)
		return treeError(err)
	}
	return store(ctx, rl.Tree, acct, t)
}

// InvokeReplaceLeaf replaces a leaf through a cross-program call.
func InvokeReplaceLeaf(ctx *tx.ApplyContext, ix *ReplaceLeaf, signerSeeds ...[][]byte) tx.Result {
	cpi, r := ctx.InvokeSigned(ProgramID, signerSeeds...)
	if r != tx.TesSUCCESS {
		return r
	}
	return ix.Apply(cpi)
}

// VerifyLeaf fails unless Proof places Leaf at Index under the current
// root. It changes nothing.
type VerifyLeaf struct {
	Tree  solana.PublicKey `json:"tree"`
	Root  merkle.Hash      `json:"root"`
	Leaf  merkle.Hash      `json:"leaf"`
	Index uint32           `json:"index"`
	Proof []merkle.Hash    `json:"proof"`
}

func (v *VerifyLeaf) ProgramID() solana.PublicKey { return ProgramID }
func (v *VerifyLeaf) Name() string                { return "verify_leaf" }

func (v *VerifyLeaf) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{tx.ReadOnly(v.Tree)}
}

func (v *VerifyLeaf) Validate() error {
	if v.Tree.IsZero() {
		return errors.New("tree is required")
	}
	return nil
}

func (v *VerifyLeaf) Apply(ctx *tx.ApplyContext) tx.Result {
	t, _, r := Load(ctx, v.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if err := t.Verify(verifier, v.Root, v.Leaf, v.Index, v.Proof); err != nil {
		return treeError(err)
	}
	return tx.TesSUCCESS
}

// InvokeVerifyLeaf verifies a leaf through a cross-program call.
func InvokeVerifyLeaf(ctx *tx.ApplyContext, ix *VerifyLeaf) tx.Result {
	cpi, r := ctx.Invoke(ProgramID)
	if r != tx.TesSUCCESS {
		return r
	}
	return ix.Apply(cpi)
}
