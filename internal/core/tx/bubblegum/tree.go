package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/ledger/keylet"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/compression"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/system"
)

var errProofTooLong = errors.New("proof is longer than the deepest tree")

// CreateTree initializes Tree, already allocated to the compression
// program, and records TreeCreator as its creator and first delegate. A
// public tree lets anyone mint.
type CreateTree struct {
	Tree          solana.PublicKey `json:"tree"`
	Payer         solana.PublicKey `json:"payer"`
	TreeCreator   solana.PublicKey `json:"tree_creator"`
	MaxDepth      uint32           `json:"max_depth"`
	MaxBufferSize uint32           `json:"max_buffer_size"`
	Public        bool             `json:"public"`
}

func (c *CreateTree) ProgramID() solana.PublicKey { return ProgramID }
func (c *CreateTree) Name() string                { return "create_tree" }

func (c *CreateTree) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.TreeAuthority(c.Tree).Key),
		tx.Writable(c.Tree),
		tx.Writable(c.Payer),
		tx.ReadOnly(c.TreeCreator),
		tx.ReadOnly(solana.SystemProgramID),
		tx.ReadOnly(compression.ProgramID),
	}
}

func (c *CreateTree) Validate() error {
	if c.Tree.IsZero() || c.Payer.IsZero() || c.TreeCreator.IsZero() {
		return errors.New("tree, payer and tree creator are required")
	}
	return nil
}

func (c *CreateTree) Apply(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireSigner(c.TreeCreator); r != tx.TesSUCCESS {
		return r
	}
	config := keylet.TreeAuthority(c.Tree)
	existing, r := ctx.Account(config.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	if existing != nil && existing.Owner.Equals(ProgramID) {
		return ResultTreeAlreadyInitialized
	}

	if r := compression.InvokeInitEmptyMerkleTree(ctx, c.Tree, config.Key, c.MaxDepth, c.MaxBufferSize, config.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	if r := system.InvokeCreateRentExempt(ctx, c.Payer, config.Key, TreeConfigSize, ProgramID, config.SignerSeeds()); r != tx.TesSUCCESS {
		return r
	}
	acct, r := ctx.Account(config.Key)
	if r != tx.TesSUCCESS {
		return r
	}
	ctx.Logf("created tree %s of depth %d", c.Tree, c.MaxDepth)
	return store(ctx, config.Key, acct, &TreeConfig{
		TreeCreator:       c.TreeCreator,
		TreeDelegate:      c.TreeCreator,
		TotalMintCapacity: uint64(1) << c.MaxDepth,
		IsPublic:          c.Public,
	})
}

// SetTreeDelegate hands the tree's minting and approval rights to
// NewTreeDelegate. The tree creator signs.
type SetTreeDelegate struct {
	Tree            solana.PublicKey `json:"tree"`
	TreeCreator     solana.PublicKey `json:"tree_creator"`
	NewTreeDelegate solana.PublicKey `json:"new_tree_delegate"`
}

func (s *SetTreeDelegate) ProgramID() solana.PublicKey { return ProgramID }
func (s *SetTreeDelegate) Name() string                { return "set_tree_delegate" }

func (s *SetTreeDelegate) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		tx.Writable(keylet.TreeAuthority(s.Tree).Key),
		tx.ReadOnly(s.Tree),
		tx.ReadOnly(s.TreeCreator),
		tx.ReadOnly(s.NewTreeDelegate),
	}
}

func (s *SetTreeDelegate) Validate() error {
	if s.Tree.IsZero() || s.TreeCreator.IsZero() || s.NewTreeDelegate.IsZero() {
		return errors.New("tree, tree creator and new delegate are required")
	}
	return nil
}

func (s *SetTreeDelegate) Apply(ctx *tx.ApplyContext) tx.Result {
	config, acct, r := LoadTreeConfig(ctx, s.Tree)
	if r != tx.TesSUCCESS {
		return r
	}
	if !config.TreeCreator.Equals(s.TreeCreator) || !ctx.IsSigner(s.TreeCreator) {
		return ResultTreeAuthorityIncorrect
	}
	config.TreeDelegate = s.NewTreeDelegate
	return store(ctx, keylet.TreeAuthority(s.Tree).Key, acct, config)
}
