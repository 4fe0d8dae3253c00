package bubblegum

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	tx "github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx"
	"github.com/metaplex-foundation/metaplex-program-library-sub000/internal/core/tx/tokenmetadata"
)

// CreatorChange holds the arguments shared by verify_creator and
// unverify_creator.
type CreatorChange struct {
	LeafArgs
	Tree         solana.PublicKey `json:"tree"`
	LeafOwner    solana.PublicKey `json:"leaf_owner"`
	LeafDelegate solana.PublicKey `json:"leaf_delegate"`
	Creator      solana.PublicKey `json:"creator"`
	Message      MetadataArgs     `json:"message"`
}

func (c *CreatorChange) accounts() []tx.AccountMeta {
	return leafAccounts(c.Tree, c.LeafOwner, c.LeafDelegate, c.Creator)
}

func (c *CreatorChange) check() error {
	if c.Tree.IsZero() || c.LeafOwner.IsZero() || c.LeafDelegate.IsZero() || c.Creator.IsZero() {
		return errors.New("tree, owner, delegate and creator are required")
	}
	return c.validate()
}

func (c *CreatorChange) apply(ctx *tx.ApplyContext, verified bool) tx.Result {
	if !ctx.IsSigner(c.Creator) {
		return ResultCreatorDidNotVerify
	}
	if r := checkHashes(c.Message, c.LeafArgs); r != tx.TesSUCCESS {
		return r
	}

	updated := c.Message
	updated.Creators = append([]tokenmetadata.Creator(nil), c.Message.Creators...)
	found := false
	for i := range updated.Creators {
		if !updated.Creators[i].Address.Equals(c.Creator) {
			continue
		}
		found = true
		if updated.Creators[i].Verified == verified {
			if verified {
				return ResultAlreadyVerified
			}
			return ResultAlreadyUnverified
		}
		updated.Creators[i].Verified = verified
	}
	if !found {
		return ResultCreatorNotFound
	}

	previous := c.leaf(c.Tree, c.LeafOwner, c.LeafDelegate)
	next := NewLeaf(c.Tree, c.LeafOwner, c.LeafDelegate, c.Nonce, HashMetadata(updated), HashCreators(updated.Creators))
	return replaceLeaf(ctx, c.Tree, c.LeafArgs, previous.Hash(), next.Hash())
}

// VerifyCreator marks Creator as verified on a compressed asset. The
// creator signs.
type VerifyCreator struct {
	CreatorChange
}

func (v *VerifyCreator) ProgramID() solana.PublicKey { return ProgramID }
func (v *VerifyCreator) Name() string                { return "verify_creator" }
func (v *VerifyCreator) Accounts() []tx.AccountMeta  { return v.accounts() }
func (v *VerifyCreator) Validate() error             { return v.check() }
func (v *VerifyCreator) Apply(ctx *tx.ApplyContext) tx.Result {
	return v.apply(ctx, true)
}

// UnverifyCreator clears the verified flag of Creator. The creator signs.
type UnverifyCreator struct {
	CreatorChange
}

func (u *UnverifyCreator) ProgramID() solana.PublicKey { return ProgramID }
func (u *UnverifyCreator) Name() string                { return "unverify_creator" }
func (u *UnverifyCreator) Accounts() []tx.AccountMeta  { return u.accounts() }
func (u *UnverifyCreator) Validate() error             { return u.check() }
func (u *UnverifyCreator) Apply(ctx *tx.ApplyContext) tx.Result {
	return u.apply(ctx, false)
}
